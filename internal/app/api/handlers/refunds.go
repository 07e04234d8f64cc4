package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/payflow/gateway/internal/app/api/middleware"
	"github.com/payflow/gateway/internal/app/service/refund"
	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/pkg/response"
)

// RefundService is the slice of refund.Service the handlers use.
type RefundService interface {
	Create(ctx context.Context, merchantID, paymentID string, req *refund.CreateRequest) (*models.Refund, error)
	Get(ctx context.Context, merchantID, refundID string) (*models.Refund, error)
	List(ctx context.Context, merchantID string, limit, offset int) ([]*models.Refund, int64, error)
}

// @Summary      Create refund
// @Description  Creates a pending refund against a successful payment and schedules processing.
// @Tags         Refunds
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID"
// @Param        request body refund.CreateRequest true "Refund details"
// @Success      201  {object}  models.Refund
// @Failure      400  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/v1/payments/{id}/refunds [post]
func CreateRefund(svc RefundService) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := middleware.MerchantFrom(c)
		var req refund.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(response.CodeBadRequest, err.Error()))
			return
		}

		r, err := svc.Create(c.Request.Context(), m.ID, c.Param("id"), &req)
		if err != nil {
			switch {
			case errors.Is(err, refund.ErrPaymentNotRefundable),
				errors.Is(err, refund.ErrExceedsRefundable),
				errors.Is(err, refund.ErrInvalidAmount):
				c.JSON(http.StatusBadRequest, response.Error(response.CodeBadRequest, err.Error()))
			default:
				c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			}
			return
		}
		c.JSON(http.StatusCreated, r)
	}
}

// @Summary      List refunds
// @Tags         Refunds
// @Produce      json
// @Param        limit query int false "Page size"
// @Param        offset query int false "Page offset"
// @Success      200  {object}  response.List[models.Refund]
// @Router       /api/v1/payments/refunds [get]
func ListRefunds(svc RefundService) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := middleware.MerchantFrom(c)
		limit, offset := pagination(c)
		refunds, total, err := svc.List(c.Request.Context(), m.ID, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}
		c.JSON(http.StatusOK, response.NewList(refunds, total, limit, offset))
	}
}

// @Summary      Get refund
// @Tags         Refunds
// @Produce      json
// @Param        id path string true "Refund ID"
// @Success      200  {object}  models.Refund
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/v1/payments/refunds/{id} [get]
func GetRefund(svc RefundService) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := middleware.MerchantFrom(c)
		r, err := svc.Get(c.Request.Context(), m.ID, c.Param("id"))
		if err != nil {
			if errors.Is(err, refund.ErrRefundNotFound) {
				c.JSON(http.StatusNotFound, response.Error(response.CodeNotFound, "refund not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

func RegisterRefundRoutes(authed gin.IRouter, svc RefundService) {
	authed.POST("/payments/:id/refunds", CreateRefund(svc))
	authed.GET("/payments/refunds", ListRefunds(svc))
	authed.GET("/payments/refunds/:id", GetRefund(svc))
}
