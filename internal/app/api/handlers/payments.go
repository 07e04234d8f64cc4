package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/payflow/gateway/internal/app/api/middleware"
	"github.com/payflow/gateway/internal/app/service/payment"
	"github.com/payflow/gateway/internal/app/service/statistics"
	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/pkg/response"
)

// PaymentService is the slice of payment.Service the handlers use.
type PaymentService interface {
	Create(ctx context.Context, merchant *models.Merchant, req *payment.CreateRequest, idemKey string) (json.RawMessage, error)
	CreatePublic(ctx context.Context, req *payment.CreateRequest) (*models.Payment, error)
	Capture(ctx context.Context, merchantID, paymentID string) (*models.Payment, error)
	Get(ctx context.Context, merchantID, paymentID string) (*models.Payment, error)
	List(ctx context.Context, merchantID string) ([]*models.Payment, error)
}

// StatisticsService computes merchant payment statistics.
type StatisticsService interface {
	ForMerchant(ctx context.Context, merchantID string) (*statistics.MerchantStats, error)
}

func paymentCreateStatus(err error) (int, response.ErrorCode) {
	switch {
	case errors.Is(err, payment.ErrOrderNotFound):
		return http.StatusNotFound, response.CodeNotFound
	case errors.Is(err, payment.ErrInvalidVPA),
		errors.Is(err, payment.ErrInvalidCard),
		errors.Is(err, payment.ErrUnsupportedMethod):
		return http.StatusBadRequest, response.CodeBadRequest
	default:
		return http.StatusInternalServerError, response.CodeServer
	}
}

// @Summary      Create payment
// @Description  Creates a pending payment against an order and schedules settlement. Replays the stored response when the Idempotency-Key was seen before.
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Idempotency key"
// @Param        request body payment.CreateRequest true "Payment details"
// @Success      201  {object}  payment.CreateResponse
// @Failure      400  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/v1/payments [post]
func CreatePayment(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := middleware.MerchantFrom(c)
		var req payment.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(response.CodeBadRequest, err.Error()))
			return
		}

		body, err := svc.Create(c.Request.Context(), m, &req, c.GetHeader("Idempotency-Key"))
		if err != nil {
			status, code := paymentCreateStatus(err)
			desc := err.Error()
			if code == response.CodeServer {
				desc = "internal error"
			}
			c.JSON(status, response.Error(code, desc))
			return
		}
		c.Data(http.StatusCreated, "application/json", body)
	}
}

// @Summary      Create payment from checkout page
// @Description  Unauthenticated payment creation used by the hosted checkout page; the merchant is derived from the order.
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        request body payment.CreateRequest true "Payment details"
// @Success      201  {object}  models.Payment
// @Failure      400  {object}  response.ErrorBody
// @Router       /api/v1/payments/public [post]
func CreatePaymentPublic(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(response.CodeBadRequest, err.Error()))
			return
		}

		p, err := svc.CreatePublic(c.Request.Context(), &req)
		if err != nil {
			status, code := paymentCreateStatus(err)
			desc := err.Error()
			if code == response.CodeServer {
				desc = "internal error"
			}
			c.JSON(status, response.Error(code, desc))
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// @Summary      List payments
// @Tags         Payments
// @Produce      json
// @Success      200  {array}  models.Payment
// @Router       /api/v1/payments [get]
func ListPayments(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := middleware.MerchantFrom(c)
		payments, err := svc.List(c.Request.Context(), m.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}

// @Summary      Get payment
// @Tags         Payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200  {object}  models.Payment
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/v1/payments/{id} [get]
func GetPayment(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := middleware.MerchantFrom(c)
		p, err := svc.Get(c.Request.Context(), m.ID, c.Param("id"))
		if err != nil {
			if errors.Is(err, payment.ErrPaymentNotFound) {
				c.JSON(http.StatusNotFound, response.Error(response.CodeNotFound, "payment not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary      Capture payment
// @Description  Marks a successful payment as captured.
// @Tags         Payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200  {object}  models.Payment
// @Failure      400  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/v1/payments/{id}/capture [post]
func CapturePayment(svc PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := middleware.MerchantFrom(c)
		p, err := svc.Capture(c.Request.Context(), m.ID, c.Param("id"))
		if err != nil {
			switch {
			case errors.Is(err, payment.ErrPaymentNotFound):
				c.JSON(http.StatusNotFound, response.Error(response.CodeNotFound, "payment not found"))
			case errors.Is(err, payment.ErrNotCapturable):
				c.JSON(http.StatusBadRequest, response.Error(response.CodeBadRequest, "payment is not in a capturable state"))
			default:
				c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			}
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary      Merchant payment statistics
// @Tags         Payments
// @Produce      json
// @Success      200  {object}  statistics.MerchantStats
// @Router       /api/v1/payments/stats [get]
func PaymentStats(svc StatisticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := middleware.MerchantFrom(c)
		stats, err := svc.ForMerchant(c.Request.Context(), m.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func RegisterPaymentRoutes(authed gin.IRouter, public gin.IRouter, svc PaymentService, stats StatisticsService) {
	authed.POST("/payments", CreatePayment(svc))
	authed.GET("/payments", ListPayments(svc))
	authed.GET("/payments/stats", PaymentStats(stats))
	authed.GET("/payments/:id", GetPayment(svc))
	authed.POST("/payments/:id/capture", CapturePayment(svc))
	public.POST("/payments/public", CreatePaymentPublic(svc))
}
