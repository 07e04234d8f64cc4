package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/payflow/gateway/internal/app/api/middleware"
	"github.com/payflow/gateway/internal/app/service/order"
	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/pkg/response"
)

// OrderService is the slice of order.Service the handlers use.
type OrderService interface {
	Create(ctx context.Context, merchantID string, req *order.CreateRequest) (*models.Order, error)
	Get(ctx context.Context, merchantID, orderID string) (*models.Order, error)
	GetPublic(ctx context.Context, orderID string) (*models.Order, error)
	List(ctx context.Context, merchantID string) ([]*models.Order, error)
}

// @Summary      Create order
// @Description  Creates an order to collect a payment against.
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Param        request body order.CreateRequest true "Order details"
// @Success      201  {object}  models.Order
// @Failure      400  {object}  response.ErrorBody
// @Router       /api/v1/orders [post]
func CreateOrder(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := middleware.MerchantFrom(c)
		var req order.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(response.CodeBadRequest, err.Error()))
			return
		}

		o, err := svc.Create(c.Request.Context(), m.ID, &req)
		if err != nil {
			if errors.Is(err, order.ErrAmountTooSmall) {
				c.JSON(http.StatusBadRequest, response.Error(response.CodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

// @Summary      List orders
// @Tags         Orders
// @Produce      json
// @Success      200  {array}  models.Order
// @Router       /api/v1/orders [get]
func ListOrders(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := middleware.MerchantFrom(c)
		orders, err := svc.List(c.Request.Context(), m.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// @Summary      Get order
// @Tags         Orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200  {object}  models.Order
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/v1/orders/{id} [get]
func GetOrder(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := middleware.MerchantFrom(c)
		o, err := svc.Get(c.Request.Context(), m.ID, c.Param("id"))
		if err != nil {
			if errors.Is(err, order.ErrOrderNotFound) {
				c.JSON(http.StatusNotFound, response.Error(response.CodeNotFound, "order not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary      Get order for checkout page
// @Description  Unauthenticated order lookup used by the hosted checkout page.
// @Tags         Orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200  {object}  models.Order
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/v1/orders/{id}/public [get]
func GetOrderPublic(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.GetPublic(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, order.ErrOrderNotFound) {
				c.JSON(http.StatusNotFound, response.Error(response.CodeNotFound, "order not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}
		// checkout page only needs the charge basics
		c.JSON(http.StatusOK, publicOrderView{
			ID:       o.ID,
			Amount:   o.Amount,
			Currency: o.Currency,
			Status:   string(o.Status),
		})
	}
}

type publicOrderView struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func RegisterOrderRoutes(authed gin.IRouter, public gin.IRouter, svc OrderService) {
	authed.POST("/orders", CreateOrder(svc))
	authed.GET("/orders", ListOrders(svc))
	authed.GET("/orders/:id", GetOrder(svc))
	public.GET("/orders/:id/public", GetOrderPublic(svc))
}
