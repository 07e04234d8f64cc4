package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/payflow/gateway/internal/app/api/middleware"
	"github.com/payflow/gateway/internal/app/service/webhook"
	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/internal/platform/queue"
	"github.com/payflow/gateway/pkg/response"
)

// WebhookService is the slice of webhook.Service the handlers use.
type WebhookService interface {
	ListLogs(ctx context.Context, merchantID string, limit, offset int) ([]*models.WebhookLog, int64, error)
	RetryRequest(ctx context.Context, merchantID, logID string) (*webhook.DeliveryJob, error)
}

// @Summary      List webhook deliveries
// @Tags         Webhooks
// @Produce      json
// @Param        limit query int false "Page size"
// @Param        offset query int false "Page offset"
// @Success      200  {object}  response.List[models.WebhookLog]
// @Router       /api/v1/payments/webhooks [get]
func ListWebhookLogs(svc WebhookService) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := middleware.MerchantFrom(c)
		limit, offset := pagination(c)
		logs, total, err := svc.ListLogs(c.Request.Context(), m.ID, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}
		c.JSON(http.StatusOK, response.NewList(logs, total, limit, offset))
	}
}

// @Summary      Retry webhook delivery
// @Description  Resets the delivery attempt counter and schedules a fresh delivery of the stored payload.
// @Tags         Webhooks
// @Produce      json
// @Param        id path string true "Webhook log ID"
// @Success      202  {object}  map[string]string
// @Failure      404  {object}  response.ErrorBody
// @Router       /api/v1/payments/webhooks/{id}/retry [post]
func RetryWebhook(svc WebhookService, q queue.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := middleware.MerchantFrom(c)
		job, err := svc.RetryRequest(c.Request.Context(), m.ID, c.Param("id"))
		if err != nil {
			if errors.Is(err, webhook.ErrLogNotFound) {
				c.JSON(http.StatusNotFound, response.Error(response.CodeNotFound, "webhook log not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}
		if err := q.Enqueue(c.Request.Context(), webhook.JobTypeDeliver, job, 0); err != nil {
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "scheduled"})
	}
}

func RegisterWebhookRoutes(authed gin.IRouter, svc WebhookService, q queue.Queue) {
	authed.GET("/payments/webhooks", ListWebhookLogs(svc))
	authed.POST("/payments/webhooks/:id/retry", RetryWebhook(svc, q))
}
