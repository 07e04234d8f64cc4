package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/payflow/gateway/internal/platform/queue"
	"github.com/payflow/gateway/pkg/response"
)

type jobStatusResponse struct {
	Pending      int64  `json:"pending"`
	Processing   int64  `json:"processing"`
	Completed    int64  `json:"completed"`
	Failed       int64  `json:"failed"`
	WorkerStatus string `json:"worker_status"`
}

// @Summary      Job queue status
// @Description  Live queue depth and worker liveness. Completed and failed jobs are not retained and always report zero.
// @Tags         Test
// @Produce      json
// @Success      200  {object}  handlers.jobStatusResponse
// @Router       /api/v1/test/jobs/status [get]
func JobStatus(q queue.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := q.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}
		status := "stopped"
		if stats.WorkerAlive {
			status = "running"
		}
		c.JSON(http.StatusOK, jobStatusResponse{
			Pending:      stats.Pending,
			Processing:   stats.Processing,
			WorkerStatus: status,
		})
	}
}

func RegisterJobRoutes(authed gin.IRouter, q queue.Queue) {
	authed.GET("/test/jobs/status", JobStatus(q))
}
