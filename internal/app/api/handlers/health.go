package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/payflow/gateway/internal/platform/queue"
)

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Queue    string `json:"queue"`
	Worker   string `json:"worker"`
}

// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  handlers.healthResponse
// @Failure      503  {object}  handlers.healthResponse
// @Router       /health [get]
func Health(db *gorm.DB, q queue.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := healthResponse{Status: "ok", Database: "ok", Queue: "ok", Worker: "stopped"}

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
		}

		stats, err := q.Stats(c.Request.Context())
		if err != nil {
			resp.Status = "degraded"
			resp.Queue = "unreachable"
		} else if stats.WorkerAlive {
			resp.Worker = "running"
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}
