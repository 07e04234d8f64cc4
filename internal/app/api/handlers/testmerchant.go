package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/payflow/gateway/internal/app/api/middleware"
	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/pkg/response"
)

type testMerchantResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	APIKey     string `json:"api_key"`
	WebhookURL string `json:"webhook_url"`
}

type updateMerchantRequest struct {
	WebhookURL *string `json:"webhook_url" binding:"required"`
}

func merchantView(m *models.Merchant) testMerchantResponse {
	return testMerchantResponse{
		ID:         m.ID,
		Name:       m.Name,
		Email:      m.Email,
		APIKey:     m.APIKey,
		WebhookURL: m.WebhookURL,
	}
}

// @Summary      Get authenticated merchant
// @Description  Returns the calling merchant's profile including the API key. Intended for integration testing.
// @Tags         Test
// @Produce      json
// @Success      200  {object}  handlers.testMerchantResponse
// @Router       /api/v1/test/merchant [get]
func GetTestMerchant() gin.HandlerFunc {
	return func(c *gin.Context) {
		m := middleware.MerchantFrom(c)
		c.JSON(http.StatusOK, merchantView(m))
	}
}

// @Summary      Update merchant webhook URL
// @Tags         Test
// @Accept       json
// @Produce      json
// @Param        request body handlers.updateMerchantRequest true "Fields to update"
// @Success      200  {object}  handlers.testMerchantResponse
// @Failure      400  {object}  response.ErrorBody
// @Router       /api/v1/test/merchant [patch]
func UpdateTestMerchant(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := middleware.MerchantFrom(c)
		var req updateMerchantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(response.CodeBadRequest, err.Error()))
			return
		}

		err := db.WithContext(c.Request.Context()).
			Model(&models.Merchant{}).
			Where("id = ?", m.ID).
			Update("webhook_url", *req.WebhookURL).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}
		m.WebhookURL = *req.WebhookURL
		c.JSON(http.StatusOK, merchantView(m))
	}
}

func RegisterTestMerchantRoutes(authed gin.IRouter, db *gorm.DB) {
	authed.GET("/test/merchant", GetTestMerchant())
	authed.PATCH("/test/merchant", UpdateTestMerchant(db))
}
