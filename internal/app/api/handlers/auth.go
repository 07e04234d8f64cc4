package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/pkg/config"
	"github.com/payflow/gateway/pkg/response"
)

type loginRequest struct {
	Email  string `json:"email" binding:"required"`
	APIKey string `json:"api_key" binding:"required"`
}

type loginResponse struct {
	Token    string           `json:"token"`
	Merchant *models.Merchant `json:"merchant"`
}

// @Summary      Merchant login
// @Description  Exchanges merchant email and API key for a dashboard JWT.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body handlers.loginRequest true "Login credentials"
// @Success      200  {object}  handlers.loginResponse
// @Failure      401  {object}  response.ErrorBody
// @Router       /api/v1/auth/login [post]
func Login(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(response.CodeBadRequest, err.Error()))
			return
		}

		var m models.Merchant
		err := db.WithContext(c.Request.Context()).
			Where("email = ? AND api_key = ?", req.Email, req.APIKey).
			First(&m).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusUnauthorized, response.Error(response.CodeAuthentication, "invalid credentials"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}

		now := time.Now()
		claims := jwt.RegisteredClaims{
			Subject:   m.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.Auth.TokenTTLMin) * time.Minute)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Auth.JWTSecret))
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.Error(response.CodeServer, "internal error"))
			return
		}

		c.JSON(http.StatusOK, loginResponse{Token: token, Merchant: &m})
	}
}

func RegisterAuthRoutes(r gin.IRouter, db *gorm.DB, cfg *config.Config) {
	r.POST("/auth/login", Login(db, cfg))
}
