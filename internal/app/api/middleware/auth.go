package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/pkg/response"
)

const merchantKey = "merchant"

// APIKeyAuth authenticates requests by X-Api-Key / X-Api-Secret headers and
// stores the merchant in gin.Context. Unauthenticated requests get the
// gateway error envelope with a 401.
func APIKeyAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Api-Key")
		secret := c.GetHeader("X-Api-Secret")
		if key == "" || secret == "" {
			abortUnauthorized(c)
			return
		}

		var m models.Merchant
		err := db.WithContext(c.Request.Context()).Where("api_key = ?", key).First(&m).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abortUnauthorized(c)
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				response.Error(response.CodeServer, "internal error"))
			return
		}
		if subtle.ConstantTimeCompare([]byte(m.APISecret), []byte(secret)) != 1 {
			abortUnauthorized(c)
			return
		}

		c.Set(merchantKey, &m)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		response.Error(response.CodeAuthentication, "invalid api credentials"))
}

// MerchantFrom returns the authenticated merchant placed by APIKeyAuth.
func MerchantFrom(c *gin.Context) *models.Merchant {
	v, ok := c.Get(merchantKey)
	if !ok {
		return nil
	}
	m, _ := v.(*models.Merchant)
	return m
}
