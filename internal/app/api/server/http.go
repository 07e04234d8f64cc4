package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/payflow/gateway/docs"
	"github.com/payflow/gateway/internal/app/api/handlers"
	mw "github.com/payflow/gateway/internal/app/api/middleware"
	"github.com/payflow/gateway/internal/app/service/order"
	"github.com/payflow/gateway/internal/app/service/payment"
	"github.com/payflow/gateway/internal/app/service/refund"
	"github.com/payflow/gateway/internal/app/service/statistics"
	"github.com/payflow/gateway/internal/app/service/webhook"
	"github.com/payflow/gateway/internal/platform/queue"
	cfgpkg "github.com/payflow/gateway/pkg/config"
	metrics "github.com/payflow/gateway/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Tracing only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

type routeDeps struct {
	fx.In

	Engine   *gin.Engine
	Log      *zap.SugaredLogger
	Cfg      *cfgpkg.Config
	DB       *gorm.DB
	Queue    queue.Queue
	Orders   *order.Service
	Payments *payment.Service
	Refunds  *refund.Service
	Webhooks *webhook.Service
	Stats    *statistics.Service
}

func registerRoutes(d routeDeps) {
	r := d.Engine

	// Prometheus metrics on its own listener
	if d.Cfg != nil && d.Cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: d.Log,
		})
		p.SetListenAddress(d.Cfg.MetricsAddr)
		p.Use(r)

		d.Log.Infow("metrics started", "addr", d.Cfg.MetricsAddr)
	}

	// Public group: request logger + access log, no merchant auth
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware())
	pub.GET("/health", handlers.Health(d.DB, d.Queue))
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1Pub := r.Group("/api/v1")
	apiV1Pub.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware())
	handlers.RegisterAuthRoutes(apiV1Pub, d.DB, d.Cfg)

	// Merchant-authenticated group
	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware(), mw.APIKeyAuth(d.DB))

	handlers.RegisterOrderRoutes(apiV1, apiV1Pub, d.Orders)
	handlers.RegisterPaymentRoutes(apiV1, apiV1Pub, d.Payments, d.Stats)
	handlers.RegisterRefundRoutes(apiV1, d.Refunds)
	handlers.RegisterWebhookRoutes(apiV1, d.Webhooks, d.Queue)
	handlers.RegisterJobRoutes(apiV1, d.Queue)
	handlers.RegisterTestMerchantRoutes(apiV1, d.DB)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
