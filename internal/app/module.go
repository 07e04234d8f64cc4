package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/payflow/gateway/internal/app/api/server"
	"github.com/payflow/gateway/internal/app/service/idempotency"
	"github.com/payflow/gateway/internal/app/service/order"
	"github.com/payflow/gateway/internal/app/service/payment"
	"github.com/payflow/gateway/internal/app/service/refund"
	"github.com/payflow/gateway/internal/app/service/statistics"
	"github.com/payflow/gateway/internal/app/service/webhook"
	"github.com/payflow/gateway/internal/app/worker"
	"github.com/payflow/gateway/internal/platform/db"
	"github.com/payflow/gateway/internal/platform/queue"
	"github.com/payflow/gateway/pkg/config"
	"github.com/payflow/gateway/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

// services shared by the API and worker binaries.
var coreModule = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	queue.Module,
	idempotency.Module,
	order.Module,
	payment.Module,
	refund.Module,
	webhook.Module,
	statistics.Module,
)

// APIModule assembles the HTTP server, optionally with an embedded worker
// pool for single-process dev setups.
var APIModule = fx.Options(
	coreModule,
	server.Module,
	worker.EmbeddedModule,
)

// WorkerModule assembles the standalone queue consumer.
var WorkerModule = fx.Options(
	coreModule,
	worker.Module,
)
