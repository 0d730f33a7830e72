package app

import (
	"github.com/carousell/ct-go/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/nguyentranbao-ct/product-concierge/internal/config"
	"github.com/nguyentranbao-ct/product-concierge/internal/kafka"
	"github.com/nguyentranbao-ct/product-concierge/internal/repo/vtex"
	"github.com/nguyentranbao-ct/product-concierge/internal/repo/weni"
	"github.com/nguyentranbao-ct/product-concierge/internal/server"
)

func Invoke(funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	conf := config.MustLoad()
	log.Debugw("config loaded", log.Reflect("config", conf))
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Unwrap().Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			newMongoDB,
			newFlowSessionRepository,
			newSearchActivityRepository,
			newCryptoClient,
			newActivityRecorder,

			vtex.NewClient,
			weni.NewClient,

			newRegistry,
			newStockEvaluator,
			newConcierge,
			asHTTPSearcher,
			asEventSearcher,
			asProductFinder,
			newHistoryReader,

			server.NewController,
			kafka.NewEventHandler,
			newKafkaConsumer,
		),
		fx.Supply(conf),
		fx.Invoke(funcs...),
	)
}
