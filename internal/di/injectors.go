//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"qrd/internal"
	"qrd/internal/controllers"
	"qrd/internal/ledger"
	"qrd/internal/persistence"
	"qrd/internal/providers"
	"qrd/internal/qr"
	"qrd/internal/registry"
	"qrd/internal/services"
	"qrd/internal/store"
	"qrd/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewStoreProvider,
		providers.NewSnapshotterProvider,
		providers.NewInstrumentedCacheProvider,
		providers.NewMetricsProvider,

		wire.Bind(new(store.RecordStore), new(store.Store)),
		wire.Bind(new(store.ScanEventStore), new(store.Store)),
		wire.Bind(new(providers.LedgerStats), new(*ledger.ScanLedger)),

		qr.NewTemplateProvider,
		qr.NewQualityScorer,
		qr.NewEncoder,
		qr.NewDecoder,
		qr.NewDedupResolver,
		ledger.NewScanLedger,
		ledger.NewAggregator,
		registry.NewClient,

		persistence.NewZstdCompressor,
		persistence.NewFileManager,
		persistence.NewScheduler,

		services.NewQRService,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
