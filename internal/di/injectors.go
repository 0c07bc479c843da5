//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"wikistats/internal"
	"wikistats/internal/controllers"
	"wikistats/internal/providers"
	"wikistats/internal/services"
	"wikistats/internal/snapshot"
	"wikistats/internal/structures"
	"wikistats/internal/wikipedia"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		wikipedia.NewClient,
		wikipedia.NewDiskCache,
		wikipedia.NewFetcher,

		snapshot.NewZstdCompressor,
		snapshot.NewWriter,
		snapshot.NewScheduler,

		services.NewRevisionService,
		services.NewGenerationService,

		controllers.NewRevisionController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
