//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/weatherwear/internal/bootstrap"
	"github.com/yanqian/weatherwear/internal/domain/outfit"
	"github.com/yanqian/weatherwear/internal/domain/weather"
	"github.com/yanqian/weatherwear/internal/infra/config"
	"github.com/yanqian/weatherwear/internal/infra/openmeteo"
	httpiface "github.com/yanqian/weatherwear/internal/interface/http"
	"github.com/yanqian/weatherwear/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideMetricsCollector,
		provideWeatherConfig,
		provideOutfitConfig,
		provideWeatherProvider,
		provideChatClient,
		provideGeoCache,
		provideRecommendationLog,
		weather.NewService,
		outfit.NewService,
		wire.Bind(new(weather.Provider), new(*openmeteo.Client)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
