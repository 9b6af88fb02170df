// Command lambda runs scheduled retrievals on AWS Lambda. Artifacts should
// go to S3 (STORAGE_PROVIDER=s3); credentials come from DHUS_USER and
// DHUS_PASSWORD unless the event names a user.
package main

import (
	"context"
	"log"

	"github.com/UofM-CEOS/remote-sensing/shared/config"
	"github.com/UofM-CEOS/remote-sensing/shared/observability"
	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
	"github.com/UofM-CEOS/remote-sensing/shared/storage"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/adapters/catalog"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/adapters/http"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/handler"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/usecase"
)

func main() {
	cfg := loadConfiguration()

	obs, err := observability.NewProvider(&observability.Config{
		ServiceName:    cfg.ServiceName,
		Environment:    cfg.Environment,
		LogLevel:       cfg.LogLevel,
		LogFormat:      "json",
		TracingEnabled: cfg.Observability.TracingEnabled,
		AdditionalFields: types.Fields{
			"version": cfg.Version,
		},
	})
	if err != nil {
		log.Fatalf("Failed to initialize observability: %v", err)
	}

	storageProvider := storage.GetProvider()
	storageProvider.MustInitialize(cfg, obs.Logger("storage"), obs.Metrics("storage"))
	store := storageProvider.MustGetStorage()

	httpClient := http.NewClient(cfg.HTTP, obs.Logger("client.http"))

	factory := func(req usecase.RetrieveRequest, step domain.TileStep) handler.Runner {
		runCfg := *cfg
		if step.X > 0 && step.Y > 0 {
			runCfg.Tiling.StepX, runCfg.Tiling.StepY = step.X, step.Y
		}
		catalogClient := catalog.NewOpenSearchClient(catalog.Config{
			BaseURI:     req.CatalogURI,
			Credentials: req.Credentials(),
			PageSize:    runCfg.Catalog.PageSize,
		}, httpClient, obs.Logger("client.catalog"), obs.Metrics("client.catalog"))
		return usecase.NewRetrieverWorker(catalogClient, httpClient, store, &runCfg, obs)
	}

	obs.Logger("main").Info(context.Background(), "starting lambda runtime", types.Fields{
		"storage": cfg.GetStorageProvider(),
	})

	handler.NewLambdaAdapter(factory, handler.LambdaConfig{
		Credentials: domain.Credentials{
			Username: cfg.Catalog.User,
			Password: cfg.Catalog.Password,
		},
	}, obs.Logger("handler.lambda")).Start()
}

func loadConfiguration() *config.Config {
	cfgProvider := config.GetProvider()
	cfgProvider.MustLoad()
	return cfgProvider.MustGet()
}
