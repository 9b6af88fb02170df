// Command dhusget searches a DHuS catalog for satellite products and
// downloads their manifests or full products.
//
//	dhusget https://scihub.copernicus.eu/dhus -u alice -p secret \
//		-T GRD -c -95,55,-60,80 -t 24 -d product -o /data/sentinel
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/UofM-CEOS/remote-sensing/shared/config"
	"github.com/UofM-CEOS/remote-sensing/shared/observability"
	"github.com/UofM-CEOS/remote-sensing/shared/observability/metrics"
	"github.com/UofM-CEOS/remote-sensing/shared/observability/types"
	"github.com/UofM-CEOS/remote-sensing/shared/storage"
	storagetypes "github.com/UofM-CEOS/remote-sensing/shared/storage/types"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/adapters/catalog"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/adapters/http"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/profile"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "dhusget [catalog-uri]",
		Short: "Search a DHuS catalog and download matching products",
		Long: `dhusget queries the OpenSearch API of a Data Hub Service (DHuS) catalog.
Large areas are split into tiles the catalog accepts, matches are listed in
qry_results, and manifests or products are downloaded into MANIFEST/ and
PRODUCT/ under the output directory. Files already present are skipped, so
a scheduled run with --time-file only fetches what is new.

Settings not exposed as flags (retries, concurrency, storage backend, ...)
come from the environment or .env files.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       config.DefaultVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}
	opts.register(cmd.Flags())

	return cmd
}

func run(cmd *cobra.Command, args []string, opts *options) error {
	var prof *profile.Profile
	if opts.profile != "" {
		var err error
		if prof, err = profile.Load(opts.profile); err != nil {
			return err
		}
	}

	req, err := opts.request(cmd.Flags(), args, prof)
	if err != nil {
		return err
	}

	cfg, err := loadConfiguration(cmd, opts, prof)
	if err != nil {
		return err
	}
	if req.Username == "" {
		req.Username = cfg.Catalog.User
	}
	if req.Password == "" {
		req.Password = cfg.Catalog.Password
	}

	obs, err := initializeObservability(cfg)
	if err != nil {
		return err
	}
	defer obs.Close()
	defer writeMetrics(cmd.Context(), cfg, obs.Logger("main"))

	store, err := initializeStorage(cfg, obs)
	if err != nil {
		return err
	}
	defer storage.GetProvider().Close()

	httpClient := http.NewClient(cfg.HTTP, obs.Logger("client.http"))
	catalogClient := catalog.NewOpenSearchClient(catalog.Config{
		BaseURI:     req.CatalogURI,
		Credentials: req.Credentials(),
		PageSize:    cfg.Catalog.PageSize,
	}, httpClient, obs.Logger("client.catalog"), obs.Metrics("client.catalog"))

	worker := usecase.NewRetrieverWorker(catalogClient, httpClient, store, cfg, obs)

	summary, err := worker.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), summary.Message())
	return nil
}

// loadConfiguration reads the environment and applies the flags that
// override configuration values.
func loadConfiguration(cmd *cobra.Command, opts *options, prof *profile.Profile) (*config.Config, error) {
	cfgProvider := config.GetProvider()
	if err := cfgProvider.Load(); err != nil {
		return nil, err
	}
	base, err := cfgProvider.Get()
	if err != nil {
		return nil, err
	}

	cfg := *base
	step := opts.tileStepOr(cmd.Flags(), prof, domain.TileStep{X: cfg.Tiling.StepX, Y: cfg.Tiling.StepY})
	cfg.Tiling.StepX, cfg.Tiling.StepY = step.X, step.Y
	cfg.Download.OutputDir = opts.outputOr(cmd.Flags(), prof, cfg.Download.OutputDir)
	cfg.Version = cmd.Version

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func initializeObservability(cfg *config.Config) (*observability.DefaultProvider, error) {
	obs, err := observability.NewProvider(&observability.Config{
		ServiceName:    cfg.ServiceName,
		Environment:    cfg.Environment,
		LogLevel:       cfg.LogLevel,
		LogFormat:      cfg.LogFormat,
		TracingEnabled: cfg.Observability.TracingEnabled,
		AdditionalFields: types.Fields{
			"version": cfg.Version,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	obs.Logger("main").Debug(context.Background(), "starting", types.Fields{
		"environment": cfg.Environment,
		"storage":     cfg.GetStorageProvider(),
		"output":      cfg.Download.OutputDir,
	})
	return obs, nil
}

func initializeStorage(cfg *config.Config, obs types.Provider) (storagetypes.ObjectStorage, error) {
	provider := storage.GetProvider()
	if err := provider.Initialize(cfg, obs.Logger("storage"), obs.Metrics("storage")); err != nil {
		return nil, err
	}
	return provider.GetStorage()
}

// writeMetrics dumps the registry for the node-exporter textfile collector.
func writeMetrics(ctx context.Context, cfg *config.Config, logger types.Logger) {
	path := cfg.Observability.MetricsTextfile
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path, nil); err != nil {
		logger.Error(ctx, "failed to write metrics", err, types.Fields{"path": path})
	}
}
