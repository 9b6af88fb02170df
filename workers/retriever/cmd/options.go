package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/profile"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/usecase"
)

// options mirrors the command-line flags.
type options struct {
	user        string
	password    string
	mission     string
	instrument  string
	productType string
	coordinates []float64
	timeSince   int
	timeFile    string

	ingestionFrom string
	ingestionTo   string
	sensingFrom   string
	sensingTo     string

	tileStep float64
	download string
	output   string
	profile  string
}

func (o *options) register(flags *pflag.FlagSet) {
	flags.StringVarP(&o.user, "user", "u", "", "catalog user name (default $DHUS_USER)")
	flags.StringVarP(&o.password, "password", "p", "", "catalog password (default $DHUS_PASSWORD)")
	flags.StringVarP(&o.mission, "mission", "m", "", "mission name, e.g. Sentinel-1")
	flags.StringVarP(&o.instrument, "instrument", "i", "", "instrument short name, e.g. SAR-C SAR")
	flags.StringVarP(&o.productType, "product", "T", "", "product type to search: SLC, GRD, OCN, S2MSI1C, ...")
	flags.Float64SliceVarP(&o.coordinates, "coordinates", "c", nil,
		"lon1,lat1,lon2,lat2: lower-left and upper-right corners of the area to search")
	flags.IntVarP(&o.timeSince, "time-since", "t", 0, "products ingested in the last HOURS")
	flags.StringVarP(&o.timeFile, "time-file", "f", "",
		"products ingested since the time stamp in FILE; relative paths are read from the output storage (e.g. PRODUCT/.last_time_stamp)")
	flags.StringVar(&o.ingestionFrom, "ingestion-from", "", "lower ingestion date bound (RFC 3339 or NOW-...)")
	flags.StringVar(&o.ingestionTo, "ingestion-to", "", "upper ingestion date bound (RFC 3339 or NOW-...)")
	flags.StringVar(&o.sensingFrom, "sensing-from", "", "lower sensing start bound (RFC 3339 or NOW-...)")
	flags.StringVar(&o.sensingTo, "sensing-to", "", "upper sensing start bound (RFC 3339 or NOW-...)")
	flags.Float64VarP(&o.tileStep, "tile-step", "s", 0, "maximum polygon side length in degrees (default from TILE_STEP_X/Y)")
	flags.StringVarP(&o.download, "download", "d", "", "download manifest, product or all; list only when unset")
	flags.StringVarP(&o.output, "output", "o", "", "output directory (default from DOWNLOAD_OUTPUT_DIR)")
	flags.StringVar(&o.profile, "profile", "", "YAML file with a saved search; flags override it")
}

// request merges the flags over the profile. A flag wins only when it was
// set explicitly.
func (o *options) request(flags *pflag.FlagSet, args []string, p *profile.Profile) (usecase.RetrieveRequest, error) {
	if p == nil {
		p = &profile.Profile{}
	}

	pick := func(flag, value, fallback string) string {
		if flags.Changed(flag) {
			return value
		}
		return fallback
	}

	catalogURI := p.Catalog
	if len(args) > 0 {
		catalogURI = args[0]
	}

	criteria := p.Criteria()
	criteria.Mission = pick("mission", o.mission, criteria.Mission)
	criteria.Instrument = pick("instrument", o.instrument, criteria.Instrument)
	criteria.ProductType = pick("product", o.productType, criteria.ProductType)
	criteria.WatermarkPath = pick("time-file", o.timeFile, criteria.WatermarkPath)
	criteria.IngestionFrom = pick("ingestion-from", o.ingestionFrom, criteria.IngestionFrom)
	criteria.IngestionTo = pick("ingestion-to", o.ingestionTo, criteria.IngestionTo)
	criteria.SensingFrom = pick("sensing-from", o.sensingFrom, criteria.SensingFrom)
	criteria.SensingTo = pick("sensing-to", o.sensingTo, criteria.SensingTo)
	if flags.Changed("time-since") {
		criteria.IngestionHours = o.timeSince
	}

	if flags.Changed("coordinates") {
		if len(o.coordinates) != 4 {
			return usecase.RetrieveRequest{}, fmt.Errorf("--coordinates needs 4 values (lon1,lat1,lon2,lat2), got %d", len(o.coordinates))
		}
		criteria.AOI = &domain.AreaOfInterest{
			Lon1: o.coordinates[0],
			Lat1: o.coordinates[1],
			Lon2: o.coordinates[2],
			Lat2: o.coordinates[3],
		}
	}

	kind, err := domain.ParseArtifactKind(pick("download", o.download, p.Download))
	if err != nil {
		return usecase.RetrieveRequest{}, err
	}

	return usecase.RetrieveRequest{
		CatalogURI: catalogURI,
		Username:   pick("user", o.user, p.User),
		Password:   o.password,
		Criteria:   criteria,
		Kind:       kind,
	}, nil
}

// tileStepOr returns the flag or profile tile step, or fallback when neither is set.
func (o *options) tileStepOr(flags *pflag.FlagSet, p *profile.Profile, fallback domain.TileStep) domain.TileStep {
	switch {
	case flags.Changed("tile-step"):
		return domain.UniformStep(o.tileStep)
	case p != nil && p.TileStep != 0:
		return domain.UniformStep(p.TileStep)
	}
	return fallback
}

// outputOr returns the flag or profile output directory, or fallback.
func (o *options) outputOr(flags *pflag.FlagSet, p *profile.Profile, fallback string) string {
	switch {
	case flags.Changed("output"):
		return o.output
	case p != nil && p.Output != "":
		return p.Output
	}
	return fallback
}
