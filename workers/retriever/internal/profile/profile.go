// Package profile loads saved searches so scheduled runs do not have to
// repeat long flag lists.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
)

// Profile is a saved search. Every field is optional; command-line flags
// take precedence over whatever is set here.
//
//	catalog: https://scihub.copernicus.eu/dhus
//	user: alice
//	product_type: GRD
//	aoi: {lon1: -95, lat1: 55, lon2: -60, lat2: 80}
//	time_file: PRODUCT/.last_time_stamp
//	download: product
type Profile struct {
	Catalog     string `yaml:"catalog"`
	User        string `yaml:"user"`
	Mission     string `yaml:"mission"`
	Instrument  string `yaml:"instrument"`
	ProductType string `yaml:"product_type"`

	AOI *domain.AreaOfInterest `yaml:"aoi"`

	TimeSince     int    `yaml:"time_since"`
	TimeFile      string `yaml:"time_file"`
	IngestionFrom string `yaml:"ingestion_from"`
	IngestionTo   string `yaml:"ingestion_to"`
	SensingFrom   string `yaml:"sensing_from"`
	SensingTo     string `yaml:"sensing_to"`

	TileStep float64 `yaml:"tile_step"`
	Download string  `yaml:"download"`
	Output   string  `yaml:"output"`
}

// Load reads a profile from path. Unknown keys are rejected so that a typo
// does not silently widen a search.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a YAML profile. An empty document yields an empty profile.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &p, nil
}

// Criteria converts the profile's filters into search criteria.
func (p *Profile) Criteria() domain.SearchCriteria {
	return domain.SearchCriteria{
		Mission:        p.Mission,
		Instrument:     p.Instrument,
		ProductType:    p.ProductType,
		IngestionFrom:  p.IngestionFrom,
		IngestionTo:    p.IngestionTo,
		IngestionHours: p.TimeSince,
		SensingFrom:    p.SensingFrom,
		SensingTo:      p.SensingTo,
		AOI:            p.AOI,
		WatermarkPath:  p.TimeFile,
	}
}
