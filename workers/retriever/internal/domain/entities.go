package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Point is a (lon, lat) pair in degrees.
type Point struct {
	Lon float64
	Lat float64
}

// AreaOfInterest is a rectangle given by its lower-left (Lon1, Lat1) and
// upper-right (Lon2, Lat2) corners.
type AreaOfInterest struct {
	Lon1 float64 `yaml:"lon1" validate:"gte=-180,lte=180"`
	Lat1 float64 `yaml:"lat1" validate:"gte=-90,lte=90"`
	Lon2 float64 `yaml:"lon2" validate:"gte=-180,lte=180"`
	Lat2 float64 `yaml:"lat2" validate:"gte=-90,lte=90"`
}

// Width returns the longitudinal extent in degrees.
func (a AreaOfInterest) Width() float64 { return a.Lon2 - a.Lon1 }

// Height returns the latitudinal extent in degrees.
func (a AreaOfInterest) Height() float64 { return a.Lat2 - a.Lat1 }

// Validate reports corners that are not finite numbers or are given in the
// wrong order.
func (a AreaOfInterest) Validate() error {
	for _, v := range []float64{a.Lon1, a.Lat1, a.Lon2, a.Lat2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidAreaError{Area: a, Reason: "corners must be finite numbers"}
		}
	}

	switch {
	case a.Lon2 < a.Lon1:
		return &InvalidAreaError{Area: a, Reason: "lon2 is west of lon1"}
	case a.Lat2 < a.Lat1:
		return &InvalidAreaError{Area: a, Reason: "lat2 is south of lat1"}
	}
	return nil
}

// TileStep is the maximum side length of one catalog polygon, per axis.
type TileStep struct {
	X float64
	Y float64
}

// UniformStep returns a TileStep with the same length on both axes.
func UniformStep(s float64) TileStep {
	return TileStep{X: s, Y: s}
}

// PolygonRing is a closed ring of five vertices: LL, LR, UR, UL, LL.
type PolygonRing [5]Point

// SearchCriteria holds the optional filters of one catalog search.
// Time bounds are RFC 3339 timestamps or DHuS date-math tokens (NOW-1DAY).
type SearchCriteria struct {
	Mission     string
	Instrument  string
	ProductType string

	IngestionFrom  string
	IngestionTo    string
	IngestionHours int `validate:"gte=0"`

	SensingFrom string
	SensingTo   string

	AOI *AreaOfInterest

	// WatermarkPath points to the .last_time_stamp of a previous run.
	WatermarkPath string
}

// IsEmpty reports whether no filter at all was requested.
func (c SearchCriteria) IsEmpty() bool {
	return c.Mission == "" && c.Instrument == "" && c.ProductType == "" &&
		c.IngestionFrom == "" && c.IngestionTo == "" && c.IngestionHours == 0 &&
		c.SensingFrom == "" && c.SensingTo == "" &&
		c.AOI == nil && c.WatermarkPath == ""
}

// ProductEntry identifies one catalog item. It is comparable and used
// directly as a set key.
type ProductEntry struct {
	Title   string
	RootURI string
	UUID    string
}

// String renders the entry as "title uuid rootURI", the line format of the
// results file and the checksum failure log.
func (p ProductEntry) String() string {
	return strings.Join([]string{p.Title, p.UUID, p.RootURI}, " ")
}

// ProductSet is the deduplicated union of per-tile search results.
type ProductSet map[ProductEntry]struct{}

// Add inserts p; duplicates are absorbed.
func (s ProductSet) Add(p ProductEntry) {
	s[p] = struct{}{}
}

// Sorted returns the entries ordered by title, then UUID and root URI.
func (s ProductSet) Sorted() []ProductEntry {
	out := make([]ProductEntry, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		if a.UUID != b.UUID {
			return a.UUID < b.UUID
		}
		return a.RootURI < b.RootURI
	})
	return out
}

// Credentials are the opaque basic-auth pair for the catalog.
type Credentials struct {
	Username string
	Password string
}

// ArtifactKind selects what is downloaded for each product.
type ArtifactKind string

const (
	KindManifest ArtifactKind = "manifest"
	KindProduct  ArtifactKind = "product"
	KindAll      ArtifactKind = "all"
)

// ParseArtifactKind accepts "", manifest, product and all.
func ParseArtifactKind(s string) (ArtifactKind, error) {
	switch k := ArtifactKind(strings.ToLower(s)); k {
	case "", KindManifest, KindProduct, KindAll:
		return k, nil
	default:
		return "", fmt.Errorf("unknown download kind %q (want manifest, product or all)", s)
	}
}

// Kinds expands KindAll into its concrete kinds, manifests first.
func (k ArtifactKind) Kinds() []ArtifactKind {
	switch k {
	case KindAll:
		return []ArtifactKind{KindManifest, KindProduct}
	case KindManifest, KindProduct:
		return []ArtifactKind{k}
	default:
		return nil
	}
}

// Dir is the per-kind directory holding artifacts and marker files.
func (k ArtifactKind) Dir() string {
	return strings.ToUpper(string(k))
}

// OutcomeStatus is the result of one artifact download.
type OutcomeStatus string

const (
	OutcomeSkipped        OutcomeStatus = "skipped"
	OutcomeSucceeded      OutcomeStatus = "succeeded"
	OutcomeFailedChecksum OutcomeStatus = "failed_checksum"
	OutcomeFailedTransfer OutcomeStatus = "failed_transfer"
)

// DownloadOutcome records what happened to one product for one kind.
type DownloadOutcome struct {
	Product ProductEntry
	Kind    ArtifactKind
	Status  OutcomeStatus
	Key     string
	Bytes   int64
	Err     error
}

// DownloadReport summarises a download batch of one kind.
type DownloadReport struct {
	Kind          ArtifactKind
	Outcomes      []DownloadOutcome
	FailureLog    string
	TimestampFile string
	CompletedAt   time.Time
}

// Count returns the number of outcomes with the given status.
func (r DownloadReport) Count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
