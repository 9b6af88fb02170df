package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
)

// MaxTiles bounds the number of rings, and so of catalog queries, per AOI.
const MaxTiles = 100_000

// Tile splits aoi into rings no larger than step on either axis.
//
// An AOI that fits one step yields a single ring over the full rectangle.
// Otherwise the AOI is sampled on a uniform grid of
// ceil(extent/step)+2 points per axis, first and last samples pinned to the
// AOI edges, and one ring is emitted per grid cell. Rings are ordered by
// column (longitude) first. Neighbouring rings reuse the same grid values,
// so shared edges are bit-identical.
func Tile(aoi domain.AreaOfInterest, step domain.TileStep) ([]domain.PolygonRing, error) {
	if err := aoi.Validate(); err != nil {
		return nil, err
	}
	if !(step.X > 0) || !(step.Y > 0) || math.IsInf(step.X, 0) || math.IsInf(step.Y, 0) {
		return nil, ErrTileStep(step)
	}

	width, height := aoi.Width(), aoi.Height()
	if width <= step.X && height <= step.Y {
		return []domain.PolygonRing{ring(aoi.Lon1, aoi.Lat1, aoi.Lon2, aoi.Lat2)}, nil
	}

	// Counted in float64 so a tiny step cannot overflow the conversion.
	cols, rows := math.Ceil(width/step.X)+1, math.Ceil(height/step.Y)+1
	if cols*rows > MaxTiles {
		return nil, fmt.Errorf("%w: step (%g, %g) gives %.0f tiles, limit is %d",
			domain.ErrTooManyTiles, step.X, step.Y, cols*rows, MaxTiles)
	}

	xs := linspace(aoi.Lon1, aoi.Lon2, int(cols)+1)
	ys := linspace(aoi.Lat1, aoi.Lat2, int(rows)+1)

	rings := make([]domain.PolygonRing, 0, (len(xs)-1)*(len(ys)-1))
	for i := 0; i < len(xs)-1; i++ {
		for j := 0; j < len(ys)-1; j++ {
			rings = append(rings, ring(xs[i], ys[j], xs[i+1], ys[j+1]))
		}
	}
	return rings, nil
}

// ErrTileStep wraps ErrInvalidTileStep with the offending value.
func ErrTileStep(step domain.TileStep) error {
	return fmt.Errorf("%w: got (%g, %g)", domain.ErrInvalidTileStep, step.X, step.Y)
}

// FootprintClause renders the catalog's polygon-intersection predicate for
// one ring, with 13 decimals per coordinate.
func FootprintClause(r domain.PolygonRing) string {
	vertices := make([]string, len(r))
	for i, p := range r {
		vertices[i] = fmt.Sprintf("%.13f %.13f", p.Lon, p.Lat)
	}
	return `(footprint:"Intersects(POLYGON((` + strings.Join(vertices, ", ") + `)))")`
}

func ring(lon1, lat1, lon2, lat2 float64) domain.PolygonRing {
	return domain.PolygonRing{
		{Lon: lon1, Lat: lat1},
		{Lon: lon2, Lat: lat1},
		{Lon: lon2, Lat: lat2},
		{Lon: lon1, Lat: lat2},
		{Lon: lon1, Lat: lat1},
	}
}

// linspace returns n evenly spaced samples over [lo, hi]; n >= 2.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	span := hi - lo
	for k := 0; k < n-1; k++ {
		out[k] = lo + span*float64(k)/float64(n-1)
	}
	out[n-1] = hi
	return out
}
