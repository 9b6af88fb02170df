package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAreaOfInterest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		aoi     AreaOfInterest
		wantErr bool
	}{
		{"ordered", AreaOfInterest{0, 0, 25, 5}, false},
		{"degenerate point", AreaOfInterest{3, 3, 3, 3}, false},
		{"reversed lon", AreaOfInterest{10, 0, 5, 10}, true},
		{"reversed lat", AreaOfInterest{0, 10, 5, 0}, true},
		{"NaN corner", AreaOfInterest{0, 0, math.NaN(), 5}, true},
		{"infinite corner", AreaOfInterest{math.Inf(-1), 0, 5, 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.aoi.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var areaErr *InvalidAreaError
			require.True(t, errors.As(err, &areaErr))
			assert.Equal(t, fmt.Sprint(tt.aoi), fmt.Sprint(areaErr.Area))
		})
	}
}

func TestSearchCriteria_IsEmpty(t *testing.T) {
	assert.True(t, SearchCriteria{}.IsEmpty())
	assert.False(t, SearchCriteria{IngestionHours: 24}.IsEmpty())
	assert.False(t, SearchCriteria{AOI: &AreaOfInterest{}}.IsEmpty())
	assert.False(t, SearchCriteria{WatermarkPath: "x"}.IsEmpty())
}

func TestProductEntry_String(t *testing.T) {
	p := ProductEntry{Title: "S1A_X", RootURI: "https://hub/odata/v1/Products('u1')/", UUID: "u1"}
	assert.Equal(t, "S1A_X u1 https://hub/odata/v1/Products('u1')/", p.String())
}

func TestParseArtifactKind(t *testing.T) {
	for in, want := range map[string]ArtifactKind{"": "", "manifest": KindManifest, "PRODUCT": KindProduct, "all": KindAll} {
		got, err := ParseArtifactKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseArtifactKind("quicklook")
	assert.Error(t, err)
}

func TestArtifactKind_Kinds(t *testing.T) {
	assert.Equal(t, []ArtifactKind{KindManifest, KindProduct}, KindAll.Kinds())
	assert.Equal(t, []ArtifactKind{KindProduct}, KindProduct.Kinds())
	assert.Nil(t, ArtifactKind("").Kinds())
	assert.Equal(t, "MANIFEST", KindManifest.Dir())
}

func TestDownloadReport_Count(t *testing.T) {
	r := DownloadReport{Outcomes: []DownloadOutcome{
		{Status: OutcomeSkipped}, {Status: OutcomeSucceeded}, {Status: OutcomeSkipped},
	}}
	assert.Equal(t, 2, r.Count(OutcomeSkipped))
	assert.Equal(t, 0, r.Count(OutcomeFailedChecksum))
}

func TestProductSet_Sorted(t *testing.T) {
	set := ProductSet{}
	set.Add(ProductEntry{Title: "S1B", UUID: "2", RootURI: "r2"})
	set.Add(ProductEntry{Title: "S1A", UUID: "1", RootURI: "r1"})
	set.Add(ProductEntry{Title: "S1B", UUID: "2", RootURI: "r2"})
	set.Add(ProductEntry{Title: "S1A", UUID: "0", RootURI: "r0"})

	assert.Len(t, set, 3)
	assert.Equal(t, []ProductEntry{
		{Title: "S1A", UUID: "0", RootURI: "r0"},
		{Title: "S1A", UUID: "1", RootURI: "r1"},
		{Title: "S1B", UUID: "2", RootURI: "r2"},
	}, set.Sorted())
}
