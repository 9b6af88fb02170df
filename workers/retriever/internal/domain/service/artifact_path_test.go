package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
)

func TestArtifactPathService(t *testing.T) {
	s := NewArtifactPathService()
	p := domain.ProductEntry{
		Title:   "S1A_IW_GRDH_1SDV_20240101",
		UUID:    "8f1c",
		RootURI: "https://scihub.example/dhus/odata/v1/Products('8f1c')",
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"manifest file", s.FileName(domain.KindManifest, p.Title), "S1A_IW_GRDH_1SDV_20240101_manifest_safe"},
		{"product file", s.FileName(domain.KindProduct, p.Title), "S1A_IW_GRDH_1SDV_20240101"},
		{"manifest key", s.ArtifactKey(domain.KindManifest, p.Title), "MANIFEST/S1A_IW_GRDH_1SDV_20240101_manifest_safe"},
		{"product key", s.ArtifactKey(domain.KindProduct, p.Title), "PRODUCT/S1A_IW_GRDH_1SDV_20240101"},
		{"timestamp key", s.TimestampKey(domain.KindProduct), "PRODUCT/.last_time_stamp"},
		{"failure log key", s.FailureLogKey(domain.KindProduct), "PRODUCT/.failed_md5"},
		{
			"manifest uri",
			s.ArtifactURI(domain.KindManifest, p),
			"https://scihub.example/dhus/odata/v1/Products('8f1c')/Nodes('S1A_IW_GRDH_1SDV_20240101.SAFE')/Nodes('manifest.safe')/$value",
		},
		{"product uri", s.ArtifactURI(domain.KindProduct, p), "https://scihub.example/dhus/odata/v1/Products('8f1c')/$value"},
		{"checksum uri", s.ChecksumURI(p), "https://scihub.example/dhus/odata/v1/Products('8f1c')/Checksum/Value/$value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestRootURI(t *testing.T) {
	assert.Equal(t, "https://hub/p/", RootURI("https://hub/p"))
	assert.Equal(t, "https://hub/p/", RootURI("https://hub/p/"))
	assert.Equal(t, "https://hub/p/", RootURI("https://hub/p//"))
}
