package service

import (
	"path"
	"strings"

	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
)

// Storage keys of the run's marker files.
const (
	ResultsKey       = "qry_results"
	TimestampFile    = ".last_time_stamp"
	FailureLogFile   = ".failed_md5"
	manifestSuffix   = "_manifest_safe"
	checksumEndpoint = "Checksum/Value/$value"
)

// ArtifactPathService maps products to catalog URIs and storage keys.
type ArtifactPathService struct{}

func NewArtifactPathService() *ArtifactPathService {
	return &ArtifactPathService{}
}

// FileName is the local name of an artifact and its idempotence key.
func (s *ArtifactPathService) FileName(kind domain.ArtifactKind, title string) string {
	if kind == domain.KindManifest {
		return title + manifestSuffix
	}
	return title
}

// ArtifactKey is the storage key of an artifact inside its kind directory.
func (s *ArtifactPathService) ArtifactKey(kind domain.ArtifactKind, title string) string {
	return path.Join(kind.Dir(), s.FileName(kind, title))
}

// TimestampKey is the storage key of the kind's completion marker.
func (s *ArtifactPathService) TimestampKey(kind domain.ArtifactKind) string {
	return path.Join(kind.Dir(), TimestampFile)
}

// FailureLogKey is the storage key of the kind's checksum failure log.
func (s *ArtifactPathService) FailureLogKey(kind domain.ArtifactKind) string {
	return path.Join(kind.Dir(), FailureLogFile)
}

// ArtifactURI builds the download URI of an artifact from the product root.
func (s *ArtifactPathService) ArtifactURI(kind domain.ArtifactKind, p domain.ProductEntry) string {
	root := RootURI(p.RootURI)
	if kind == domain.KindManifest {
		return root + "Nodes('" + p.Title + ".SAFE')/Nodes('manifest.safe')/$value"
	}
	return root + "$value"
}

// ChecksumURI builds the URI of the catalog's MD5 for a product.
func (s *ArtifactPathService) ChecksumURI(p domain.ProductEntry) string {
	return RootURI(p.RootURI) + checksumEndpoint
}

// RootURI returns uri with exactly one trailing slash.
func RootURI(uri string) string {
	return strings.TrimRight(uri, "/") + "/"
}
