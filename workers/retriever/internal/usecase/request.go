package usecase

import "github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"

// RetrieveRequest is one run: where to search, as whom, for what, and which
// artifacts to fetch. An empty Kind only lists the matches.
type RetrieveRequest struct {
	CatalogURI string `validate:"required,url"`
	Username   string `validate:"required"`
	Password   string `validate:"required"`

	Criteria domain.SearchCriteria
	Kind     domain.ArtifactKind `validate:"omitempty,oneof=manifest product all"`
}

// Credentials returns the basic-auth pair of the request.
func (r RetrieveRequest) Credentials() domain.Credentials {
	return domain.Credentials{Username: r.Username, Password: r.Password}
}
