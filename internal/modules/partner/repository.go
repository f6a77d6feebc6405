package partner

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a partner does not exist.
var ErrNotFound = errors.New("partner not found")

// Repository defines data access for partners and their lane rate cards.
type Repository interface {
	CreatePartner(ctx context.Context, p *Partner) error
	GetPartnerByID(ctx context.Context, id string) (*Partner, error)
	GetPartnerByCode(ctx context.Context, code string) (*Partner, error)
	ListPartners(ctx context.Context) ([]*Partner, error)
	UpdateReliability(ctx context.Context, id string, reliability float64) error
	SetActive(ctx context.Context, id string, active bool) error

	// UpsertServiceability replaces the rate card for (partner, origin, destination).
	UpsertServiceability(ctx context.Context, s *Serviceability) error
	// ListCandidates returns every partner with a rate card for the exact postal pair,
	// active or not. Filtering is the scorer's job.
	ListCandidates(ctx context.Context, originPostal, destinationPostal string) ([]Candidate, error)
}
