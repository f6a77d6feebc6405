package partner

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by tests and the memory backend.
type MemoryRepository struct {
	mu       sync.RWMutex
	partners map[uuid.UUID]Partner
	lanes    map[laneKey]Serviceability
}

type laneKey struct {
	partnerID   uuid.UUID
	origin      string
	destination string
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		partners: make(map[uuid.UUID]Partner),
		lanes:    make(map[laneKey]Serviceability),
	}
}

func (r *MemoryRepository) CreatePartner(_ context.Context, p *Partner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	r.partners[p.ID] = *p
	return nil
}

func (r *MemoryRepository) GetPartnerByID(_ context.Context, id string) (*Partner, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.partners[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) GetPartnerByCode(_ context.Context, code string) (*Partner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.partners {
		if p.Code == code {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) ListPartners(_ context.Context) ([]*Partner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Partner, 0, len(r.partners))
	for _, p := range r.partners {
		p := p
		out = append(out, &p)
	}
	slices.SortFunc(out, func(a, b *Partner) int { return cmp.Compare(a.Code, b.Code) })
	return out, nil
}

func (r *MemoryRepository) UpdateReliability(_ context.Context, id string, reliability float64) error {
	return r.update(id, func(p *Partner) { p.Reliability = reliability })
}

func (r *MemoryRepository) SetActive(_ context.Context, id string, active bool) error {
	return r.update(id, func(p *Partner) { p.IsActive = active })
}

func (r *MemoryRepository) update(id string, fn func(*Partner)) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.partners[uid]
	if !ok {
		return ErrNotFound
	}
	fn(&p)
	p.UpdatedAt = time.Now().UTC()
	r.partners[uid] = p
	return nil
}

func (r *MemoryRepository) UpsertServiceability(_ context.Context, s *Serviceability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	r.lanes[laneKey{s.PartnerID, s.OriginPostalCode, s.DestinationPostalCode}] = *s
	return nil
}

func (r *MemoryRepository) ListCandidates(_ context.Context, originPostal, destinationPostal string) ([]Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Candidate
	for k, s := range r.lanes {
		s := s
		if k.origin != originPostal || k.destination != destinationPostal {
			continue
		}
		p, ok := r.partners[k.partnerID]
		if !ok {
			continue
		}
		out = append(out, Candidate{Partner: &p, Serviceability: &s})
	}
	slices.SortFunc(out, func(a, b Candidate) int { return cmp.Compare(a.Partner.Code, b.Partner.Code) })
	return out, nil
}
