package memory

import (
	"context"
	"sort"
	"sync"

	facility "parking-analytics/internal/facility/domain"
)

// LotRepository is an in-memory lot store for demo/testing.
type LotRepository struct {
	mu   sync.RWMutex
	lots map[string]facility.ParkingLot
}

// NewLotRepository constructs a repository.
func NewLotRepository(lots ...facility.ParkingLot) *LotRepository {
	repo := &LotRepository{lots: make(map[string]facility.ParkingLot, len(lots))}
	for _, lot := range lots {
		repo.lots[lot.ID] = lot
	}
	return repo
}

// Save stores a lot after validating it.
func (r *LotRepository) Save(ctx context.Context, lot facility.ParkingLot) error {
	_ = ctx
	if err := lot.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lots[lot.ID] = lot
	return nil
}

// Get loads a lot by id. A missing lot returns nil without error.
func (r *LotRepository) Get(ctx context.Context, id string) (*facility.ParkingLot, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	lot, ok := r.lots[id]
	if !ok {
		return nil, nil
	}
	return &lot, nil
}

// ListByOrganization returns the lots of an organization sorted by name.
// An empty organization id lists every lot.
func (r *LotRepository) ListByOrganization(ctx context.Context, organizationID string) ([]facility.ParkingLot, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]facility.ParkingLot, 0, len(r.lots))
	for _, lot := range r.lots {
		if organizationID != "" && lot.OrganizationID != organizationID {
			continue
		}
		result = append(result, lot)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return result[i].ID < result[j].ID
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}
