package facility

import (
	"context"
	"errors"
	"time"
)

// ParkingLot is a parking facility owned by an organization.
type ParkingLot struct {
	ID               string    `json:"id"`
	OrganizationID   string    `json:"organization_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Address          string    `json:"address,omitempty"`
	Capacity         int       `json:"capacity"`
	CurrentOccupancy int       `json:"current_occupancy"`
	Picture          string    `json:"picture,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Validate checks parking lot invariants.
func (l ParkingLot) Validate() error {
	if l.ID == "" {
		return errors.New("parking lot: empty id")
	}
	if l.Name == "" {
		return errors.New("parking lot: empty name")
	}
	if l.Capacity < 0 {
		return errors.New("parking lot: negative capacity")
	}
	if l.CurrentOccupancy < 0 {
		return errors.New("parking lot: negative occupancy")
	}
	return nil
}

// OccupancyRate returns current occupancy over capacity, 0 when capacity is unknown.
func (l ParkingLot) OccupancyRate() float64 {
	if l.Capacity <= 0 {
		return 0
	}
	return float64(l.CurrentOccupancy) / float64(l.Capacity)
}

// LotRepository reads parking lots.
type LotRepository interface {
	Get(ctx context.Context, id string) (*ParkingLot, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]ParkingLot, error)
}
