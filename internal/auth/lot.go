package auth

import (
	"context"

	facility "parking-analytics/internal/facility/domain"
)

// LotOrganizationChecker validates parking lot ownership.
type LotOrganizationChecker interface {
	EnsureLotOrganization(ctx context.Context, organizationID, lotID string) error
}

// LotChecker checks lot ownership against the lot repository.
type LotChecker struct {
	repo facility.LotRepository
}

// NewLotChecker constructs a LotChecker.
func NewLotChecker(repo facility.LotRepository) *LotChecker {
	if repo == nil {
		return nil
	}
	return &LotChecker{repo: repo}
}

// EnsureLotOrganization verifies the lot belongs to the organization.
func (c *LotChecker) EnsureLotOrganization(ctx context.Context, organizationID, lotID string) error {
	if c == nil || c.repo == nil {
		return nil
	}
	if organizationID == "" || lotID == "" {
		return nil
	}
	lot, err := c.repo.Get(ctx, lotID)
	if err != nil {
		return err
	}
	if lot == nil {
		return ErrNotFound
	}
	if lot.OrganizationID != organizationID {
		return ErrOrganizationMismatch
	}
	return nil
}
