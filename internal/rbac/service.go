package rbac

import (
	"context"
	"fmt"
)

// Repository loads permission assignments.
type Repository interface {
	// EffectivePermissions returns the distinct permission names granted to the
	// user through its roles, or shared.ErrNotFound when the user does not exist.
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}

// Service resolves callers.
type Service struct {
	repo Repository
}

// NewService constructs a Service backed by the provided repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve computes the caller for userID.
func (s *Service) Resolve(ctx context.Context, userID int64) (Caller, error) {
	names, err := s.repo.EffectivePermissions(ctx, userID)
	if err != nil {
		return Caller{}, fmt.Errorf("rbac: resolve user %d: %w", userID, err)
	}
	return NewCaller(userID, names), nil
}

// EffectivePermissions returns the permission map of userID.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) (map[string]bool, error) {
	caller, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return caller.Permissions(), nil
}
