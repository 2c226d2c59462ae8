package permissions

import (
	"context"
	"errors"

	"github.com/odyssey-erp/odyssey-admin/internal/rbac"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

const nameTakenMessage = "The name has already been taken."

// Service implements the permission screens. Every action checks the caller's
// capability before reading or writing the store.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns one page of permissions, newest first.
func (s *Service) List(ctx context.Context, caller rbac.Caller, filters shared.ListFilters) (ListResult, error) {
	if err := caller.Require(rbac.PermissionsIndex); err != nil {
		return ListResult{}, err
	}
	rows, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Permissions: shared.NewPage(listItems(rows), filters.Pagination(total)),
		Filters:     filters.Echo(),
	}, nil
}

// CreateForm authorizes the create screen.
func (s *Service) CreateForm(ctx context.Context, caller rbac.Caller) (CreateForm, error) {
	return CreateForm{}, caller.Require(rbac.PermissionsCreate)
}

// Create validates and stores a new permission.
func (s *Service) Create(ctx context.Context, caller rbac.Caller, in Input) (Permission, error) {
	if err := caller.Require(rbac.PermissionsCreate); err != nil {
		return Permission{}, err
	}
	in = in.normalized()
	if err := s.validate(ctx, in, 0); err != nil {
		return Permission{}, err
	}
	perm, err := s.repo.Create(ctx, in.Name, rbac.DefaultGuard)
	return perm, duplicateAsValidation(err)
}

// EditForm loads the permission being edited.
func (s *Service) EditForm(ctx context.Context, caller rbac.Caller, id int64) (EditForm, error) {
	if err := caller.Require(rbac.PermissionsEdit); err != nil {
		return EditForm{}, err
	}
	perm, err := s.repo.Get(ctx, id)
	if err != nil {
		return EditForm{}, err
	}
	return EditForm{Permission: perm}, nil
}

// Update renames a permission.
func (s *Service) Update(ctx context.Context, caller rbac.Caller, id int64, in Input) (Permission, error) {
	if err := caller.Require(rbac.PermissionsEdit); err != nil {
		return Permission{}, err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Permission{}, err
	}
	in = in.normalized()
	if err := s.validate(ctx, in, id); err != nil {
		return Permission{}, err
	}
	perm, err := s.repo.Update(ctx, id, in.Name)
	return perm, duplicateAsValidation(err)
}

// Delete removes a permission. Roles holding it lose it through the join table cascade.
func (s *Service) Delete(ctx context.Context, caller rbac.Caller, id int64) error {
	if err := caller.Require(rbac.PermissionsDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) validate(ctx context.Context, in Input, exceptID int64) error {
	if err := shared.ValidateStruct(in); err != nil {
		return err
	}
	taken, err := s.repo.NameTaken(ctx, in.Name, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return shared.NewValidationError("name", nameTakenMessage)
	}
	return nil
}

// duplicateAsValidation reports a unique index conflict lost to a concurrent
// writer the same way as the pre-check.
func duplicateAsValidation(err error) error {
	if errors.Is(err, shared.ErrDuplicate) {
		return shared.NewValidationError("name", nameTakenMessage)
	}
	return err
}
