package roles

import (
	"context"
	"errors"

	"github.com/odyssey-erp/odyssey-admin/internal/rbac"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

const (
	nameTakenMessage       = "The name has already been taken."
	invalidSelectedMessage = "The selected selectedPermissions is invalid."
)

// Service implements the role screens. Every action checks the caller's
// capability before reading or writing the store.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns one page of roles with their permissions, newest first.
func (s *Service) List(ctx context.Context, caller rbac.Caller, filters shared.ListFilters) (ListResult, error) {
	if err := caller.Require(rbac.RolesIndex); err != nil {
		return ListResult{}, err
	}
	rows, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Roles:   shared.NewPage(listItems(rows), filters.Pagination(total)),
		Filters: filters.Echo(),
	}, nil
}

// CreateForm returns the selectable permissions grouped by resource.
func (s *Service) CreateForm(ctx context.Context, caller rbac.Caller) (CreateForm, error) {
	if err := caller.Require(rbac.RolesCreate); err != nil {
		return CreateForm{}, err
	}
	perms, err := s.repo.AllPermissions(ctx)
	if err != nil {
		return CreateForm{}, err
	}
	return CreateForm{Permissions: GroupPermissions(perms)}, nil
}

// Create stores a role and assigns exactly the selected permissions in one transaction.
func (s *Service) Create(ctx context.Context, caller rbac.Caller, in Input) (Role, error) {
	if err := caller.Require(rbac.RolesCreate); err != nil {
		return Role{}, err
	}
	in = in.normalized()
	if err := shared.ValidateStruct(in); err != nil {
		return Role{}, err
	}
	var created Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := checkName(ctx, repo, in.Name, 0); err != nil {
			return err
		}
		ids, err := resolvePermissions(ctx, repo, in.SelectedPermissions)
		if err != nil {
			return err
		}
		role, err := repo.Create(ctx, in.Name, rbac.DefaultGuard)
		if err != nil {
			return duplicateAsValidation(err)
		}
		if err := repo.SyncPermissions(ctx, role.ID, ids); err != nil {
			return err
		}
		created, err = repo.Get(ctx, role.ID)
		return err
	})
	if err != nil {
		return Role{}, err
	}
	return created, nil
}

// EditForm returns the role with its current permissions and the selectable set.
func (s *Service) EditForm(ctx context.Context, caller rbac.Caller, id int64) (EditForm, error) {
	if err := caller.Require(rbac.RolesEdit); err != nil {
		return EditForm{}, err
	}
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return EditForm{}, err
	}
	perms, err := s.repo.AllPermissions(ctx)
	if err != nil {
		return EditForm{}, err
	}
	return EditForm{Role: role, Permissions: GroupPermissions(perms)}, nil
}

// Update renames the role and replaces its permission set. A failed sync
// leaves the old name in place.
func (s *Service) Update(ctx context.Context, caller rbac.Caller, id int64, in Input) (Role, error) {
	if err := caller.Require(rbac.RolesEdit); err != nil {
		return Role{}, err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return Role{}, err
	}
	in = in.normalized()
	if err := shared.ValidateStruct(in); err != nil {
		return Role{}, err
	}
	var updated Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := checkName(ctx, repo, in.Name, id); err != nil {
			return err
		}
		ids, err := resolvePermissions(ctx, repo, in.SelectedPermissions)
		if err != nil {
			return err
		}
		if err := repo.UpdateName(ctx, id, in.Name); err != nil {
			return duplicateAsValidation(err)
		}
		if err := repo.SyncPermissions(ctx, id, ids); err != nil {
			return err
		}
		updated, err = repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return Role{}, err
	}
	return updated, nil
}

// Delete removes a role. Users holding it lose it through the join table cascade.
func (s *Service) Delete(ctx context.Context, caller rbac.Caller, id int64) error {
	if err := caller.Require(rbac.RolesDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func checkName(ctx context.Context, repo Repository, name string, exceptID int64) error {
	taken, err := repo.NameTaken(ctx, name, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return shared.NewValidationError("name", nameTakenMessage)
	}
	return nil
}

// resolvePermissions maps selected names to ids, rejecting the whole selection
// when any name is unknown. Duplicates collapse.
func resolvePermissions(ctx context.Context, repo Repository, names []string) ([]int64, error) {
	known, err := repo.PermissionIDs(ctx, names)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(names))
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, ok := known[name]
		if !ok {
			return nil, shared.NewValidationError("selectedPermissions", invalidSelectedMessage)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func duplicateAsValidation(err error) error {
	if errors.Is(err, shared.ErrDuplicate) {
		return shared.NewValidationError("name", nameTakenMessage)
	}
	return err
}
