package users

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-admin/internal/rbac"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

const (
	emailTakenMessage      = "The email has already been taken."
	invalidSelectedMessage = "The selected selectedRoles is invalid."
)

// Service implements the user screens. Every action checks the caller's
// capability before reading or writing the store.
type Service struct {
	repo       Repository
	bcryptCost int
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func (s *Service) WithBcryptCost(cost int) *Service {
	s.bcryptCost = cost
	return s
}

// List returns one page of users with their roles, newest first.
func (s *Service) List(ctx context.Context, caller rbac.Caller, filters shared.ListFilters) (ListResult, error) {
	if err := caller.Require(rbac.UsersIndex); err != nil {
		return ListResult{}, err
	}
	rows, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Users:   shared.NewPage(rows, filters.Pagination(total)),
		Filters: filters.Echo(),
	}, nil
}

// CreateForm returns every role, newest first.
func (s *Service) CreateForm(ctx context.Context, caller rbac.Caller) (CreateForm, error) {
	if err := caller.Require(rbac.UsersCreate); err != nil {
		return CreateForm{}, err
	}
	roles, err := s.repo.AllRoles(ctx)
	if err != nil {
		return CreateForm{}, err
	}
	return CreateForm{Roles: roles}, nil
}

// Create stores a user with a hashed password and assigns the selected roles
// in one transaction.
func (s *Service) Create(ctx context.Context, caller rbac.Caller, in CreateInput) (User, error) {
	if err := caller.Require(rbac.UsersCreate); err != nil {
		return User{}, err
	}
	in = in.normalized()
	if err := shared.ValidateStruct(in); err != nil {
		return User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("users: hash password: %w", err)
	}
	var created User
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := checkEmail(ctx, repo, in.Email, 0); err != nil {
			return err
		}
		ids, err := resolveRoles(ctx, repo, in.SelectedRoles)
		if err != nil {
			return err
		}
		user, err := repo.Create(ctx, NewUser{Name: in.Name, Email: in.Email, PasswordHash: string(hash)})
		if err != nil {
			return duplicateAsValidation(err)
		}
		if err := repo.SyncRoles(ctx, user.ID, ids); err != nil {
			return err
		}
		created, err = repo.Get(ctx, user.ID)
		return err
	})
	if err != nil {
		return User{}, err
	}
	return created, nil
}

// EditForm returns the user with its roles and the assignable roles. The
// super-admin role is never offered.
func (s *Service) EditForm(ctx context.Context, caller rbac.Caller, id int64) (EditForm, error) {
	if err := caller.Require(rbac.UsersEdit); err != nil {
		return EditForm{}, err
	}
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return EditForm{}, err
	}
	all, err := s.repo.AllRoles(ctx)
	if err != nil {
		return EditForm{}, err
	}
	roles := make([]RoleRef, 0, len(all))
	for _, role := range all {
		if role.Name == rbac.SuperAdminRole {
			continue
		}
		roles = append(roles, role)
	}
	return EditForm{User: user, Roles: roles}, nil
}

// Update replaces name, email and role set atomically. Changing the email
// clears its verification.
func (s *Service) Update(ctx context.Context, caller rbac.Caller, id int64, in UpdateInput) (User, error) {
	if err := caller.Require(rbac.UsersEdit); err != nil {
		return User{}, err
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	in = in.normalized()
	if err := shared.ValidateStruct(in); err != nil {
		return User{}, err
	}
	var updated User
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := checkEmail(ctx, repo, in.Email, id); err != nil {
			return err
		}
		ids, err := resolveRoles(ctx, repo, in.SelectedRoles)
		if err != nil {
			return err
		}
		change := ProfileChange{Name: in.Name, Email: in.Email, ResetVerification: in.Email != current.Email}
		if err := repo.UpdateProfile(ctx, id, change); err != nil {
			return duplicateAsValidation(err)
		}
		if err := repo.SyncRoles(ctx, id, ids); err != nil {
			return err
		}
		updated, err = repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return User{}, err
	}
	return updated, nil
}

// Delete removes a user together with its role assignments.
func (s *Service) Delete(ctx context.Context, caller rbac.Caller, id int64) error {
	if err := caller.Require(rbac.UsersDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func checkEmail(ctx context.Context, repo Repository, email string, exceptID int64) error {
	taken, err := repo.EmailTaken(ctx, email, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return shared.NewValidationError("email", emailTakenMessage)
	}
	return nil
}

func resolveRoles(ctx context.Context, repo Repository, names []string) ([]int64, error) {
	known, err := repo.RoleIDs(ctx, names)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(names))
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, ok := known[name]
		if !ok {
			return nil, shared.NewValidationError("selectedRoles", invalidSelectedMessage)
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
		return shared.NewValidationError("email", emailTakenMessage)
	}
	return err
}
