package users

import (
	"strings"

	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

// CreateInput is the create payload. SelectedRoles holds role names.
type CreateInput struct {
	Name                 string   `json:"name" validate:"required,min=3,max=255"`
	Email                string   `json:"email" validate:"required,email,max=255"`
	Password             string   `json:"password" validate:"required,min=4,eqfield=PasswordConfirmation"`
	PasswordConfirmation string   `json:"password_confirmation"`
	SelectedRoles        []string `json:"selectedRoles" validate:"required,min=1,dive,required"`
}

func (in CreateInput) normalized() CreateInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.SelectedRoles = trimAll(in.SelectedRoles)
	return in
}

// UpdateInput is the update payload. Passwords cannot be changed here.
type UpdateInput struct {
	Name          string   `json:"name" validate:"required,min=3,max=255"`
	Email         string   `json:"email" validate:"required,email,max=255"`
	SelectedRoles []string `json:"selectedRoles" validate:"required,min=1,dive,required"`
}

func (in UpdateInput) normalized() UpdateInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.SelectedRoles = trimAll(in.SelectedRoles)
	return in
}

// ProfileInput is the payload of a self-service profile update.
type ProfileInput struct {
	Name  string `json:"name" validate:"required,min=3,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

func (in ProfileInput) normalized() ProfileInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	return in
}

// DeleteAccountInput confirms a self-service account deletion.
type DeleteAccountInput struct {
	Password string `json:"password" validate:"required"`
}

// ListResult is the index payload.
type ListResult struct {
	Users   shared.Page[User]    `json:"users"`
	Filters shared.EchoedFilters `json:"filters"`
}

// CreateForm lists the assignable roles.
type CreateForm struct {
	Roles []RoleRef `json:"roles"`
}

// EditForm carries the user with its current roles and the assignable set.
type EditForm struct {
	User  User      `json:"user"`
	Roles []RoleRef `json:"roles"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimAll(names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = strings.TrimSpace(name)
	}
	return out
}
