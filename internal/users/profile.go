package users

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

const wrongPasswordMessage = "The password is incorrect."

// ProfileService lets an authenticated user manage their own account. It needs
// no capability beyond being signed in.
type ProfileService struct {
	repo Repository
}

// NewProfileService builds ProfileService instance.
func NewProfileService(repo Repository) *ProfileService {
	return &ProfileService{repo: repo}
}

// Show returns the signed-in user.
func (s *ProfileService) Show(ctx context.Context, userID int64) (User, error) {
	return s.repo.Get(ctx, userID)
}

// Update changes the user's own name and email. A new email is unverified.
func (s *ProfileService) Update(ctx context.Context, userID int64, in ProfileInput) (User, error) {
	current, err := s.repo.Get(ctx, userID)
	if err != nil {
		return User{}, err
	}
	in = in.normalized()
	if err := shared.ValidateStruct(in); err != nil {
		return User{}, err
	}
	if err := checkEmail(ctx, s.repo, in.Email, userID); err != nil {
		return User{}, err
	}
	change := ProfileChange{Name: in.Name, Email: in.Email, ResetVerification: in.Email != current.Email}
	if err := s.repo.UpdateProfile(ctx, userID, change); err != nil {
		return User{}, duplicateAsValidation(err)
	}
	return s.repo.Get(ctx, userID)
}

// Delete removes the user's own account after confirming the current password.
func (s *ProfileService) Delete(ctx context.Context, userID int64, in DeleteAccountInput) error {
	if err := shared.ValidateStruct(in); err != nil {
		return err
	}
	hash, err := s.repo.PasswordHash(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(in.Password)) != nil {
		return shared.NewValidationError("password", wrongPasswordMessage)
	}
	return s.repo.Delete(ctx, userID)
}
