package account

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"classtrack/internal/treestore"
	"classtrack/internal/validate"
)

// Service owns registration, login and profile reads/writes against the
// account collections.
type Service struct {
	store treestore.Store
}

// NewService creates a service on a tree store.
func NewService(store treestore.Store) *Service {
	return &Service{store: store}
}

// Register validates the profile, hashes the password and writes the
// record at its collection path. Validation happens before any store call.
func (s *Service) Register(ctx context.Context, na NewAccount) (Account, error) {
	fieldErrs := validate.Required(map[string]string{
		"firstName": na.FirstName,
		"lastName":  na.LastName,
		"id":        na.ID,
		"email":     na.Email,
		"password":  na.Password,
		"institute": na.Institute,
	})
	if len(fieldErrs) > 0 {
		return Account{}, validate.NewError("all fields must be filled out", fieldErrs...)
	}
	if !validate.Email(na.Email) {
		return Account{}, validate.NewError("", validate.FieldError{Field: "email", Error: "invalid email address"})
	}
	if !validate.Password(na.Password) {
		return Account{}, ErrWeakPassword
	}
	if na.Password != na.ConfirmPassword {
		return Account{}, validate.NewError("", validate.FieldError{Field: "confirmPassword", Error: "passwords do not match"})
	}

	if _, err := s.store.Get(ctx, PathFor(na.Role, na.ID)); err == nil {
		return Account{}, ErrIDExists
	} else if !errors.Is(err, treestore.ErrNotFound) {
		return Account{}, err
	}
	taken, err := s.emailTaken(ctx, na.Role, na.Email)
	if err != nil {
		return Account{}, err
	}
	if taken {
		return Account{}, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(na.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}
	acct := Account{
		FirstName:    na.FirstName,
		LastName:     na.LastName,
		ID:           na.ID,
		Email:        na.Email,
		PasswordHash: string(hash),
		Institute:    na.Institute,
		Role:         na.Role,
	}
	if err := s.store.Set(ctx, PathFor(na.Role, na.ID), acct); err != nil {
		return Account{}, err
	}
	return acct.Public(), nil
}

// Login looks the id up in its collection and compares the password hash.
func (s *Service) Login(ctx context.Context, role Role, id, password string) (Account, error) {
	acct, err := s.get(ctx, role, id)
	if err != nil {
		return Account{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return Account{}, ErrBadCredential
	}
	return acct.Public(), nil
}

// Get returns the public profile at the given id.
func (s *Service) Get(ctx context.Context, role Role, id string) (Account, error) {
	acct, err := s.get(ctx, role, id)
	if err != nil {
		return Account{}, err
	}
	return acct.Public(), nil
}

// ProfileUpdate carries the editable profile fields; nil-equivalent empty
// strings are left untouched.
type ProfileUpdate struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Institute string `json:"institute"`
	AvatarURL string `json:"avatarUrl"`
}

// UpdateProfile field-merges the editable fields into the stored record.
// Accounts are never deleted; the id key is immutable. An email change is
// held to the same duplicate check as registration.
func (s *Service) UpdateProfile(ctx context.Context, role Role, id string, upd ProfileUpdate) (Account, error) {
	current, err := s.get(ctx, role, id)
	if err != nil {
		return Account{}, err
	}
	fields := map[string]any{}
	if upd.FirstName != "" {
		fields["firstName"] = upd.FirstName
	}
	if upd.LastName != "" {
		fields["lastName"] = upd.LastName
	}
	if upd.Email != "" {
		if !validate.Email(upd.Email) {
			return Account{}, validate.NewError("", validate.FieldError{Field: "email", Error: "invalid email address"})
		}
		if !strings.EqualFold(upd.Email, current.Email) {
			taken, err := s.emailTaken(ctx, role, upd.Email)
			if err != nil {
				return Account{}, err
			}
			if taken {
				return Account{}, ErrEmailExists
			}
		}
		fields["email"] = upd.Email
	}
	if upd.Institute != "" {
		fields["institute"] = upd.Institute
	}
	if upd.AvatarURL != "" {
		fields["avatarUrl"] = upd.AvatarURL
	}
	if len(fields) > 0 {
		if err := s.store.Update(ctx, PathFor(role, id), fields); err != nil {
			return Account{}, err
		}
	}
	return s.Get(ctx, role, id)
}

func (s *Service) get(ctx context.Context, role Role, id string) (Account, error) {
	raw, err := s.store.Get(ctx, PathFor(role, id))
	if errors.Is(err, treestore.ErrNotFound) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	var acct Account
	if err := json.Unmarshal(raw, &acct); err != nil {
		return Account{}, err
	}
	if acct.Role == "" {
		acct.Role = role
	}
	return acct, nil
}

// emailTaken scans the role's collection for the email. The collections are
// small enough that a subtree list is the honest equivalent of the legacy
// duplicate-email check.
func (s *Service) emailTaken(ctx context.Context, role Role, email string) (bool, error) {
	items, err := s.store.List(ctx, CollectionFor(role))
	if err != nil {
		return false, err
	}
	needle := strings.ToLower(email)
	for _, raw := range items {
		var acct Account
		if err := json.Unmarshal(raw, &acct); err != nil {
			continue
		}
		if strings.ToLower(acct.Email) == needle {
			return true, nil
		}
	}
	return false, nil
}
