package account

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"classtrack/internal/treestore"
	"classtrack/internal/validate"
)

func validInput() NewAccount {
	return NewAccount{
		FirstName:       "Juan",
		LastName:        "Dela Cruz",
		ID:              "2021-00123",
		Email:           "juan@university.edu.ph",
		Password:        "abcdefg1",
		ConfirmPassword: "abcdefg1",
		Institute:       "ICS",
		Role:            RoleStudent,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewService(treestore.NewMemory())

	acct, err := svc.Register(ctx, validInput())
	assert.NoError(t, err)
	assert.Equal(t, "2021-00123", acct.ID)
	assert.Empty(t, acct.PasswordHash, "hash must not leave the service")

	got, err := svc.Login(ctx, RoleStudent, "2021-00123", "abcdefg1")
	assert.NoError(t, err)
	assert.Equal(t, "juan@university.edu.ph", got.Email)
	assert.Empty(t, got.PasswordHash)
}

func TestRegisterStoresHashNotPlaintext(t *testing.T) {
	ctx := context.Background()
	store := treestore.NewMemory()
	svc := NewService(store)

	_, err := svc.Register(ctx, validInput())
	assert.NoError(t, err)

	raw, err := store.Get(ctx, "students/2021-00123")
	assert.NoError(t, err)
	var stored Account
	assert.NoError(t, json.Unmarshal(raw, &stored))
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "abcdefg1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("abcdefg1")))
}

func TestRegisterPasswordPolicy(t *testing.T) {
	ctx := context.Background()
	for _, password := range []string{"abc", "abcdefgh", "1234567"} {
		svc := NewService(treestore.NewMemory())
		in := validInput()
		in.Password = password
		in.ConfirmPassword = password
		_, err := svc.Register(ctx, in)
		assert.ErrorIs(t, err, ErrWeakPassword, "password %q", password)
	}
}

func TestRegisterConfirmMismatch(t *testing.T) {
	svc := NewService(treestore.NewMemory())
	in := validInput()
	in.ConfirmPassword = "abcdefg2"

	_, err := svc.Register(context.Background(), in)
	var vErr *validate.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestRegisterMissingFieldsWriteNothing(t *testing.T) {
	ctx := context.Background()
	store := treestore.NewMemory()
	svc := NewService(store)

	in := validInput()
	in.LastName = ""
	_, err := svc.Register(ctx, in)
	var vErr *validate.ValidationError
	assert.True(t, errors.As(err, &vErr))

	items, err := store.List(ctx, "students")
	assert.NoError(t, err)
	assert.Empty(t, items)
}

func TestRegisterBadEmail(t *testing.T) {
	for _, email := range []string{"a@b", "not-an-email"} {
		svc := NewService(treestore.NewMemory())
		in := validInput()
		in.Email = email
		_, err := svc.Register(context.Background(), in)
		var vErr *validate.ValidationError
		assert.True(t, errors.As(err, &vErr), "email %q", email)
	}
}

func TestRegisterDuplicateID(t *testing.T) {
	ctx := context.Background()
	svc := NewService(treestore.NewMemory())

	_, err := svc.Register(ctx, validInput())
	assert.NoError(t, err)

	dup := validInput()
	dup.Email = "other@university.edu.ph"
	_, err = svc.Register(ctx, dup)
	assert.ErrorIs(t, err, ErrIDExists)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewService(treestore.NewMemory())

	_, err := svc.Register(ctx, validInput())
	assert.NoError(t, err)

	dup := validInput()
	dup.ID = "2021-00456"
	dup.Email = "JUAN@university.edu.ph" // case-insensitive match
	_, err = svc.Register(ctx, dup)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRolesAreSeparateNamespaces(t *testing.T) {
	ctx := context.Background()
	svc := NewService(treestore.NewMemory())

	_, err := svc.Register(ctx, validInput())
	assert.NoError(t, err)

	in := validInput()
	in.Role = RoleInstructor
	_, err = svc.Register(ctx, in)
	assert.NoError(t, err, "same id and email may exist under the other role")

	_, err = svc.Login(ctx, RoleInstructor, in.ID, "abcdefg1")
	assert.NoError(t, err)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc := NewService(treestore.NewMemory())

	_, err := svc.Register(ctx, validInput())
	assert.NoError(t, err)

	_, err = svc.Login(ctx, RoleStudent, "2021-00123", "wrongpass1")
	assert.ErrorIs(t, err, ErrBadCredential)

	_, err = svc.Login(ctx, RoleStudent, "2021-99999", "abcdefg1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := NewService(treestore.NewMemory())

	_, err := svc.Register(ctx, validInput())
	assert.NoError(t, err)

	acct, err := svc.UpdateProfile(ctx, RoleStudent, "2021-00123", ProfileUpdate{
		FirstName: "Juanito",
		AvatarURL: "https://cdn.example/avatars/abc.jpg",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Juanito", acct.FirstName)
	assert.Equal(t, "Dela Cruz", acct.LastName, "untouched fields survive the merge")
	assert.Equal(t, "https://cdn.example/avatars/abc.jpg", acct.AvatarURL)

	// the stored hash survives the merge too
	got, err := svc.Login(ctx, RoleStudent, "2021-00123", "abcdefg1")
	assert.NoError(t, err)
	assert.Equal(t, "Juanito", got.FirstName)
}

func TestUpdateProfileBadEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewService(treestore.NewMemory())

	_, err := svc.Register(ctx, validInput())
	assert.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, RoleStudent, "2021-00123", ProfileUpdate{Email: "a@b"})
	var vErr *validate.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestUpdateProfileDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewService(treestore.NewMemory())

	_, err := svc.Register(ctx, validInput())
	assert.NoError(t, err)

	other := validInput()
	other.ID = "2021-00456"
	other.Email = "maria@university.edu.ph"
	_, err = svc.Register(ctx, other)
	assert.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, RoleStudent, "2021-00456", ProfileUpdate{Email: "juan@university.edu.ph"})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = svc.UpdateProfile(ctx, RoleStudent, "2021-00456", ProfileUpdate{Email: "JUAN@University.edu.ph"})
	assert.ErrorIs(t, err, ErrEmailExists, "the duplicate check ignores case")

	// re-submitting your own address is not a collision
	acct, err := svc.UpdateProfile(ctx, RoleStudent, "2021-00456", ProfileUpdate{Email: "Maria@university.edu.ph"})
	assert.NoError(t, err)
	assert.Equal(t, "Maria@university.edu.ph", acct.Email)
}

func TestUpdateProfileUnknownAccount(t *testing.T) {
	svc := NewService(treestore.NewMemory())

	_, err := svc.UpdateProfile(context.Background(), RoleStudent, "nope", ProfileUpdate{FirstName: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("student")
	assert.True(t, ok)
	assert.Equal(t, RoleStudent, role)

	role, ok = ParseRole("instructors")
	assert.True(t, ok)
	assert.Equal(t, RoleInstructor, role)

	_, ok = ParseRole("admin")
	assert.False(t, ok)
}
