package account

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bettercommute/internal/types"
)

type stubDirectory struct {
	uid   types.ID
	err   error
	email string
}

func (s *stubDirectory) CreateUser(_ context.Context, email, _ string) (types.ID, error) {
	s.email = email
	return s.uid, s.err
}

func TestSignUp(t *testing.T) {
	dir := &stubDirectory{uid: "uid-1"}
	acc, err := NewService(dir, nil).SignUp(context.Background(), SignUpCommand{Email: " Rider@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, Account{UID: "uid-1", Email: "rider@example.com"}, acc)
	assert.Equal(t, "rider@example.com", dir.email)
}

func TestSignUp_Validation(t *testing.T) {
	svc := NewService(&stubDirectory{uid: "x"}, nil)
	_, err := svc.SignUp(context.Background(), SignUpCommand{Email: "not-an-email", Password: "secret1"})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = svc.SignUp(context.Background(), SignUpCommand{Email: "a@b.co", Password: "123"})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestSignUp_ExistingEmail(t *testing.T) {
	svc := NewService(&stubDirectory{err: ErrEmailExists}, nil)
	_, err := svc.SignUp(context.Background(), SignUpCommand{Email: "a@b.co", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestSignUp_DirectoryFailure(t *testing.T) {
	svc := NewService(&stubDirectory{err: errors.New("quota")}, nil)
	_, err := svc.SignUp(context.Background(), SignUpCommand{Email: "a@b.co", Password: "secret1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailExists)
}
