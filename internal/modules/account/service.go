// README: Account sign-up through Firebase Authentication.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"bettercommute/internal/types"
)

var (
	ErrBadRequest   = errors.New("bad request")
	ErrEmailExists  = errors.New("email already registered")
	ErrWeakPassword = errors.New("password must be at least 6 characters")
)

// minPasswordLen matches the Firebase Auth password policy default.
const minPasswordLen = 6

type SignUpCommand struct {
	Email    string
	Password string
}

type Account struct {
	UID   types.ID `json:"uid"`
	Email string   `json:"email"`
}

// Directory creates users in the identity provider.
type Directory interface {
	CreateUser(ctx context.Context, email, password string) (types.ID, error)
}

type firebaseDirectory struct {
	client *auth.Client
}

func NewFirebaseDirectory(client *auth.Client) Directory {
	return &firebaseDirectory{client: client}
}

func (d *firebaseDirectory) CreateUser(ctx context.Context, email, password string) (types.ID, error) {
	params := (&auth.UserToCreate{}).Email(email).Password(password)
	u, err := d.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", ErrEmailExists
		}
		return "", err
	}
	return types.ID(u.UID), nil
}

type Service struct {
	dir    Directory
	logger *zap.Logger
}

func NewService(dir Directory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{dir: dir, logger: logger}
}

func (s *Service) SignUp(ctx context.Context, cmd SignUpCommand) (Account, error) {
	email := strings.TrimSpace(strings.ToLower(cmd.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return Account{}, ErrBadRequest
	}
	if len(cmd.Password) < minPasswordLen {
		return Account{}, ErrWeakPassword
	}
	uid, err := s.dir.CreateUser(ctx, email, cmd.Password)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return Account{}, err
		}
		s.logger.Error("create user failed", zap.String("email", email), zap.Error(err))
		return Account{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("account created", zap.String("uid", string(uid)))
	return Account{UID: uid, Email: email}, nil
}
