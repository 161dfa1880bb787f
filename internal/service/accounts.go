package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/mithrel/muse/internal/auth"
	"github.com/mithrel/muse/internal/db"
	"github.com/mithrel/muse/pkg/api"
	"github.com/mithrel/muse/pkg/markdown"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Credentials is the sign-up / sign-in payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the shape of sign-up credentials.
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, validation.Length(3, 254), validation.Match(emailPattern).Error("must be a valid email address")),
		// bcrypt ignores anything past 72 bytes
		validation.Field(&c.Password, validation.Required, validation.Length(8, 72)),
	)
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// SignUp creates an account.
func (s *Service) SignUp(ctx context.Context, email, password string) (api.User, error) {
	c := Credentials{Email: NormalizeEmail(email), Password: password}
	if err := c.Validate(); err != nil {
		return api.User{}, invalid(err)
	}
	hash, err := auth.HashPassword(c.Password)
	if err != nil {
		return api.User{}, err
	}
	u := api.User{ID: api.NewID(), Email: c.Email, CreatedAt: s.now()}
	u, err = s.store.Users.CreateUser(ctx, u, hash)
	if err != nil {
		return api.User{}, storeErr(err, "email already registered")
	}
	s.log.Info("user created", zap.String("user", u.ID))
	if s.welcome {
		// The account already exists; a failed seed is not a failed sign-up.
		if _, err := s.createDocument(ctx, u.ID, markdown.WelcomeTitle, markdown.DefaultContent()); err != nil {
			s.log.Warn("seed welcome document", zap.String("user", u.ID), zap.Error(err))
		}
	}
	return u, nil
}

// SignIn checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (api.User, error) {
	u, err := s.store.Users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return api.User{}, ErrUnauthorized
		}
		return api.User{}, err
	}
	hash, err := s.store.Users.PasswordHash(ctx, u.ID)
	if err != nil {
		return api.User{}, storeErr(err, "user")
	}
	if err := auth.CheckPassword(hash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return api.User{}, ErrUnauthorized
		}
		return api.User{}, err
	}
	return u, nil
}

// User looks an account up by id.
func (s *Service) User(ctx context.Context, id string) (api.User, error) {
	u, err := s.store.Users.GetUser(ctx, id)
	return u, storeErr(err, "user")
}

// UserByEmail looks an account up by address.
func (s *Service) UserByEmail(ctx context.Context, email string) (api.User, error) {
	u, err := s.store.Users.GetUserByEmail(ctx, NormalizeEmail(email))
	return u, storeErr(err, "user with that email not found")
}
