package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AdamBeresnev/bracket-challenge/internal/store"
	users "github.com/AdamBeresnev/bracket-challenge/internal/user"
	"github.com/AdamBeresnev/bracket-challenge/internal/utils"
	"github.com/google/uuid"
	"github.com/markbates/goth"
)

var ErrEmailNotAllowed = errors.New("email domain is not allowed")

type UserService struct {
	store         *store.UserStore
	adminEmail    string
	allowedDomain string
}

// NewUserService grants the admin role to adminEmail. A non-empty
// allowedDomain refuses logins from any other email domain.
func NewUserService(store *store.UserStore, adminEmail, allowedDomain string) *UserService {
	return &UserService{
		store:         store,
		adminEmail:    strings.ToLower(adminEmail),
		allowedDomain: strings.ToLower(allowedDomain),
	}
}

func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	email := strings.ToLower(strings.TrimSpace(gothUser.Email))
	if !s.emailAllowed(email) {
		return nil, fmt.Errorf("%s: %w", email, ErrEmailNotAllowed)
	}
	role := s.roleFor(email)

	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)

	if err == nil {
		name := displayName(gothUser)
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL || user.Username != name || user.Role != role {
			user.AvatarURL = utils.StringOrNil(gothUser.AvatarURL)
			user.Username = name
			user.Role = role
			if err := s.store.UpdateUserProfile(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to update user: %w", err)
			}
		}
		return user, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		newUser := &users.User{
			ID:         uuid.New(),
			Email:      email,
			Username:   displayName(gothUser),
			Role:       role,
			Provider:   &gothUser.Provider,
			ProviderID: &gothUser.UserID,
			AvatarURL:  utils.StringOrNil(gothUser.AvatarURL),
		}
		if err := s.store.CreateUser(ctx, newUser); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		slog.Info("User registered", "user_id", newUser.ID, "provider", gothUser.Provider, "role", role)
		return newUser, nil
	}

	return nil, err
}

func (s *UserService) emailAllowed(email string) bool {
	if s.allowedDomain == "" {
		return true
	}
	_, domain, ok := strings.Cut(email, "@")
	return ok && domain == s.allowedDomain
}

func (s *UserService) roleFor(email string) users.Role {
	if s.adminEmail != "" && email == s.adminEmail {
		return users.RoleAdmin
	}
	return users.RolePlayer
}

// Discord fills NickName, Google only Name
func displayName(u goth.User) string {
	for _, candidate := range []string{u.NickName, u.Name, u.FirstName} {
		if c := strings.TrimSpace(candidate); c != "" {
			return c
		}
	}
	if name, _, ok := strings.Cut(u.Email, "@"); ok {
		return name
	}
	return "Player"
}
