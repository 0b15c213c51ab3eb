package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/bracket-challenge/internal/config"
	"github.com/AdamBeresnev/bracket-challenge/internal/httputil"
	"github.com/AdamBeresnev/bracket-challenge/internal/store"
	users "github.com/AdamBeresnev/bracket-challenge/internal/user"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
	"github.com/markbates/goth/providers/google"
)

// SessionUserKey is the session entry holding the signed-in user's ID.
const SessionUserKey = "userID"

// InitAuth registers the OAuth providers that have a key configured.
func InitAuth(discordCfg, googleCfg config.OAuthProvider) {
	var providers []goth.Provider
	if discordCfg.Key != "" {
		providers = append(providers, discord.New(discordCfg.Key, discordCfg.Secret, discordCfg.CallbackURL, discord.ScopeIdentify, discord.ScopeEmail))
	}
	if googleCfg.Key != "" {
		providers = append(providers, google.New(googleCfg.Key, googleCfg.Secret, googleCfg.CallbackURL, "email", "profile"))
	}
	if len(providers) == 0 {
		slog.Warn("No OAuth providers configured, nobody will be able to sign in")
		return
	}
	goth.UseProviders(providers...)
}

// LoadAuthenticatedUser puts the session's user in the request context when
// there is one. It never rejects a request.
func LoadAuthenticatedUser(sessionManager *scs.SessionManager, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userIDStr := sessionManager.GetString(r.Context(), SessionUserKey)
			if userIDStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := uuid.Parse(userIDStr)
			if err != nil {
				sessionManager.Remove(r.Context(), SessionUserKey)
				next.ServeHTTP(w, r)
				return
			}

			user, err := userStore.GetUser(r.Context(), userID)
			if err != nil {
				// Stale session, e.g. the database was reset
				slog.Warn("Session user not found", "user_id", userID, "error", err)
				sessionManager.Remove(r.Context(), SessionUserKey)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetAuthenticatedUser(r.Context()) == nil {
			httputil.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin answers 401 without a user and 403 for non-admins.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthenticatedUser(r.Context())
		switch {
		case user == nil:
			httputil.Unauthorized(w)
		case !user.IsAdmin():
			slog.Warn("Admin route refused", "user_id", user.ID, "path", r.URL.Path)
			httputil.Forbidden(w, "Admin role required")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func WithUser(ctx context.Context, user *users.User) context.Context {
	return context.WithValue(ctx, users.UserKey, user)
}

func GetAuthenticatedUser(ctx context.Context) *users.User {
	val := ctx.Value(users.UserKey)
	if val == nil {
		return nil
	}
	user, ok := val.(*users.User)
	if !ok {
		return nil
	}
	return user
}
