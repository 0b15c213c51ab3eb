package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/AdamBeresnev/bracket-challenge/internal/bracket"
	"github.com/AdamBeresnev/bracket-challenge/internal/config"
	"github.com/AdamBeresnev/bracket-challenge/internal/httputil"
	"github.com/AdamBeresnev/bracket-challenge/internal/middleware"
	"github.com/AdamBeresnev/bracket-challenge/internal/service"
	"github.com/AdamBeresnev/bracket-challenge/internal/store"
	"github.com/AdamBeresnev/bracket-challenge/internal/utils"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/markbates/goth/gothic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type app struct {
	cfg            *config.Config
	sessionManager *scs.SessionManager
	userStore      *store.UserStore

	users       *service.UserService
	tournaments *service.TournamentService
	matches     *service.MatchService
	brackets    *service.BracketService
	leaderboard *service.LeaderboardService
}

func newApp(cfg *config.Config, database, reader *sqlx.DB, sessionManager *scs.SessionManager) *app {
	tournamentStore := store.NewTournamentStore(database)
	bracketStore := store.NewBracketStore(database)
	userStore := store.NewUserStore(database)

	return &app{
		cfg:            cfg,
		sessionManager: sessionManager,
		userStore:      userStore,
		users:          service.NewUserService(userStore, cfg.AdminEmail, cfg.AllowedEmailDomain),
		tournaments:    service.NewTournamentService(database, tournamentStore, bracketStore),
		matches:        service.NewMatchService(database, tournamentStore),
		brackets:       service.NewBracketService(database, reader, tournamentStore, bracketStore, cfg.Scoring),
		leaderboard:    service.NewLeaderboardService(reader, tournamentStore, bracketStore, cfg.Scoring),
	}
}

func newRouter(a *app) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(a.sessionManager.LoadAndSave)
	r.Use(middleware.LoadAuthenticatedUser(a.sessionManager, a.userStore))

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
		gothic.BeginAuthHandler(w, r)
	})

	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))

		gothUser, err := gothic.CompleteUserAuth(w, r)
		if err != nil {
			httputil.BadRequest(w, "Authentication failure", err)
			return
		}

		user, err := a.users.FindOrCreateUserByProvider(r.Context(), gothUser)
		if err != nil {
			httputil.Error(w, "Failed to find or create user", err)
			return
		}

		// Rotate the token on login
		if err := a.sessionManager.RenewToken(r.Context()); err != nil {
			httputil.InternalServerError(w, "Failed to renew session", err)
			return
		}
		a.sessionManager.Put(r.Context(), middleware.SessionUserKey, user.ID.String())

		http.Redirect(w, r, "/", http.StatusFound)
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		if err := a.sessionManager.Destroy(r.Context()); err != nil {
			httputil.InternalServerError(w, "Failed to destroy session", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/tournaments", func(w http.ResponseWriter, r *http.Request) {
			tournaments, err := a.tournaments.ListTournaments(r.Context())
			if err != nil {
				httputil.Error(w, "Failed to list tournaments", err)
				return
			}
			if tournaments == nil {
				tournaments = []bracket.Tournament{}
			}
			httputil.JSON(w, http.StatusOK, tournaments)
		})

		r.Get("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := uuidParam(w, r, "id")
			if !ok {
				return
			}
			data, err := a.tournaments.GetTournamentData(r.Context(), id)
			if err != nil {
				httputil.Error(w, "Failed to get tournament", err)
				return
			}
			httputil.JSON(w, http.StatusOK, data)
		})

		r.Get("/tournaments/{id}/leaderboard", func(w http.ResponseWriter, r *http.Request) {
			id, ok := uuidParam(w, r, "id")
			if !ok {
				return
			}
			board, err := a.leaderboard.Leaderboard(r.Context(), id)
			if err != nil {
				httputil.Error(w, "Failed to get leaderboard", err)
				return
			}
			httputil.JSON(w, http.StatusOK, board)
		})

		// Public so the lobby screen needs no login
		r.Get("/tournaments/{id}/tv", func(w http.ResponseWriter, r *http.Request) {
			id, ok := uuidParam(w, r, "id")
			if !ok {
				return
			}
			limit := 0
			if v := r.URL.Query().Get("limit"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil || n < 0 {
					httputil.BadRequest(w, "Invalid limit", err)
					return
				}
				limit = n
			}
			data, err := a.leaderboard.TVData(r.Context(), id, limit)
			if err != nil {
				httputil.Error(w, "Failed to get TV data", err)
				return
			}
			httputil.JSON(w, http.StatusOK, data)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
				httputil.JSON(w, http.StatusOK, middleware.GetAuthenticatedUser(r.Context()))
			})

			r.Get("/tournaments/{id}/bracket", func(w http.ResponseWriter, r *http.Request) {
				id, ok := uuidParam(w, r, "id")
				if !ok {
					return
				}
				view, err := a.brackets.GetBracketView(r.Context(), id, middleware.GetAuthenticatedUser(r.Context()))
				if err != nil {
					httputil.Error(w, "Failed to get bracket", err)
					return
				}
				httputil.JSON(w, http.StatusOK, view)
			})

			r.Post("/tournaments/{id}/picks", func(w http.ResponseWriter, r *http.Request) {
				id, ok := uuidParam(w, r, "id")
				if !ok {
					return
				}
				var body struct {
					MatchID   uuid.UUID `json:"matchId"`
					EntrantID uuid.UUID `json:"entrantId"`
				}
				if err := httputil.DecodeJSON(r, &body); err != nil {
					httputil.BadRequest(w, "Invalid pick", err)
					return
				}
				result, err := a.brackets.UpsertPick(r.Context(), id, middleware.GetAuthenticatedUser(r.Context()), body.MatchID, body.EntrantID)
				if err != nil {
					httputil.Error(w, "Failed to save pick", err)
					return
				}
				httputil.JSON(w, http.StatusOK, result)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Post("/tournaments", func(w http.ResponseWriter, r *http.Request) {
				var input service.CreateTournamentInput
				if err := httputil.DecodeJSON(r, &input); err != nil {
					httputil.BadRequest(w, "Invalid tournament", err)
					return
				}
				if input.LockAt == nil {
					input.LockAt = utils.TimeOrNil(a.cfg.DefaultLockAt)
				}
				id, err := a.tournaments.CreateTournament(r.Context(), input)
				if err != nil {
					httputil.Error(w, "Failed to create tournament", err)
					return
				}
				httputil.JSON(w, http.StatusCreated, map[string]uuid.UUID{"id": id})
			})

			r.Put("/tournaments/{id}/regions/{region}/seeds", func(w http.ResponseWriter, r *http.Request) {
				id, ok := uuidParam(w, r, "id")
				if !ok {
					return
				}
				region := bracket.Region(strings.ToUpper(chi.URLParam(r, "region")))
				var body struct {
					Seeds []service.SeedAssignment `json:"seeds"`
				}
				if err := httputil.DecodeJSON(r, &body); err != nil {
					httputil.BadRequest(w, "Invalid seeds", err)
					return
				}
				pruned, err := a.tournaments.ReseedRegion(r.Context(), id, region, body.Seeds)
				if err != nil {
					httputil.Error(w, "Failed to reseed region", err)
					return
				}
				httputil.JSON(w, http.StatusOK, map[string]int{"picksRemoved": pruned})
			})

			r.Put("/entrants/{id}", func(w http.ResponseWriter, r *http.Request) {
				id, ok := uuidParam(w, r, "id")
				if !ok {
					return
				}
				var update service.EntrantUpdate
				if err := httputil.DecodeJSON(r, &update); err != nil {
					httputil.BadRequest(w, "Invalid entrant", err)
					return
				}
				entrant, err := a.tournaments.UpdateEntrant(r.Context(), id, update)
				if err != nil {
					httputil.Error(w, "Failed to update entrant", err)
					return
				}
				httputil.JSON(w, http.StatusOK, entrant)
			})

			r.Post("/matches/{id}/winner", func(w http.ResponseWriter, r *http.Request) {
				id, ok := uuidParam(w, r, "id")
				if !ok {
					return
				}
				var body struct {
					WinnerID uuid.UUID `json:"winnerId"`
				}
				if err := httputil.DecodeJSON(r, &body); err != nil {
					httputil.BadRequest(w, "Invalid winner", err)
					return
				}
				outcome, err := a.matches.RecordWinner(r.Context(), id, body.WinnerID)
				if err != nil {
					httputil.Error(w, "Failed to record winner", err)
					return
				}
				httputil.JSON(w, http.StatusOK, outcome)
			})

			r.Delete("/matches/{id}/winner", func(w http.ResponseWriter, r *http.Request) {
				id, ok := uuidParam(w, r, "id")
				if !ok {
					return
				}
				outcome, err := a.matches.ClearWinner(r.Context(), id)
				if err != nil {
					httputil.Error(w, "Failed to clear winner", err)
					return
				}
				httputil.JSON(w, http.StatusOK, outcome)
			})
		})
	})

	return r
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}
