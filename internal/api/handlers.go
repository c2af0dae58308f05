// Package api exposes the mutation facades and the change ledger over HTTP.
// Entity routes share one generic handler set; the ledger routes are
// read-only.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/finmax/ledger/internal/auth"
	"github.com/finmax/ledger/internal/domain"
	"github.com/finmax/ledger/internal/engine"
	"github.com/finmax/ledger/internal/repository"
)

const maxBodyBytes = 1 << 20

// Server holds the handler dependencies.
type Server struct {
	logger        *zap.Logger
	engine        *engine.Engine
	users         repository.UsersRepository
	changes       repository.ChangesRepository
	accounts      repository.AccountsRepository
	methods       repository.MethodsRepository
	categories    repository.CategoriesRepository
	payees        repository.PayeesRepository
	subscriptions repository.SubscriptionsRepository
	transactions  repository.TransactionsRepository
	icons         repository.IconsRepository
}

// NewServer wires the handler dependencies together.
func NewServer(
	logger *zap.Logger,
	eng *engine.Engine,
	users repository.UsersRepository,
	changes repository.ChangesRepository,
	accounts repository.AccountsRepository,
	methods repository.MethodsRepository,
	categories repository.CategoriesRepository,
	payees repository.PayeesRepository,
	subscriptions repository.SubscriptionsRepository,
	transactions repository.TransactionsRepository,
	icons repository.IconsRepository,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		logger:        logger,
		engine:        eng,
		users:         users,
		changes:       changes,
		accounts:      accounts,
		methods:       methods,
		categories:    categories,
		payees:        payees,
		subscriptions: subscriptions,
		transactions:  transactions,
		icons:         icons,
	}
}

// mutator is the shape every entity facade exposes; the concrete repository
// interfaces satisfy it structurally.
type mutator[I any, P any, E any] interface {
	Insert(ctx context.Context, actorID string, input I) (E, error)
	Update(ctx context.Context, actorID, id string, patch P) (domain.Row, error)
	Delete(ctx context.Context, actorID, id string) (E, error)
}

func mountEntity[I, P, E any](s *Server, r chi.Router, path string, repo mutator[I, P, E]) {
	r.Route(path, func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			actorID, err := auth.RequireActor(req.Context())
			if err != nil {
				s.writeError(w, req, http.StatusUnauthorized, err)
				return
			}
			var input I
			if err := decodeJSON(req, &input); err != nil {
				s.writeError(w, req, http.StatusBadRequest, err)
				return
			}
			created, err := repo.Insert(req.Context(), actorID, input)
			if err != nil {
				s.writeDomainError(w, req, err)
				return
			}
			s.writeJSON(w, http.StatusCreated, created)
		})

		r.Patch("/{id}", func(w http.ResponseWriter, req *http.Request) {
			actorID, err := auth.RequireActor(req.Context())
			if err != nil {
				s.writeError(w, req, http.StatusUnauthorized, err)
				return
			}
			var patch P
			if err := decodeJSON(req, &patch); err != nil {
				s.writeError(w, req, http.StatusBadRequest, err)
				return
			}
			applied, err := repo.Update(req.Context(), actorID, chi.URLParam(req, "id"), patch)
			if err != nil {
				s.writeDomainError(w, req, err)
				return
			}
			s.writeJSON(w, http.StatusOK, applied)
		})

		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			actorID, err := auth.RequireActor(req.Context())
			if err != nil {
				s.writeError(w, req, http.StatusUnauthorized, err)
				return
			}
			deleted, err := repo.Delete(req.Context(), actorID, chi.URLParam(req, "id"))
			if err != nil {
				s.writeDomainError(w, req, err)
				return
			}
			s.writeJSON(w, http.StatusOK, deleted)
		})
	})
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, req *http.Request) {
	var input repository.UserInsert
	if err := decodeJSON(req, &input); err != nil {
		s.writeError(w, req, http.StatusBadRequest, err)
		return
	}
	created, err := s.users.Register(req.Context(), input)
	if err != nil {
		s.writeDomainError(w, req, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetUser(w http.ResponseWriter, req *http.Request) {
	user, err := s.users.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		s.writeDomainError(w, req, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, req *http.Request) {
	actorID, err := auth.RequireActor(req.Context())
	if err != nil {
		s.writeError(w, req, http.StatusUnauthorized, err)
		return
	}
	var patch repository.UserPatch
	if err := decodeJSON(req, &patch); err != nil {
		s.writeError(w, req, http.StatusBadRequest, err)
		return
	}
	applied, err := s.users.Update(req.Context(), actorID, chi.URLParam(req, "id"), patch)
	if err != nil {
		s.writeDomainError(w, req, err)
		return
	}
	s.writeJSON(w, http.StatusOK, applied)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, req *http.Request) {
	actorID, err := auth.RequireActor(req.Context())
	if err != nil {
		s.writeError(w, req, http.StatusUnauthorized, err)
		return
	}
	deleted, err := s.users.Delete(req.Context(), actorID, chi.URLParam(req, "id"))
	if err != nil {
		s.writeDomainError(w, req, err)
		return
	}
	s.writeJSON(w, http.StatusOK, deleted)
}

func (s *Server) handleGetChange(w http.ResponseWriter, req *http.Request) {
	change, err := s.changes.GetByID(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		s.writeDomainError(w, req, err)
		return
	}
	s.writeJSON(w, http.StatusOK, change)
}

func (s *Server) handleChangeDiff(w http.ResponseWriter, req *http.Request) {
	diff, err := s.changes.RenderDiff(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		s.writeDomainError(w, req, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(diff))
}

func (s *Server) handleRevertChange(w http.ResponseWriter, req *http.Request) {
	actorID, err := auth.RequireActor(req.Context())
	if err != nil {
		s.writeError(w, req, http.StatusUnauthorized, err)
		return
	}
	applied, err := s.engine.Revert(req.Context(), actorID, chi.URLParam(req, "id"))
	if err != nil {
		s.writeDomainError(w, req, err)
		return
	}
	s.writeJSON(w, http.StatusOK, applied)
}

func (s *Server) handleEntityHistory(w http.ResponseWriter, req *http.Request) {
	entity, ok := parseEntity(chi.URLParam(req, "entity"))
	if !ok {
		s.writeError(w, req, http.StatusNotFound, nil)
		return
	}
	history, err := s.changes.ListByEntity(req.Context(), entity, chi.URLParam(req, "id"))
	if err != nil {
		s.writeDomainError(w, req, err)
		return
	}
	s.writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleEntityState(w http.ResponseWriter, req *http.Request) {
	entity, ok := parseEntity(chi.URLParam(req, "entity"))
	if !ok {
		s.writeError(w, req, http.StatusNotFound, nil)
		return
	}
	version, err := strconv.ParseInt(req.URL.Query().Get("version"), 10, 64)
	if err != nil {
		s.writeError(w, req, http.StatusBadRequest, err)
		return
	}
	state, err := s.changes.StateAt(req.Context(), entity, chi.URLParam(req, "id"), version)
	if err != nil {
		s.writeDomainError(w, req, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// parseEntity maps a path segment to a ledgered entity type. The ledger
// itself is not addressable here.
func parseEntity(segment string) (domain.EntityType, bool) {
	entity := domain.EntityType(segment)
	switch entity {
	case domain.EntityUsers, domain.EntityTransactions, domain.EntityAccounts,
		domain.EntityMethods, domain.EntityCategories, domain.EntityPayees,
		domain.EntitySubscriptions, domain.EntityIcons:
		return entity, true
	}
	return "", false
}

func decodeJSON(req *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, req.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeDomainError maps the error taxonomy onto status codes: not-found to
// 404, client errors (validation, empty patch) to 400, everything else 500.
func (s *Server) writeDomainError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case domain.IsNotFound(err):
		s.writeError(w, req, http.StatusNotFound, err)
	case domain.IsClientError(err):
		s.writeError(w, req, http.StatusBadRequest, err)
	default:
		s.logger.Error("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (s *Server) writeError(w http.ResponseWriter, req *http.Request, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	s.writeJSON(w, status, map[string]string{"error": msg})
}
