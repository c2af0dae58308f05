package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/finmax/ledger/internal/domain"
	"github.com/finmax/ledger/internal/repository"
)

// Router builds the HTTP routing table. Entity mutation routes share the
// generic handler set; users get bespoke routes for external-id addressing
// and registration; ledger routes are read-only except revert.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))
	r.Use(actorExtractor)

	mountEntity[repository.AccountInsert, repository.AccountPatch, domain.Account](s, r, "/accounts", s.accounts)
	mountEntity[repository.MethodInsert, repository.MethodPatch, domain.Method](s, r, "/methods", s.methods)
	mountEntity[repository.CategoryInsert, repository.CategoryPatch, domain.Category](s, r, "/categories", s.categories)
	mountEntity[repository.PayeeInsert, repository.PayeePatch, domain.Payee](s, r, "/payees", s.payees)
	mountEntity[repository.SubscriptionInsert, repository.SubscriptionPatch, domain.Subscription](s, r, "/subscriptions", s.subscriptions)
	mountEntity[repository.TransactionInsert, repository.TransactionPatch, domain.Transaction](s, r, "/transactions", s.transactions)
	mountEntity[repository.IconInsert, repository.IconPatch, domain.Icon](s, r, "/icons", s.icons)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", s.handleRegisterUser)
		r.Get("/{id}", s.handleGetUser)
		r.Patch("/{id}", s.handleUpdateUser)
		r.Delete("/{id}", s.handleDeleteUser)
	})

	r.Route("/changes", func(r chi.Router) {
		r.Get("/{id}", s.handleGetChange)
		r.Get("/{id}/diff", s.handleChangeDiff)
		r.Post("/{id}/revert", s.handleRevertChange)
	})

	r.Get("/history/{entity}/{id}", s.handleEntityHistory)
	r.Get("/history/{entity}/{id}/state", s.handleEntityState)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	return corsHandler.Handler(r)
}
