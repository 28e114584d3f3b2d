package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/hanifmaulana/orgops/internal/auth"
	"github.com/hanifmaulana/orgops/internal/leave"
	"github.com/hanifmaulana/orgops/internal/ticket"
	"github.com/hanifmaulana/orgops/internal/transport/middleware"
	"github.com/hanifmaulana/orgops/internal/transport/swagger"
	"github.com/hanifmaulana/orgops/internal/user"
	"github.com/go-chi/chi"
)

// RegisterAllRoutes wires every handler onto the router. Everything under
// /api/v1 except health and ping requires a valid bearer token.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, rbac *auth.RBACAuthorization, userHandler *user.Handler, leaveHandler *leave.Handler, ticketHandler *ticket.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))

	// OpenAPI spec served at root so the Swagger UI can reach it.
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Protected routes
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			if userHandler != nil {
				pr.Get("/users/me", userHandler.GetCurrentUser)

				pr.Group(func(mr chi.Router) {
					mr.Use(rbac.RequireManageHierarchy())
					mr.Patch("/users/{id}/manager", userHandler.AssignManager)
				})
			}

			if leaveHandler != nil {
				pr.Route("/leave", func(lr chi.Router) {
					lr.Post("/", leaveHandler.SubmitLeave)
					lr.Get("/", leaveHandler.ListLeave)
					lr.Get("/{id}", leaveHandler.GetLeave)
					lr.Post("/{id}/respond", leaveHandler.RespondLeave)
				})
			}

			if ticketHandler != nil {
				pr.Route("/tickets", func(tr chi.Router) {
					tr.Post("/", ticketHandler.IssueTicket)
					tr.Get("/", ticketHandler.ListTickets)
					tr.Get("/{id}", ticketHandler.GetTicket)
					tr.Patch("/{id}/respond", ticketHandler.RespondTicket)

					tr.Group(func(sr chi.Router) {
						sr.Use(rbac.RequirePurgeTickets())
						sr.Delete("/{id}", ticketHandler.PurgeTicket)
					})
				})
			}
		})
	})
}
