// Package httpapi wires the HTTP surface of the dues service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"context"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"log/slog"

	"github.com/msivakumar/duetrack/internal/service/backup"
	"github.com/msivakumar/duetrack/internal/service/collection"
	"github.com/msivakumar/duetrack/internal/service/roster"
	"github.com/msivakumar/duetrack/internal/service/settings"
)

// Server wires handlers and middleware using Chi.
// It composes read (repo) and write (writer) dependencies through services.
type Server struct {
	rosterSvc     roster.Service
	collectionSvc collection.Service
	backupSvc     backup.Service
	settingsSvc   settings.Service
	readyChecks   []any
	log           *slog.Logger
	rt            *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by basic request/response logging and panic recovery.
func New(rrepo roster.Repo, rwriter roster.Writer, crepo collection.Repo, cwriter collection.Writer, brepo backup.Repo, bwriter backup.Writer, srepo settings.Repo, swriter settings.Writer, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		rosterSvc:     roster.New(rrepo, rwriter),
		collectionSvc: collection.New(crepo, cwriter),
		backupSvc:     backup.New(brepo, bwriter),
		settingsSvc:   settings.New(srepo, swriter),
		readyChecks:   []any{rrepo, crepo, brepo, srepo},
		rt:            r,
		log:           logger,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	s.rt.Route("/v1/{module}", func(r chi.Router) {
		r.Use(s.moduleCtx)

		r.Get("/stats", s.getStats)

		// Customers (global roster and group members alike)
		r.Get("/customers", s.listCustomers)
		r.Post("/customers", s.createCustomer)
		r.Get("/customers/{id}", s.getCustomer)
		r.Put("/customers/{id}", s.updateCustomer)
		r.Delete("/customers/{id}", s.deleteCustomer)
		r.Put("/customers/{id}/archive", s.archiveCustomer)
		r.Put("/customers/{id}/reactivate", s.reactivateCustomer)
		r.Get("/customers/{id}/payments", s.getCustomerPayments)

		// Groups (grouped modules only; the service rejects the rest)
		r.Get("/groups", s.listGroups)
		r.Post("/groups", s.createGroup)
		r.Put("/groups/{id}", s.updateGroup)
		r.Delete("/groups/{id}", s.deleteGroup)
		r.Get("/groups/{id}/members", s.listGroupMembers)
		r.Post("/groups/{id}/members", s.addGroupMember)
		r.Get("/groups/{id}/collection", s.getGroupCollection)

		// Collection (global modules)
		r.Get("/collection", s.getCollection)
		r.Get("/collection/export", s.exportCollectionCSV)

		// Payments
		r.Get("/payments", s.listPayments)
		r.With(s.validateRecordPayment()).Post("/payments", s.recordPayment)
		r.Delete("/payments/{id}", s.undoPayment)
		r.Put("/payments/{id}/whatsapp-sent", s.markReceiptSent)
		r.Get("/payments/{id}/receipt", s.getReceipt)

		// Reports
		r.Get("/reports/monthly", s.getMonthlyReport)
		r.Get("/reports/trend", s.getTrend)

		// Backup / restore
		r.Get("/backup", s.getBackup)
		r.With(s.validateRestore()).Post("/restore", s.postRestore)

		// Settings
		r.Get("/settings", s.getSettings)
		r.Put("/settings", s.updateSettings)
		r.Post("/settings/staff", s.addStaff)
		r.Delete("/settings/staff/{id}", s.removeStaff)
	})

	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// If an underlying store implements Ready, call it with a short timeout.
	type readyIf interface{ Ready(context.Context) error }
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	for _, dep := range s.readyChecks {
		if rc, ok := dep.(readyIf); ok {
			if err := rc.Ready(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
	}
	w.WriteHeader(http.StatusOK)
}
