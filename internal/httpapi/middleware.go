package httpapi

import (
	"context"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/msivakumar/duetrack/internal/dues"
)

type ctxKey string

const ctxKeyModule ctxKey = "module"
const ctxKeyRecordPayment ctxKey = "validatedRecordPayment"
const ctxKeyRestore ctxKey = "validatedRestore"

// moduleCtx resolves the {module} path segment once for the whole subtree.
// Unknown module names 404 before any handler runs.
func (s *Server) moduleCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, err := dues.ParseModule(chi.URLParam(r, "module"))
		if err != nil {
			writeDomainErr(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyModule, m)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func moduleFrom(r *http.Request) dues.Module {
	m, _ := r.Context().Value(ctxKeyModule).(dues.Module)
	return m
}

// idParam parses a UUID path parameter. Writes 400 and returns false on a
// malformed id.
func idParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		badRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// monthQuery parses the month query param, defaulting to the current month
// when absent. Writes 400 and returns false on a malformed value.
func monthQuery(w http.ResponseWriter, r *http.Request) (dues.Month, bool) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return dues.CurrentMonth(), true
	}
	m, err := dues.ParseMonth(raw)
	if err != nil {
		badRequest(w, "invalid month, expected YYYY-MM")
		return dues.Month{}, false
	}
	return m, true
}

// validateRecordPayment parses the POST /payments body and stores the request
// struct in context for the handler.
func (s *Server) validateRecordPayment() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req recordPaymentRequest
			if err := decodeJSON(r, &req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if req.PayerID == uuid.Nil {
				badRequest(w, "payer_id is required")
				return
			}
			if req.Month.IsZero() {
				badRequest(w, "month is required")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyRecordPayment, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validateRestore parses the POST /restore body.
func (s *Server) validateRestore() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requireJSON(w, r) {
				return
			}
			var req restoreRequest
			if err := decodeJSON(r, &req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyRestore, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
