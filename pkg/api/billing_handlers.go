package api

import (
	"net/http"
	"time"

	"github.com/membertools/dues/pkg/httputil"
)

// GetMembership retrieves a membership by ID
func (s *Server) GetMembership(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIDOrError(w, r, "id")
	if !ok {
		return
	}

	membership, err := s.service.GetMembership(r.Context(), id)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, membership)
}

// SwitchToMonthly converts a membership to monthly premium billing
func (s *Server) SwitchToMonthly(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIDOrError(w, r, "id")
	if !ok {
		return
	}

	result, err := s.service.SwitchToMonthly(r.Context(), id)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// GenerateInvoice issues an invoice for a membership on demand
func (s *Server) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIDOrError(w, r, "id")
	if !ok {
		return
	}

	invoice, err := s.service.GenerateInvoice(r.Context(), id)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteCreated(w, invoice)
}

// ListInvoices lists invoices for a membership, newest first
func (s *Server) ListInvoices(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathIDOrError(w, r, "id")
	if !ok {
		return
	}
	limit := httputil.ParseQueryInt(r, "limit", 50)

	invoices, err := s.service.ListInvoices(r.Context(), id, limit)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, invoices)
}

// RunReconciliation triggers a reconciliation pass immediately. Responds
// 409 when a pass is already running.
func (s *Server) RunReconciliation(w http.ResponseWriter, r *http.Request) {
	stats, err := s.reconciler.Pass(r.Context(), time.Now().UTC())
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteSuccess(w, stats)
}

// ListDeliveries reports recent reminder delivery attempts and stats
func (s *Server) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	limit := httputil.ParseQueryInt(r, "limit", 100)
	httputil.WriteSuccess(w, map[string]interface{}{
		"stats":      s.deliveries.DeliveryStats(),
		"deliveries": s.deliveries.DeliveryLogs(limit),
	})
}
