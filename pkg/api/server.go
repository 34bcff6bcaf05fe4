package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/membertools/dues/pkg/httputil"
	"github.com/membertools/dues/pkg/members"
	"github.com/membertools/dues/pkg/notify"
	"github.com/membertools/dues/pkg/observability"
	"github.com/membertools/dues/pkg/reconciler"
)

// PassRunner triggers a reconciliation pass; satisfied by
// *reconciler.Reconciler
type PassRunner interface {
	Pass(ctx context.Context, today time.Time) (*reconciler.PassStats, error)
}

// DeliveryReporter exposes recent reminder delivery attempts; satisfied by
// *notify.Dispatcher
type DeliveryReporter interface {
	DeliveryLogs(limit int) []*notify.DeliveryLog
	DeliveryStats() notify.DeliveryStats
}

// Server is the membership billing HTTP API
type Server struct {
	router     *mux.Router
	service    members.Service
	reconciler PassRunner
	deliveries DeliveryReporter
	logger     *observability.Logger
}

// NewServer creates the API server and registers all routes
func NewServer(service members.Service, passRunner PassRunner, deliveries DeliveryReporter,
	logger *observability.Logger, metrics *observability.Metrics) *Server {

	s := &Server{
		router:     mux.NewRouter(),
		service:    service,
		reconciler: passRunner,
		deliveries: deliveries,
		logger:     logger,
	}

	chain := []mux.MiddlewareFunc{
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(logger),
		httputil.RecoveryMiddleware(logger),
	}
	if metrics != nil {
		chain = append(chain, metrics.HTTPMiddleware)
	}
	s.router.Use(chain...)

	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	// Members
	s.router.HandleFunc("/members", s.RegisterMember).Methods("POST")
	s.router.HandleFunc("/members", s.ListMembers).Methods("GET")
	s.router.HandleFunc("/members/{id}", s.GetMember).Methods("GET")

	// Memberships and billing
	s.router.HandleFunc("/memberships/{id}", s.GetMembership).Methods("GET")
	s.router.HandleFunc("/memberships/{id}/monthly", s.SwitchToMonthly).Methods("POST")
	s.router.HandleFunc("/memberships/{id}/invoices", s.GenerateInvoice).Methods("POST")
	s.router.HandleFunc("/memberships/{id}/invoices", s.ListInvoices).Methods("GET")

	// Reconciliation
	s.router.HandleFunc("/reconciliation/run", s.RunReconciliation).Methods("POST")

	// Notification delivery log
	s.router.HandleFunc("/notifications/deliveries", s.ListDeliveries).Methods("GET")
}
