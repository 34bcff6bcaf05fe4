package reconciler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/membertools/dues/pkg/async"
	"github.com/membertools/dues/pkg/members"
	"github.com/membertools/dues/pkg/notify"
	"github.com/membertools/dues/pkg/observability"
)

// Store is the slice of the members service the reconciler consumes
type Store interface {
	ListMembershipsWithMembers(ctx context.Context) ([]*members.Membership, error)
	GenerateInvoice(ctx context.Context, membershipID string) (*members.Invoice, error)
}

// Sender delivers a reminder; satisfied by *notify.Dispatcher
type Sender interface {
	Send(ctx context.Context, kind notify.ReminderKind, data *notify.ReminderData) (*notify.Ack, error)
}

// Options tune a Reconciler
type Options struct {
	// Workers bounds per-membership parallelism within a pass
	Workers int
	// LeadDays is how many days before the due date the reminder fires
	LeadDays int
	// ItemTimeout bounds one membership's invoice-and-notify unit
	ItemTimeout time.Duration
	// Lock prevents overlapping passes; defaults to a LocalLock
	Lock PassLock
	// Metrics is optional
	Metrics *observability.Metrics
}

// PassStats summarizes one reconciliation pass
type PassStats struct {
	Processed     int64         `json:"processed"`
	Invoiced      int64         `json:"invoiced"`
	RemindersSent int64         `json:"reminders_sent"`
	Failures      int64         `json:"failures"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
}

// Reconciler runs the periodic billing pass: for every membership it
// generates an invoice, then decides which reminder (if any) to send.
// Memberships are processed independently; one failure never blocks the
// rest of the pass.
type Reconciler struct {
	store       Store
	sender      Sender
	logger      *observability.Logger
	metrics     *observability.Metrics
	lock        PassLock
	workers     int
	leadDays    int
	itemTimeout time.Duration
}

// New creates a Reconciler
func New(store Store, sender Sender, logger *observability.Logger, opts Options) *Reconciler {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.LeadDays <= 0 {
		opts.LeadDays = 7
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = 30 * time.Second
	}
	if opts.Lock == nil {
		opts.Lock = NewLocalLock()
	}
	return &Reconciler{
		store:       store,
		sender:      sender,
		logger:      logger,
		metrics:     opts.Metrics,
		lock:        opts.Lock,
		workers:     opts.Workers,
		leadDays:    opts.LeadDays,
		itemTimeout: opts.ItemTimeout,
	}
}

// Pass runs one full reconciliation over all memberships as of today.
// It returns ErrPassInProgress when another pass holds the lock. The
// returned stats are complete: Pass does not return until every submitted
// membership has finished or the context was cancelled.
func (r *Reconciler) Pass(ctx context.Context, today time.Time) (*PassStats, error) {
	release, err := r.lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	stats := &PassStats{StartedAt: time.Now()}
	defer func() {
		stats.Duration = time.Since(stats.StartedAt)
		if r.metrics != nil {
			r.metrics.ReconcilePassDuration.Observe(stats.Duration.Seconds())
		}
	}()

	r.logger.Info("Running membership fee reminder pass")

	memberships, err := r.store.ListMembershipsWithMembers(ctx)
	if err != nil {
		if r.metrics != nil {
			r.metrics.ReconcilePassesTotal.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}

	errs := async.Batch(ctx, memberships, r.workers, r.itemTimeout,
		func(ctx context.Context, m *members.Membership) error {
			return r.processMembership(ctx, m, today, stats)
		})

	stats.Failures = int64(len(errs))
	result := "ok"
	if len(errs) > 0 {
		result = "partial"
	}
	if r.metrics != nil {
		r.metrics.ReconcilePassesTotal.WithLabelValues(result).Inc()
	}

	r.logger.WithFields(map[string]interface{}{
		"processed": stats.Processed,
		"invoiced":  stats.Invoiced,
		"sent":      stats.RemindersSent,
		"failures":  stats.Failures,
	}).Info("Reminder pass complete")
	return stats, nil
}

// processMembership executes one membership's ordered unit of work:
// invoice first, then the reminder decision against the pre-invoice
// snapshot. The invoice mutates the first-month flag in the store, so the
// snapshot value decides which reminder fires this pass.
func (r *Reconciler) processMembership(ctx context.Context, m *members.Membership, today time.Time, stats *PassStats) error {
	atomic.AddInt64(&stats.Processed, 1)
	log := r.logger.WithField("membership_id", m.ID)

	invoice, err := r.store.GenerateInvoice(ctx, m.ID)
	if err != nil {
		log.WithError(err).Error("Failed to generate invoice")
		if r.metrics != nil {
			r.metrics.MembershipFailuresTotal.Inc()
		}
		return fmt.Errorf("membership %s: %w", m.ID, err)
	}
	atomic.AddInt64(&stats.Invoiced, 1)
	if r.metrics != nil {
		r.metrics.InvoicesIssuedTotal.Inc()
		r.metrics.InvoicedCentsTotal.Add(float64(invoice.AmountCents))
	}

	kind := Decide(m, today, r.leadDays)
	if kind == ReminderNone {
		return nil
	}

	if _, err := r.sender.Send(ctx, kind, r.reminderData(kind, m, invoice)); err != nil {
		log.WithError(err).WithField("kind", string(kind)).Error("Failed to send reminder")
		if r.metrics != nil {
			r.metrics.RemindersFailedTotal.WithLabelValues(string(kind)).Inc()
			r.metrics.MembershipFailuresTotal.Inc()
		}
		return fmt.Errorf("membership %s: %w", m.ID, err)
	}
	atomic.AddInt64(&stats.RemindersSent, 1)
	if r.metrics != nil {
		r.metrics.RemindersSentTotal.WithLabelValues(string(kind)).Inc()
	}
	return nil
}

// reminderData builds the kind-specific reminder payload
func (r *Reconciler) reminderData(kind notify.ReminderKind, m *members.Membership, invoice *members.Invoice) *notify.ReminderData {
	data := &notify.ReminderData{
		MembershipType: m.MembershipType,
		Invoice:        invoice,
	}
	if m.Member != nil {
		data.FirstName = m.Member.FirstName
		data.LastName = m.Member.LastName
		data.Email = m.Member.Email
	}

	switch kind {
	case notify.ReminderFirstMonth:
		data.DueAmountCents = invoice.AmountCents
	case notify.ReminderMonthly:
		if m.MonthlyAmount != nil {
			data.MonthlyAmountCents = *m.MonthlyAmount
		}
		if m.MonthlyDueDate != nil {
			data.DueDate = *m.MonthlyDueDate
		}
	case notify.ReminderAnnual:
		data.TotalAmountCents = invoice.AmountCents
		data.DueDate = m.DueDate
	}
	return data
}
