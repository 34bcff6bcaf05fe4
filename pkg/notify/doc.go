// Package notify formats membership billing reminders and delivers them
// through an external notification provider.
//
// # Reminder kinds
//
// Three templates exist, keyed by provider workflow name:
//
//   - annual-membership: yearly renewal, carries the total amount due
//   - first-month-reminder: one-time blended bootstrap charge
//   - monthly-reminder: recurring monthly charge
//
// The member email is used both as the provider subscriber identity and as
// the contact address.
//
// # Delivery semantics
//
// Delivery is fire-and-forget from the caller's perspective: the dispatcher
// performs no retries, surfaces provider failures as ErrDelivery, so a
// failed send for one member never blocks processing of another. Recent
// attempts are retained in an in-memory delivery log for inspection.
package notify
