// Package api exposes the membership billing HTTP surface: member
// registration, membership plan changes, on-demand invoicing and a manual
// reconciliation trigger. Routing is gorilla/mux; error mapping follows the
// service error taxonomy in pkg/httputil.
package api
