// Package members provides member registration, membership plan management
// and invoice generation backed by PostgreSQL.
//
// # Billing model
//
// Every member starts on an annual basic membership with a bootstrap fee due
// one year after registration. A membership can be switched to monthly
// premium billing; the first ever monthly membership for a member is charged
// a one-time blended amount (annual bootstrap fee plus the first monthly fee)
// on its next invoice, after which it is charged the monthly fee only.
//
// All amounts are integer cents, so no precision is lost at currency scale.
//
// # Usage Example
//
// Register a member and generate an invoice:
//
//	svc := members.NewPostgresService(db, members.DefaultFees())
//	member, err := svc.Register(ctx, &members.RegisterRequest{
//		FirstName: "Ada",
//		LastName:  "Lovelace",
//		Email:     "ada@example.com",
//	})
//
//	invoice, err := svc.GenerateInvoice(ctx, membershipID)
//	fmt.Printf("Amount due: $%s\n", members.FormatCents(invoice.AmountCents))
//
// # Related Packages
//
//   - pkg/reconciler: periodic invoicing and reminder decisions
//   - pkg/notify: reminder delivery
package members
