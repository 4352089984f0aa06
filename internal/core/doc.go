// Package core provides the business logic for the EMI portal.
//
// The package has no HTTP or SQL code. Persistence is reached through the
// interfaces in store.go, so every operation can run against in-memory fakes.
//
// # Bulk customer import
//
// [Service.ImportCustomers] gates the caller (administrators only), rejects
// empty or oversized batches, takes a slot from the [ImportLimiter] and reads
// the retailer roster once. [Reconciler.Run] then handles each row in order:
//
//  1. [ValidateRow] checks the fixed rule order and resolves the retailer
//  2. [NormalizeRow] strips phone, Aadhaar and IMEI to digits and parses numbers
//  3. the IMEI is checked against rows inserted earlier in the batch, then
//     against the store
//  4. the record is inserted
//
// Each row yields exactly one [RowOutcome]. Rows are reported as input
// index + 2 so they line up with spreadsheet line numbers under a header.
// Store errors become Failed outcomes with the store's message unchanged.
//
// # Portal queries
//
// [Service.LookupCustomer] lets a customer find their RUNNING loan by Aadhaar
// or mobile. [Service.SearchCustomers] and [Service.UpcomingEMIs] are scoped
// to the calling retailer, as is [Service.RecentPaymentRequests].
// [Service.DueBreakdown] relays the database's get_due_breakdown result
// untouched. [Service.ExportCustomers] collects customers per status for
// [WriteExportWorkbook]; admins export everyone, retailers their own.
//
// # Errors
//
// Batch rejections and lookup failures are sentinel errors (errors.go).
// [MapError] turns any error into a coded [UserMessage] for display.
package core
