// Package joltsms provides a client for the JoltSMS REST API.
//
// JoltSMS rents dedicated real-SIM US phone numbers and receives inbound SMS
// on them, parsing verification codes server-side. This package offers:
//   - Listing, updating, renting and releasing numbers
//   - Listing messages and marking them read
//   - Billing subscription lookups
//   - Phone number normalisation to E.164 and resolution of a phone number
//     to the opaque number ID the API is keyed by
//
// Every request carries the API key as a Bearer token and is bounded by a
// 30 second timeout. Failed requests are reported as *APIError; the error
// kinds callers branch on are exposed as sentinels (ErrInvalidFormat,
// ErrNotFound, ErrTimeout, ErrValidation, ErrUpstream).
//
// Example usage:
//
//	client, err := joltsms.NewClient(joltsms.DefaultBaseURL, os.Getenv("JOLTSMS_API_KEY"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resolver := joltsms.NewResolver(client)
//	id, err := resolver.ResolveNumberID(ctx, "(650) 555-1234")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msgs, err := client.ListMessages(ctx, joltsms.ListMessagesParams{NumberID: id, Limit: 10})
package joltsms
