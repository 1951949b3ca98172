// Package number_tools provides MCP tools for the phone numbers rented on a
// JoltSMS account.
//
// # Available Tools
//
// Read-only:
//   - joltsms_list_numbers: List owned numbers with status, labels and message counts
//   - joltsms_get_number: Show one number in detail
//
// Write (not registered in read-only mode):
//   - joltsms_update_number: Set or clear the service label, tags and notes
//   - joltsms_provision_number: Rent a new number, optionally in a given area code
//   - joltsms_release_number: Turn off auto-renew so the number lapses at period end
//
// Tools that take a number_id accept either the number's UUID or its phone
// number in any common US format.
package number_tools
