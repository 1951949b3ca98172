// Package billing_tools provides the joltsms_billing_status MCP tool, which
// lists the account's subscriptions with billing health, price and renewal
// dates, labelled by phone number where the number is known.
package billing_tools
