package format

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/joltsms/joltsms-mcp/internal/joltsms"
)

const (
	NoSubscriptions = "No active subscriptions found. Use joltsms_provision_number to rent a number."

	// DefaultMonthlyPrice is shown when a subscription carries no price display.
	DefaultMonthlyPrice = "$50.00"
)

// ProvisionStarted renders a rent response. A response with Success false
// becomes a single failure line.
func ProvisionStarted(r *joltsms.RentResponse) string {
	if !r.Success {
		reason := lo.CoalesceOrEmpty(r.Error, r.Message, "Unknown error")
		return "Provisioning failed: " + reason
	}

	lines := []string{
		"Number provisioning started!",
		"Status: " + r.Status,
	}
	if r.SubscriptionID != "" {
		lines = append(lines, "Subscription: "+r.SubscriptionID)
	}
	if r.Message != "" {
		lines = append(lines, r.Message)
	}
	lines = append(lines,
		"Provisioning is async and may take a few seconds to minutes.",
		"Use joltsms_list_numbers to check when the number is ACTIVE.",
	)
	if r.RequiresAction {
		lines = append(lines, "NOTE: Payment requires additional authentication. The user needs to complete 3DS verification.")
	}

	return strings.Join(lines, "\n")
}

// PaymentRequired tells the user where to complete 3-D Secure verification.
func PaymentRequired(hostedInvoiceURL string) string {
	return strings.Join([]string{
		"Payment requires 3D Secure authentication.",
		"",
		"The user needs to complete payment verification at this URL:",
		hostedInvoiceURL,
		"",
		"After the user completes authentication, the number will be provisioned automatically.",
		"Use joltsms_list_numbers to check status.",
	}, "\n")
}

// ReleaseScheduled renders the result of turning off auto-renew.
func ReleaseScheduled(r *joltsms.CancelResponse) string {
	lines := []string{lo.Ternary(r.Success, "Number scheduled for release.", "Failed to release number.")}
	if r.Message != "" {
		lines = append(lines, r.Message)
	}
	lines = append(lines,
		"The number will remain active until the end of the current billing period.",
		"SMS will continue to be received until then.",
	)
	return strings.Join(lines, "\n")
}

// BillingStatus renders up to limit subscriptions. phones maps number IDs to
// phone numbers; subscriptions without a known number are labelled by ID.
func BillingStatus(subs []joltsms.Subscription, phones map[string]string, limit int) string {
	if len(subs) == 0 {
		return NoSubscriptions
	}

	total := len(subs)
	shown := subs
	if limit > 0 && limit < total {
		shown = subs[:limit]
	}

	lines := lo.Map(shown, func(s joltsms.Subscription, i int) string {
		label := lo.CoalesceOrEmpty(phones[s.NumberID], s.ID)
		price := lo.CoalesceOrEmpty(s.BasePriceDisplay, DefaultMonthlyPrice)
		period := lo.Ternary(s.CancelAtPeriodEnd, "cancels: ", "renews: ") + joltsms.DatePart(s.CurrentPeriodEnd)
		autoRenew := lo.Ternary(s.CancelAtPeriodEnd, "off", "on")
		return fmt.Sprintf("%d. %s | %s | %s/mo | %s | auto-renew: %s",
			i+1, label, s.BillingHealth, price, period, autoRenew)
	})

	return fmt.Sprintf("%d subscription(s):\n%s\n(Showing %d of %d)",
		total, strings.Join(lines, "\n"), len(shown), total)
}

// PhoneIndex maps number IDs to phone numbers.
func PhoneIndex(numbers []joltsms.Number) map[string]string {
	return lo.SliceToMap(numbers, func(n joltsms.Number) (string, string) {
		return n.ID, n.PhoneNumber
	})
}
