package format

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/joltsms/joltsms-mcp/internal/joltsms"
)

const (
	NoNumbers     = "No phone numbers found. Use joltsms_provision_number to rent one."
	NothingToSave = "No fields to update. Provide at least one of: service_name, tags, notes."
	cleared       = "(cleared)"
)

// NumberList renders one summary line per number.
func NumberList(numbers []joltsms.Number) string {
	if len(numbers) == 0 {
		return NoNumbers
	}

	lines := lo.Map(numbers, func(n joltsms.Number, _ int) string {
		parts := []string{fmt.Sprintf("%s (%s)", n.PhoneNumber, n.Status)}
		if n.ServiceName != "" {
			parts = append(parts, "service: "+n.ServiceName)
		}
		if len(n.Tags) > 0 {
			parts = append(parts, "tags: "+strings.Join(n.Tags, ", "))
		}
		parts = append(parts, "messages: "+messageCount(n))
		if n.ExpiresAt != "" {
			parts = append(parts, "expires: "+joltsms.DatePart(n.ExpiresAt))
		}
		if n.SubscriptionID != "" {
			parts = append(parts, "sub: "+n.SubscriptionID)
		}
		return "- " + strings.Join(parts, " | ")
	})

	return fmt.Sprintf("Found %d number(s):\n%s", len(numbers), strings.Join(lines, "\n"))
}

// NumberDetail renders every known field of a single number.
func NumberDetail(n joltsms.Number) string {
	lines := []string{fmt.Sprintf("%s (%s)", n.PhoneNumber, n.Status)}

	if n.ServiceName != "" {
		lines = append(lines, "  Service: "+n.ServiceName)
	}
	if len(n.Tags) > 0 {
		lines = append(lines, "  Tags: "+strings.Join(n.Tags, ", "))
	}
	if n.Notes != "" {
		lines = append(lines, "  Notes: "+n.Notes)
	}
	lines = append(lines, "  Messages: "+messageCount(n))
	if n.RentedAt != "" {
		lines = append(lines, "  Rented: "+joltsms.DatePart(n.RentedAt))
	}
	if n.ExpiresAt != "" {
		lines = append(lines, "  Expires: "+joltsms.DatePart(n.ExpiresAt))
	}
	if n.SubscriptionID != "" {
		lines = append(lines, "  Subscription: "+n.SubscriptionID)
	}
	if n.AutoRenewEnabled != nil {
		lines = append(lines, "  Auto-renew: "+lo.Ternary(*n.AutoRenewEnabled, "enabled", "disabled"))
	}

	return strings.Join(lines, "\n")
}

// NumberUpdated echoes the fields that an update changed.
func NumberUpdated(phoneNumber string, update joltsms.NumberUpdate) string {
	lines := []string{fmt.Sprintf("Updated %s:", phoneNumber)}

	if update.ServiceName != nil {
		lines = append(lines, "  service: "+orCleared(*update.ServiceName))
	}
	if update.Tags != nil {
		lines = append(lines, "  tags: "+orCleared(strings.Join(*update.Tags, ", ")))
	}
	if update.Notes != nil {
		lines = append(lines, "  notes: "+orCleared(*update.Notes))
	}

	return strings.Join(lines, "\n")
}

func messageCount(n joltsms.Number) string {
	if n.UnreadCount > 0 {
		return fmt.Sprintf("%d (%d unread)", n.MessageCount, n.UnreadCount)
	}
	return fmt.Sprintf("%d", n.MessageCount)
}

func orCleared(s string) string {
	return lo.Ternary(s == "", cleared, s)
}
