package format

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/joltsms/joltsms-mcp/internal/joltsms"
)

const (
	NoMessages       = "No messages found."
	NoRecentMessages = "No recent messages found. The OTP may not have arrived yet. Try joltsms_wait_for_sms to poll."

	// BodyPreviewLength caps message bodies in listings.
	BodyPreviewLength = 200
)

// MessageList renders a page of messages with a preview of each body.
func MessageList(page *joltsms.ListResponse[joltsms.Message]) string {
	if page == nil || len(page.Data) == 0 {
		return NoMessages
	}

	header := fmt.Sprintf("%d message(s)%s:", len(page.Data), lo.Ternary(page.Meta.HasMore, " (more available)", ""))
	lines := []string{header, ""}

	for i, m := range page.Data {
		parts := []string{
			"From: " + m.From,
			"To: " + m.Number.PhoneNumber,
			"Body: " + preview(m.Body),
		}
		if m.ParsedCode != "" {
			parts = append(parts, "OTP Code: "+m.ParsedCode)
		}
		parts = append(parts, "Received: "+m.ReceivedAt)
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, strings.Join(parts, "\n  ")))
	}

	if cursor := page.Cursor(); cursor != "" {
		lines = append(lines, "", "Next page cursor: "+cursor)
	}

	return strings.Join(lines, "\n")
}

// MarkedRead confirms a single message was marked read.
func MarkedRead(r *joltsms.MarkReadResponse) string {
	return fmt.Sprintf("Marked message %s as read (at %s)", r.MessageID, r.ReadAt)
}

// MarkedAllRead confirms a bulk mark-read on one number.
func MarkedAllRead(count int, phoneNumber string) string {
	return fmt.Sprintf("Marked %d message(s) on %s as read", count, phoneNumber)
}

// SMSReceived renders the message that ended a wait.
func SMSReceived(m *joltsms.Message, elapsed time.Duration, polls int) string {
	lines := []string{
		fmt.Sprintf("SMS received after %s (%d polls):", seconds(elapsed), polls),
		"From: " + m.From,
		"To: " + m.Number.PhoneNumber,
		"Body: " + m.Body,
	}
	if m.ParsedCode != "" {
		lines = append(lines, "", "OTP Code: "+m.ParsedCode)
	}
	lines = append(lines,
		"",
		"Received at: "+m.ReceivedAt,
		"Message ID: "+m.ID,
	)
	return strings.Join(lines, "\n")
}

// SMSTimedOut is returned when a wait ends without a matching message.
func SMSTimedOut(elapsed time.Duration, polls int) string {
	return fmt.Sprintf("No SMS received after %s (%d polls). The sender may not have sent the message yet, or it's still being delivered.",
		seconds(elapsed), polls)
}

// LatestOTP renders the newest message carrying a parsed code. Without one it
// falls back to the newest message so the code can be read by hand. messages
// must be ordered newest first.
func LatestOTP(messages []joltsms.Message) string {
	if len(messages) == 0 {
		return NoRecentMessages
	}

	withCode, ok := lo.Find(messages, func(m joltsms.Message) bool {
		return m.ParsedCode != ""
	})
	if !ok {
		latest := messages[0]
		return strings.Join([]string{
			"No parsed OTP code found in recent messages.",
			fmt.Sprintf("Most recent message (%s):", latest.ReceivedAt),
			"From: " + latest.From,
			"Body: " + latest.Body,
			"",
			"The OTP may need to be extracted manually from the message body above.",
		}, "\n")
	}

	return strings.Join([]string{
		"OTP Code: " + withCode.ParsedCode,
		"",
		"From: " + withCode.From,
		"Body: " + withCode.Body,
		"Received: " + withCode.ReceivedAt,
		"Message ID: " + withCode.ID,
	}, "\n")
}

func preview(body string) string {
	if utf8.RuneCountInString(body) <= BodyPreviewLength {
		return body
	}
	return lo.Substring(body, 0, BodyPreviewLength) + "..."
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
