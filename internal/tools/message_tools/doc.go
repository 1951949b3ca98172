// Package message_tools provides MCP tools for reading the SMS messages
// received on JoltSMS numbers.
//
// # Available Tools
//
//   - joltsms_list_messages: List recent messages, optionally for one number or sender
//   - joltsms_wait_for_sms: Poll a number until an SMS arrives or the timeout passes
//   - joltsms_get_latest_otp: Return the newest parsed verification code on a number
//   - joltsms_mark_read: Mark one message, or every message on a number, as read
//
// joltsms_mark_read changes server state and is not registered in read-only
// mode.
//
// # OTP Workflow
//
// A typical verification flow triggers a code on a third-party site using a
// JoltSMS number, then calls joltsms_wait_for_sms with that number. The wait
// only considers messages received after it started, so a code delivered
// earlier is never mistaken for the new one. joltsms_get_latest_otp covers
// the case where the code has already arrived.
package message_tools
