// Package envelope builds and verifies the "signed_data" wire frame
// that wraps hello, chat, public_chat, client_list_request,
// client_update_request and server_hello payloads (spec.md §3/§6).
//
// The signed bytes are JSON(data) concatenated with the decimal ASCII
// rendering of counter — not a combined JSON object. This matches
// spec.md's own worked example over original_source's sorted-key
// combined-object signing; see DESIGN.md's internal/protocol/envelope
// section.
package envelope
