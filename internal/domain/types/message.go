package types

// StoredMessage is one entry in the client's local append-only message
// log (spec.md §6: "<chat_data>/messages.jsonl"), surfaced by C7's
// GET /get_messages.
type StoredMessage struct {
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}
