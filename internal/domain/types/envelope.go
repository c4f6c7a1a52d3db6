package types

import "encoding/json"

// InnerType names the payload carried inside a signed_data envelope, or
// (for client_update/client_list) a bare top-level message.
type InnerType string

const (
	InnerHello                InnerType = "hello"
	InnerChat                 InnerType = "chat"
	InnerPublicChat            InnerType = "public_chat"
	InnerClientListRequest     InnerType = "client_list_request"
	InnerClientUpdateRequest   InnerType = "client_update_request"
	InnerServerHello           InnerType = "server_hello"
	InnerClientUpdate          InnerType = "client_update"
	InnerClientList            InnerType = "client_list"
)

// Envelope is the outer "signed_data" wire frame (spec.md §3/§6).
//
// Data holds the exact bytes the sender signed: Build never re-encodes
// them, and Verify never re-encodes them either, so the same bytes that
// were signed are the ones authenticated.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Counter   uint64          `json:"counter"`
	Signature string          `json:"signature"`
}

// TypeOnly reads just the "type" discriminator of a RawMessage payload,
// without decoding the rest of the struct.
type TypeOnly struct {
	Type InnerType `json:"type"`
}

// HelloPayload is the first message a client sends its home server.
type HelloPayload struct {
	Type      InnerType `json:"type"`
	PublicKey string    `json:"public_key"` // PEM, base64 is not applied again
}

// ChatPayload is the end-to-end encrypted multi-recipient chat envelope
// data (spec.md §3). SymmKeys is flat, grouped by DestinationServers
// order and then by the sender's add-recipient iteration order within
// each group (spec.md §9).
type ChatPayload struct {
	Type               InnerType `json:"type"`
	DestinationServers []string  `json:"destination_servers"`
	IV                 string    `json:"iv"`
	SymmKeys           []string  `json:"symm_keys"`
	Chat               string    `json:"chat"`
}

// ChatInner is the plaintext JSON sealed inside ChatPayload.Chat.
type ChatInner struct {
	Participants []string `json:"participants"`
	Message      string   `json:"message"`
}

// PublicChatPayload is a signed, unencrypted broadcast message.
type PublicChatPayload struct {
	Type    InnerType `json:"type"`
	Sender  string    `json:"sender"`
	Message string    `json:"message"`
}

// ClientListRequestPayload requests a directory refresh.
type ClientListRequestPayload struct {
	Type InnerType `json:"type"`
}

// ClientUpdateRequestPayload asks a peer to resend its client directory.
type ClientUpdateRequestPayload struct {
	Type InnerType `json:"type"`
}

// ServerHelloPayload is sent by the dialing side of a new peer link.
type ServerHelloPayload struct {
	Type   InnerType `json:"type"`
	Sender string    `json:"sender"` // the dialing server's own address
}

// ClientUpdateMessage is the bare, unsigned message a server sends its
// peers listing the PEM public keys of its own locally connected
// clients (spec.md §3/§9: not part of the signed_data family).
type ClientUpdateMessage struct {
	Type    InnerType `json:"type"`
	Clients []string  `json:"clients"` // PEM, one per locally connected client
}

// ClientListEntry is one server's worth of clients in a client_list reply.
//
// Clients carries PEM public keys, not bare fingerprints: a requesting
// client must be able to derive both the fingerprint and the RSA-OAEP
// recipient key from this reply (spec.md §4.6 caches "fingerprint ->
// public key PEM -> home-server address"), which a fingerprint-only list
// cannot support. This follows original_source/server/server.py's
// send_client_list, which always carries full PEM keys; callers derive
// the fingerprint themselves via internal/crypto.Fingerprint.
type ClientListEntry struct {
	Address           string   `json:"address"`
	ServerFingerprint string   `json:"server_fingerprint,omitempty"`
	Clients           []string `json:"clients"` // PEM public keys
}

// ClientListMessage is the bare, unsigned reply to a client_list_request
// (spec.md §6: "no signature — it is a directory hint only").
type ClientListMessage struct {
	Type    InnerType         `json:"type"`
	Servers []ClientListEntry `json:"servers"`
}
