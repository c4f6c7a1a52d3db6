package domain

import (
	interfaces "olaf/internal/domain/interfaces"
	types "olaf/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Fingerprint             = types.Fingerprint
	Address                 = types.Address
	InnerType               = types.InnerType
	Envelope                = types.Envelope
	TypeOnly                = types.TypeOnly
	HelloPayload            = types.HelloPayload
	ChatPayload             = types.ChatPayload
	ChatInner               = types.ChatInner
	PublicChatPayload       = types.PublicChatPayload
	ClientListRequestPayload = types.ClientListRequestPayload
	ClientUpdateRequestPayload = types.ClientUpdateRequestPayload
	ServerHelloPayload      = types.ServerHelloPayload
	ClientUpdateMessage     = types.ClientUpdateMessage
	ClientListEntry         = types.ClientListEntry
	ClientListMessage       = types.ClientListMessage
	ClientRecord            = types.ClientRecord
	PeerState               = types.PeerState
	PeerRecord              = types.PeerRecord
	FileRecord              = types.FileRecord
	StoredMessage           = types.StoredMessage
)

const (
	PeerDisconnected = types.PeerDisconnected
	PeerConnecting   = types.PeerConnecting
	PeerHandshaking  = types.PeerHandshaking
	PeerConnected    = types.PeerConnected
)

const (
	InnerHello               = types.InnerHello
	InnerChat                = types.InnerChat
	InnerPublicChat          = types.InnerPublicChat
	InnerClientListRequest   = types.InnerClientListRequest
	InnerClientUpdateRequest = types.InnerClientUpdateRequest
	InnerServerHello         = types.InnerServerHello
	InnerClientUpdate        = types.InnerClientUpdate
	InnerClientList          = types.InnerClientList
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	KeyStore           = interfaces.KeyStore
	NeighbourDirectory = interfaces.NeighbourDirectory
	ClientKeyCache     = interfaces.ClientKeyCache
	MessageLog         = interfaces.MessageLog
	FileLedger         = interfaces.FileLedger
	Conn               = interfaces.Conn
)
