package relayserver

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	domain "olaf/internal/domain"
	"olaf/internal/protocol/envelope"
)

// handleClientFrame runs the C2 verifier against h's stored key and
// counter, then dispatches by inner type (spec.md §4.4).
func (s *Server) handleClientFrame(h *clientHandle, raw []byte) {
	env, err := envelope.Parse(raw)
	if err != nil {
		framesDropped.WithLabelValues("unparseable").Inc()
		return
	}

	s.mu.Lock()
	lastCounter := h.lastCounter
	s.mu.Unlock()

	if err := envelope.Verify(env, h.pubKey, lastCounter); err != nil {
		s.mu.Lock()
		h.failures++
		fail := h.failures
		s.mu.Unlock()

		framesDropped.WithLabelValues("signature").Inc()
		s.Log.WithFields(logrus.Fields{"client": h.fingerprint, "error": err, "failures": fail}).Debug("dropping client frame")
		if fail >= MaxSignatureFailures {
			s.Log.WithField("client", h.fingerprint).Warn("disconnecting client after repeated signature failures")
			h.conn.Close()
		}
		return
	}

	s.mu.Lock()
	h.lastCounter = env.Counter
	h.failures = 0
	s.mu.Unlock()

	it, err := envelope.InnerType(env)
	if err != nil {
		framesDropped.WithLabelValues("unknown_type").Inc()
		return
	}

	switch it {
	case domain.InnerClientListRequest:
		s.replyClientList(h)
	case domain.InnerChat:
		s.routeChat(h.fingerprint, env, raw)
	case domain.InnerPublicChat:
		s.routePublicChat(h.fingerprint, raw)
	default:
		framesDropped.WithLabelValues("unsupported_from_client").Inc()
	}
}

// HandlePeerFrame logs and processes one frame from an outbound-dialed
// peer link; it is neighbourhood.Registry's FrameHandler. The inbound
// read loop in handlePeerConn calls handlePeerFrame directly.
func (s *Server) HandlePeerFrame(addr domain.Address, raw []byte) {
	s.logFrame("recv", raw)
	s.handlePeerFrame(addr, raw)
}

// handlePeerFrame processes a frame received over an established peer
// link. chat/public_chat are treated as already-authenticated at the
// peer boundary (spec.md §4.4); client_update/client_update_request
// are handled here directly.
func (s *Server) handlePeerFrame(addr domain.Address, raw []byte) {
	var t domain.TypeOnly
	if json.Unmarshal(raw, &t) == nil && t.Type == domain.InnerClientUpdate {
		var upd domain.ClientUpdateMessage
		if err := json.Unmarshal(raw, &upd); err == nil {
			s.Registry.UpdateLastSeen(addr, upd.Clients)
		}
		return
	}

	env, err := envelope.Parse(raw)
	if err != nil {
		framesDropped.WithLabelValues("unparseable_peer").Inc()
		return
	}
	it, err := envelope.InnerType(env)
	if err != nil {
		framesDropped.WithLabelValues("unknown_type_peer").Inc()
		return
	}

	switch it {
	case domain.InnerClientUpdateRequest:
		if err := s.Registry.VerifyInbound(addr, env); err != nil {
			framesDropped.WithLabelValues("signature_peer").Inc()
			return
		}
		s.sendClientUpdateTo(addr)
	case domain.InnerChat:
		s.fanOutLocal(raw, "")
	case domain.InnerPublicChat:
		s.fanOutLocal(raw, "")
	default:
		framesDropped.WithLabelValues("unsupported_from_peer").Inc()
	}
}

// routeChat implements the destination_servers routing rule: local
// delivery fans the frame out to every other local client; any other
// address gets the frame forwarded unchanged over that peer link, and
// is dropped if the peer isn't Connected.
func (s *Server) routeChat(sender domain.Fingerprint, env domain.Envelope, raw []byte) {
	var payload domain.ChatPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		framesDropped.WithLabelValues("bad_chat_payload").Inc()
		return
	}

	for _, dest := range payload.DestinationServers {
		if domain.Address(dest) == s.Self {
			s.fanOutLocal(raw, sender)
			continue
		}
		sent, err := s.Registry.Send(domain.Address(dest), raw)
		if err != nil {
			s.Log.WithFields(logrus.Fields{"dest": dest, "error": err}).Warn("chat forward failed")
			continue
		}
		if !sent {
			framesDropped.WithLabelValues("peer_not_connected").Inc()
			continue
		}
		chatFramesForwarded.Inc()
	}
}

// routePublicChat broadcasts locally (excluding the sender) and
// forwards exactly one hop to every connected peer.
func (s *Server) routePublicChat(sender domain.Fingerprint, raw []byte) {
	s.fanOutLocal(raw, sender)
	s.Registry.Broadcast(raw)
	publicChatBroadcast.Inc()
}

// fanOutLocal writes raw to every locally connected client except
// exclude (pass "" to include everyone).
func (s *Server) fanOutLocal(raw []byte, exclude domain.Fingerprint) {
	s.mu.Lock()
	targets := make([]*clientHandle, 0, len(s.clients))
	for fp, h := range s.clients {
		if fp == exclude {
			continue
		}
		targets = append(targets, h)
	}
	s.mu.Unlock()

	for _, h := range targets {
		if err := h.conn.WriteMessage(raw); err != nil {
			s.Log.WithFields(logrus.Fields{"client": h.fingerprint, "error": err}).Debug("local fan-out write failed")
		}
	}
}

// replyClientList answers a client_list_request inline with every
// server's worth of clients, self first (spec.md §4.4).
func (s *Server) replyClientList(h *clientHandle) {
	msg := domain.ClientListMessage{Type: domain.InnerClientList, Servers: s.buildClientListEntries()}
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.logFrame("send", raw)
	_ = h.conn.WriteMessage(raw)
}

func (s *Server) buildClientListEntries() []domain.ClientListEntry {
	selfFP, _ := s.selfFingerprint()

	s.mu.Lock()
	localPEMs := make([]string, 0, len(s.clients))
	for _, h := range s.clients {
		pemBytes, err := encodePublicPEMOrEmpty(h.pubKey)
		if err == nil {
			localPEMs = append(localPEMs, pemBytes)
		}
	}
	s.mu.Unlock()

	entries := []domain.ClientListEntry{{
		Address:           s.Self.String(),
		ServerFingerprint: selfFP.String(),
		Clients:           localPEMs,
	}}

	if s.Registry != nil {
		for _, rec := range s.Registry.Snapshot() {
			entries = append(entries, domain.ClientListEntry{
				Address: rec.Address.String(),
				Clients: rec.LastSeenClients,
			})
		}
	}
	return entries
}

// broadcastClientUpdate tells every connected peer the current local
// client list (spec.md §4.4 step 2 and the client-disconnect rule).
func (s *Server) broadcastClientUpdate() {
	raw := s.buildClientUpdateFrame()
	s.logFrame("send", raw)
	s.Registry.Broadcast(raw)
}

// sendClientUpdateRequest asks a newly accepted peer link to send back
// its own client directory (spec.md §4.4's "On accept, send
// client_update_request"), mirroring the dialing side's
// neighbourhood.Registry.sendClientUpdateRequest.
func (s *Server) sendClientUpdateRequest(addr domain.Address, conn domain.Conn) {
	counter := s.Registry.NextCounter(addr)
	env, err := envelope.Build(domain.ClientUpdateRequestPayload{Type: domain.InnerClientUpdateRequest}, s.Priv, counter)
	if err != nil {
		s.Log.WithError(err).Error("failed to build client_update_request")
		return
	}
	raw, err := envelope.Marshal(env)
	if err != nil {
		s.Log.WithError(err).Error("failed to marshal client_update_request")
		return
	}
	s.logFrame("send", raw)
	if err := conn.WriteMessage(raw); err != nil {
		s.Log.WithFields(logrus.Fields{"peer": addr, "error": err}).Warn("failed to send client_update_request")
	}
}

func (s *Server) sendClientUpdateTo(addr domain.Address) {
	raw := s.buildClientUpdateFrame()
	s.logFrame("send", raw)
	_, _ = s.Registry.Send(addr, raw)
}

func (s *Server) buildClientUpdateFrame() []byte {
	s.mu.Lock()
	pems := make([]string, 0, len(s.clients))
	for _, h := range s.clients {
		pemBytes, err := encodePublicPEMOrEmpty(h.pubKey)
		if err == nil {
			pems = append(pems, pemBytes)
		}
	}
	s.mu.Unlock()

	msg := domain.ClientUpdateMessage{Type: domain.InnerClientUpdate, Clients: pems}
	raw, _ := json.Marshal(msg)
	return raw
}
