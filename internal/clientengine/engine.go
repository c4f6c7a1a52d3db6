package clientengine

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"olaf/internal/applog"
	"olaf/internal/crypto"
	domain "olaf/internal/domain"
	"olaf/internal/protocol/chat"
	"olaf/internal/protocol/envelope"
)

// State is the client protocol engine's connection lifecycle (spec.md
// §4.6: "Idle -> Connecting -> Hello-Sent -> Ready -> (Closed)").
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateHelloSent
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateHelloSent:
		return "hello-sent"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrNotReady is returned by Send* calls made before the hello
// handshake has completed.
var ErrNotReady = errors.New("clientengine: not connected to home server")

// ErrUnknownRecipients is returned when SendChat is asked to message a
// fingerprint missing from the cached directory.
var ErrUnknownRecipients = errors.New("clientengine: one or more recipients are not in the cached directory")

// Engine drives one client's connection to its home server: identity,
// directory cache, and outbound/inbound chat.
type Engine struct {
	home   domain.Address
	priv   *rsa.PrivateKey
	pubPEM []byte
	fp     domain.Fingerprint

	dialer Dialer
	log    *logrus.Logger

	clientKeys domain.ClientKeyCache
	messages   domain.MessageLog
	dir        *Directory

	mu      sync.Mutex
	state   State
	conn    domain.Conn
	counter uint64
}

// New builds an Engine for the identity (priv, pubPEM) talking to
// home. clientKeys seeds remembered sender keys used while verifying
// chat signatures; messages is where received chats are appended.
func New(home domain.Address, priv *rsa.PrivateKey, pubPEM []byte, dialer Dialer, clientKeys domain.ClientKeyCache, messages domain.MessageLog, log *logrus.Logger) (*Engine, error) {
	fpStr, err := crypto.Fingerprint(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	return &Engine{
		home:       home,
		priv:       priv,
		pubPEM:     pubPEM,
		fp:         domain.Fingerprint(fpStr),
		dialer:     dialer,
		log:        log,
		clientKeys: clientKeys,
		messages:   messages,
		dir:        newDirectory(),
		state:      StateIdle,
	}, nil
}

// Fingerprint returns this client's own fingerprint.
func (e *Engine) Fingerprint() domain.Fingerprint { return e.fp }

// State reports the current connection lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Directory exposes the cached client directory for C7's
// GET /get_clients.
func (e *Engine) Directory() *Directory { return e.dir }

// MessageLog exposes the received-message store for C7's
// GET /get_messages.
func (e *Engine) MessageLog() domain.MessageLog { return e.messages }

// Connect dials the home server, sends hello as counter 1, and runs
// the inbound read loop until ctx is cancelled or the connection
// drops. It blocks; callers run it in its own goroutine.
func (e *Engine) Connect(ctx context.Context) error {
	e.setState(StateConnecting)

	conn, err := e.dialer.Dial(ctx, e.home)
	if err != nil {
		e.setState(StateIdle)
		return err
	}

	e.mu.Lock()
	e.conn = conn
	e.counter = 1
	e.mu.Unlock()
	e.setState(StateHelloSent)

	env, err := envelope.Build(domain.HelloPayload{Type: domain.InnerHello, PublicKey: string(e.pubPEM)}, e.priv, 1)
	if err != nil {
		conn.Close()
		e.setState(StateIdle)
		return err
	}
	raw, err := envelope.Marshal(env)
	if err != nil {
		conn.Close()
		e.setState(StateIdle)
		return err
	}
	if err := conn.WriteMessage(raw); err != nil {
		conn.Close()
		e.setState(StateIdle)
		return err
	}

	e.setState(StateReady)
	defer func() {
		conn.Close()
		e.setState(StateClosed)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		applog.LogMessage(e.log, "recv", raw, false)
		e.handleInbound(raw)
	}
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) nextCounter() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counter++
	return e.counter
}

func (e *Engine) send(payload any) error {
	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()
	if conn == nil {
		return ErrNotReady
	}

	env, err := envelope.Build(payload, e.priv, e.nextCounter())
	if err != nil {
		return err
	}
	raw, err := envelope.Marshal(env)
	if err != nil {
		return err
	}
	applog.LogMessage(e.log, "send", raw, false)
	return conn.WriteMessage(raw)
}

// RequestClientList asks the home server to resend the directory
// (spec.md §4.6: driven periodically by the façade).
func (e *Engine) RequestClientList() error {
	return e.send(domain.ClientListRequestPayload{Type: domain.InnerClientListRequest})
}

// SendChat encrypts message for recipients, grouping by home server as
// spec.md §4.6 describes, and sends the resulting chat envelope.
func (e *Engine) SendChat(recipients []domain.Fingerprint, message string) error {
	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()
	if conn == nil {
		return ErrNotReady
	}
	destinations, group, missing := e.dir.groupByServer(recipients)
	if len(missing) > 0 {
		return ErrUnknownRecipients
	}
	payload, err := chat.Build(destinations, e.fp, group, message)
	if err != nil {
		return err
	}
	return e.send(payload)
}

// SendPublicChat sends an unencrypted, signed broadcast.
func (e *Engine) SendPublicChat(message string) error {
	return e.send(domain.PublicChatPayload{Type: domain.InnerPublicChat, Sender: e.fp.String(), Message: message})
}

func (e *Engine) handleInbound(raw []byte) {
	var t domain.TypeOnly
	if json.Unmarshal(raw, &t) == nil {
		switch t.Type {
		case domain.InnerClientUpdate:
			return
		case domain.InnerClientList:
			var msg domain.ClientListMessage
			if json.Unmarshal(raw, &msg) == nil {
				e.dir.Replace(msg.Servers)
				e.persistDirectory()
			}
			return
		}
	}

	env, err := envelope.Parse(raw)
	if err != nil {
		return
	}
	it, err := envelope.InnerType(env)
	if err != nil {
		return
	}

	switch it {
	case domain.InnerChat:
		e.handleChat(env)
	case domain.InnerPublicChat:
		e.handlePublicChat(env)
	}
}

func (e *Engine) handleChat(env domain.Envelope) {
	var payload domain.ChatPayload
	if json.Unmarshal(env.Data, &payload) != nil {
		return
	}
	sender, inner, err := chat.Open(payload, e.priv, e.fp)
	if err != nil {
		e.log.WithError(err).Debug("chat message could not be opened")
		return
	}
	if err := e.verifyEnvelope(sender, env, true); err != nil {
		e.log.WithFields(logrus.Fields{"sender": sender, "error": err}).Warn("dropping chat with bad signature")
		return
	}
	e.storeMessage(sender, inner.Message)
}

func (e *Engine) handlePublicChat(env domain.Envelope) {
	var payload domain.PublicChatPayload
	if json.Unmarshal(env.Data, &payload) != nil {
		return
	}
	sender := domain.Fingerprint(payload.Sender)
	if err := e.verifyEnvelope(sender, env, false); err != nil {
		e.log.WithFields(logrus.Fields{"sender": sender, "error": err}).Warn("dropping public chat with bad signature")
		return
	}
	e.storeMessage(sender, payload.Message)
}

// verifyEnvelope checks env's signature against the sender's cached
// directory key. If the sender is unknown and requestOnMiss is set, it
// requests a fresh client_list once and still reports the miss to the
// caller (spec.md §4.6: "if the sender is unknown, request a fresh
// client_list and retry once" — the retry itself happens the next time
// this sender's frame arrives, once the directory refresh lands).
func (e *Engine) verifyEnvelope(sender domain.Fingerprint, env domain.Envelope, requestOnMiss bool) error {
	entry, ok := e.dir.Lookup(sender)
	if !ok {
		if requestOnMiss {
			_ = e.RequestClientList()
		}
		return ErrUnknownRecipients
	}
	// lastCounter=0: the client only checks the signature, not replay
	// ordering — the home server already enforced strictly-increasing
	// counters before relaying this frame.
	return envelope.Verify(env, entry.PubKey, 0)
}

// persistDirectory writes every freshly cached client key to disk so
// the directory survives a restart even before the next client_list
// reply arrives (spec.md §6: "<clients>/<fingerprint>.pem").
func (e *Engine) persistDirectory() {
	if e.clientKeys == nil {
		return
	}
	for _, fp := range e.dir.Fingerprints() {
		entry, ok := e.dir.Lookup(fp)
		if !ok {
			continue
		}
		if err := e.clientKeys.SaveClientKey(fp, []byte(entry.PEM)); err != nil {
			e.log.WithFields(logrus.Fields{"client": fp, "error": err}).Debug("failed to cache client key")
		}
	}
}

func (e *Engine) storeMessage(sender domain.Fingerprint, message string) {
	if e.messages == nil {
		return
	}
	msg := domain.StoredMessage{Sender: sender.String(), Message: message, Timestamp: time.Now().Unix()}
	if err := e.messages.Append(msg); err != nil {
		e.log.WithError(err).Warn("failed to append received message")
	}
}
