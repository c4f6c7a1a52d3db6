package facade

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"olaf/internal/clientengine"
	"olaf/internal/config"
	"olaf/internal/crypto"
	domain "olaf/internal/domain"
)

type fakeConn struct {
	mu      sync.Mutex
	sent    [][]byte
	inbound chan []byte
	closed  bool
}

func newFakeConn() *fakeConn { return &fakeConn{inbound: make(chan []byte, 16)} }

func (c *fakeConn) ReadMessage() ([]byte, error) {
	raw, ok := <-c.inbound
	if !ok {
		return nil, io.EOF
	}
	return raw, nil
}

func (c *fakeConn) WriteMessage(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, append([]byte(nil), b...))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.inbound)
	}
	return nil
}

func (c *fakeConn) RemoteAddr() string { return "fake" }

type fakeDialer struct{ conn *fakeConn }

func (d fakeDialer) Dial(ctx context.Context, addr domain.Address) (domain.Conn, error) {
	return d.conn, nil
}

type memMessageLog struct {
	mu   sync.Mutex
	msgs []domain.StoredMessage
}

func (l *memMessageLog) Append(msg domain.StoredMessage) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
	return nil
}

func (l *memMessageLog) All() ([]domain.StoredMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.StoredMessage, len(l.msgs))
	copy(out, l.msgs)
	return out, nil
}

func newTestFacade(t *testing.T) (*Facade, *fakeConn) {
	t.Helper()
	priv, err := crypto.GenerateRSA()
	if err != nil {
		t.Fatalf("GenerateRSA: %v", err)
	}
	pubPEM, err := crypto.EncodePublicPEM(&priv.PublicKey)
	if err != nil {
		t.Fatalf("EncodePublicPEM: %v", err)
	}
	conn := newFakeConn()
	log := logrus.New()
	log.SetOutput(io.Discard)

	engine, err := clientengine.New("home:8765", priv, pubPEM, fakeDialer{conn: conn}, nil, &memMessageLog{}, log)
	if err != nil {
		t.Fatalf("clientengine.New: %v", err)
	}
	go engine.Connect(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for engine.State() != clientengine.StateReady {
		if time.Now().After(deadline) {
			t.Fatal("engine never reached Ready")
		}
		time.Sleep(time.Millisecond)
	}

	cfg := config.ClientConfig{ClientName: "alice", ServerAddress: "home", ServerPort: 8765, HTTPPort: 5000, PublicHost: "alice.example"}
	return New(engine, cfg, log), conn
}

func TestGetFingerprintReportsIdentity(t *testing.T) {
	f, _ := newTestFacade(t)
	mux := http.NewServeMux()
	f.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/get_fingerprint")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["fingerprint"] != f.Engine.Fingerprint().String() {
		t.Fatalf("fingerprint mismatch: %v", out)
	}
	if out["name"] != "alice" || out["public_host"] != "alice.example" {
		t.Fatalf("unexpected identity fields: %v", out)
	}
}

func TestSendPublicMessageBuildsPublicChatFrame(t *testing.T) {
	f, conn := newTestFacade(t)
	mux := http.NewServeMux()
	f.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/send_public_message", "application/json", strings.NewReader(`{"message":"hello everyone"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}

	conn.mu.Lock()
	n := len(conn.sent)
	conn.mu.Unlock()
	if n < 2 {
		t.Fatalf("want at least hello+public_chat frames, got %d", n)
	}
}

func TestSendMessageUnknownRecipientReturnsBadGateway(t *testing.T) {
	f, _ := newTestFacade(t)
	mux := http.NewServeMux()
	f.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/send_message", "application/json", strings.NewReader(`{"message":"hi","recipients":["stranger"]}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("want 502 for unknown recipient, got %d", resp.StatusCode)
	}
}

func TestGetMessagesReturnsStoredMessages(t *testing.T) {
	f, _ := newTestFacade(t)
	if err := f.Engine.MessageLog().Append(domain.StoredMessage{Sender: "bob", Message: "yo", Timestamp: 1}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	mux := http.NewServeMux()
	f.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/get_messages")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out struct {
		Messages []domain.StoredMessage `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Messages) != 1 || out.Messages[0].Sender != "bob" {
		t.Fatalf("unexpected messages: %+v", out.Messages)
	}
}

func TestUploadFilePostsToHomeServerThenEmitsChat(t *testing.T) {
	var uploadedName string
	homeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("home server ParseMultipartForm: %v", err)
		}
		_, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("home server FormFile: %v", err)
		}
		uploadedName = header.Filename
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"file_url":"http://home:8081/files/abc/` + header.Filename + `"}`))
	}))
	defer homeServer.Close()

	f, conn := newTestFacade(t)
	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(homeServer.URL, "http://"))
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("Atoi: %v", err)
	}
	f.Config.ServerAddress = host
	f.Config.ServerHTTPPort = port

	mux := http.NewServeMux()
	f.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("file", "report.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte("file contents")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	resp, err := http.Post(srv.URL+"/upload_file", mw.FormDataContentType(), buf)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("want 200, got %d: %s", resp.StatusCode, b)
	}
	if uploadedName != "report.txt" {
		t.Fatalf("want home server to receive report.txt, got %q", uploadedName)
	}

	conn.mu.Lock()
	n := len(conn.sent)
	conn.mu.Unlock()
	if n < 2 {
		t.Fatalf("want hello+public_chat frames after upload, got %d", n)
	}
}
