package facade

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"olaf/internal/clientengine"
	"olaf/internal/config"
	domain "olaf/internal/domain"
)

// Facade serves C7's polling surface on top of one client's Engine.
type Facade struct {
	Engine *clientengine.Engine
	Config config.ClientConfig
	Log    *logrus.Logger
	Client *http.Client
}

// New returns a Facade for engine using cfg for the identity fields
// GET /get_fingerprint reports.
func New(engine *clientengine.Engine, cfg config.ClientConfig, log *logrus.Logger) *Facade {
	return &Facade{Engine: engine, Config: cfg, Log: log, Client: &http.Client{Timeout: 30 * time.Second}}
}

// RegisterRoutes wires every C7 endpoint onto mux.
func (f *Facade) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /get_fingerprint", f.handleGetFingerprint)
	mux.HandleFunc("GET /get_clients", f.handleGetClients)
	mux.HandleFunc("GET /request_client_list", f.handleRequestClientList)
	mux.HandleFunc("GET /get_messages", f.handleGetMessages)
	mux.HandleFunc("POST /send_message", f.handleSendMessage)
	mux.HandleFunc("POST /send_public_message", f.handleSendPublicMessage)
	mux.HandleFunc("POST /upload_file", f.handleUploadFile)
}

func (f *Facade) handleGetFingerprint(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"fingerprint":    f.Engine.Fingerprint().String(),
		"name":           f.Config.ClientName,
		"server_address": f.Config.ServerAddress,
		"server_port":    f.Config.ServerPort,
		"http_port":      f.Config.HTTPPort,
		"public_host":    f.Config.PublicHost,
	})
}

func (f *Facade) handleGetClients(w http.ResponseWriter, r *http.Request) {
	fps := f.Engine.Directory().Fingerprints()
	out := make([]string, len(fps))
	for i, fp := range fps {
		out[i] = fp.String()
	}
	writeJSON(w, map[string]any{"clients": out})
}

func (f *Facade) handleRequestClientList(w http.ResponseWriter, r *http.Request) {
	if err := f.Engine.RequestClientList(); err != nil {
		f.Log.WithError(err).Warn("request_client_list failed")
	}
	writeJSON(w, map[string]any{})
}

func (f *Facade) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := f.Engine.MessageLog().All()
	if err != nil {
		http.Error(w, "failed to read message log", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"messages": msgs})
}

type sendMessageRequest struct {
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

func (f *Facade) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	recipients := make([]domain.Fingerprint, len(req.Recipients))
	for i, fp := range req.Recipients {
		recipients[i] = domain.Fingerprint(fp)
	}
	if err := f.Engine.SendChat(recipients, req.Message); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"status": "Message sent"})
}

type sendPublicMessageRequest struct {
	Message string `json:"message"`
}

func (f *Facade) handleSendPublicMessage(w http.ResponseWriter, r *http.Request) {
	var req sendPublicMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if err := f.Engine.SendPublicChat(req.Message); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"status": "Public message sent"})
}

// handleUploadFile uploads via C5 on the client's home-server HTTP
// port, then emits a chat whose body is "[File] <url>" — private if
// the multipart "recipients" field is present, public otherwise
// (spec.md §4.7 names the chat but not which kind; this mirrors
// send_message/send_public_message's own split on recipients).
func (f *Facade) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "malformed upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	base := fmt.Sprintf("http://%s:%d", f.Config.ServerAddress, f.Config.ServerHTTPPort)
	url, err := uploadToHomeServer(f.Client, base, header.Filename, file)
	if err != nil {
		f.Log.WithError(err).Warn("upload_file: home-server upload failed")
		http.Error(w, "upload failed", http.StatusBadGateway)
		return
	}

	body := "[File] " + url
	recipCSV := r.FormValue("recipients")
	if recipCSV == "" {
		err = f.Engine.SendPublicChat(body)
	} else {
		var recipients []domain.Fingerprint
		for _, fp := range strings.Split(recipCSV, ",") {
			fp = strings.TrimSpace(fp)
			if fp != "" {
				recipients = append(recipients, domain.Fingerprint(fp))
			}
		}
		err = f.Engine.SendChat(recipients, body)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, map[string]any{"file_url": url})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
