package filestore

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	domain "olaf/internal/domain"
)

// MaxUploadBytes caps a single upload (spec.md §4.5).
const MaxUploadBytes = 10 << 20

// IDLength is the number of URL-safe base64 characters in a generated
// file ID (spec.md §4.5: "32-character URL-safe random ID").
const IDLength = 32

// Store serves the four C5 endpoints: upload, download, the server's
// own public key, and a neighbour key drop-off.
type Store struct {
	Dir          string
	Ledger       domain.FileLedger
	Neighbours   domain.NeighbourDirectory
	PubPEM       []byte
	ExternalBase string
	Log          *logrus.Logger
}

// New returns a Store rooted at dir, serving pubPEM from /pub and
// writing file_url responses against externalBase (e.g.
// "http://host:8081").
func New(dir string, ledger domain.FileLedger, neighbours domain.NeighbourDirectory, pubPEM []byte, externalBase string, log *logrus.Logger) *Store {
	return &Store{Dir: dir, Ledger: ledger, Neighbours: neighbours, PubPEM: pubPEM, ExternalBase: externalBase, Log: log}
}

// RegisterRoutes wires the store's handlers onto mux.
func (s *Store) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /files/{id}/{name}", s.handleDownload)
	mux.HandleFunc("GET /pub", s.handlePub)
	mux.HandleFunc("POST /upload_key", s.handleUploadKey)
}

func (s *Store) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		http.Error(w, "file too large or malformed upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	id, err := newFileID()
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	dstDir := filepath.Join(s.Dir, id)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	dst, err := os.Create(filepath.Join(dstDir, header.Filename))
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	n, err := io.Copy(dst, file)
	if err != nil {
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}

	rec := domain.FileRecord{
		ID:           id,
		OriginalName: header.Filename,
		Size:         n,
		ContentType:  header.Header.Get("Content-Type"),
		UploadedUnix: time.Now().Unix(),
	}
	if err := s.Ledger.Put(rec); err != nil {
		s.Log.WithError(err).Warn("file upload: ledger write failed")
	}

	url := fmt.Sprintf("%s/files/%s/%s", strings.TrimRight(s.ExternalBase, "/"), id, header.Filename)
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"file_url":%q}`, url)
}

func (s *Store) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	name := r.PathValue("name")
	if strings.ContainsAny(id, "/\\") || strings.ContainsAny(name, "/\\") {
		http.NotFound(w, r)
		return
	}
	path := filepath.Join(s.Dir, id, name)
	fi, err := os.Stat(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	bytesServed.Add(float64(fi.Size()))
	http.ServeFile(w, r, path)
}

func (s *Store) handlePub(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-pem-file")
	w.Write(s.PubPEM)
}

// handleUploadKey accepts a neighbour's public key PEM, named
// "<host>_<port>_public_key.pem", and writes it into the neighbours
// directory so C3's next reconnect attempt picks it up.
func (s *Store) handleUploadKey(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, "malformed upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	addr, ok := parseNeighbourFilename(header.Filename)
	if !ok {
		http.Error(w, "filename must be <host>_<port>_public_key.pem", http.StatusBadRequest)
		return
	}

	pemBytes, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}
	if err := s.Neighbours.SaveNeighbourKey(addr, pemBytes); err != nil {
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseNeighbourFilename recovers a domain.Address from a name of the
// form "<host>_<port>_public_key.pem".
func parseNeighbourFilename(name string) (domain.Address, bool) {
	const suffix = "_public_key.pem"
	if !strings.HasSuffix(name, suffix) {
		return "", false
	}
	stem := strings.TrimSuffix(name, suffix)
	idx := strings.LastIndex(stem, "_")
	if idx < 0 {
		return "", false
	}
	host, portStr := stem[:idx], stem[idx+1:]
	if host == "" {
		return "", false
	}
	if _, err := strconv.Atoi(portStr); err != nil {
		return "", false
	}
	return domain.Address(host + ":" + portStr), true
}

func newFileID() (string, error) {
	raw := make([]byte, IDLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	enc := base64.RawURLEncoding.EncodeToString(raw)
	if len(enc) > IDLength {
		enc = enc[:IDLength]
	}
	return enc, nil
}
