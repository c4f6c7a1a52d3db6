package facade

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// uploadResponse mirrors internal/filestore's POST /api/upload body.
type uploadResponse struct {
	FileURL string `json:"file_url"`
}

// uploadToHomeServer posts content to the home server's C5 upload
// endpoint and returns the minted file_url (spec.md §4.7).
func uploadToHomeServer(client *http.Client, base, filename string, content io.Reader) (string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	resp, err := client.Post(base+"/api/upload", w.FormDataContentType(), buf)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("facade: upload to %s: %s: %s", base, resp.Status, body)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.FileURL, nil
}
