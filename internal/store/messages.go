package store

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	domain "olaf/internal/domain"
	"olaf/internal/config"
)

// MessageFileLog appends chat history to "<chat_data>/messages.jsonl"
// (spec.md §6), one JSON object per line, and applies
// MESSAGE_EXPIRY_TIME on read: -1 keeps every line forever, 0 means
// nothing is ever durably appended, and a positive value drops lines
// older than that many seconds at read time.
type MessageFileLog struct {
	path       string
	expirySecs int
	mu         sync.Mutex
}

// NewMessageFileLog returns a log at "<dir>/messages.jsonl" enforcing
// expirySecs (config.KeepForever or config.DropImmediately are valid).
func NewMessageFileLog(dir string, expirySecs int) *MessageFileLog {
	return &MessageFileLog{path: filepath.Join(dir, "messages.jsonl"), expirySecs: expirySecs}
}

// Append records msg, unless expirySecs is DropImmediately.
func (l *MessageFileLog) Append(msg domain.StoredMessage) error {
	if l.expirySecs == config.DropImmediately {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = f.Write(append(line, '\n'))
	return err
}

// All returns every non-expired stored message, oldest first.
func (l *MessageFileLog) All() ([]domain.StoredMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cutoff := time.Now().Add(-time.Duration(l.expirySecs) * time.Second).Unix()
	keepAll := l.expirySecs == config.KeepForever

	var out []domain.StoredMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var msg domain.StoredMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if keepAll || msg.Timestamp >= cutoff {
			out = append(out, msg)
		}
	}
	return out, scanner.Err()
}

var _ domain.MessageLog = (*MessageFileLog)(nil)
