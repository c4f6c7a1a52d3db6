package applog

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

const omitted = "[OMITTED]"

// LogMessage logs direction ("send" or "recv") always, and — only when
// verbose is true — a sanitized JSON rendering of raw with public_key
// and signature fields masked (spec.md §7).
func LogMessage(log *logrus.Logger, direction string, raw []byte, verbose bool) {
	log.WithField("direction", direction).Info("relayed message")
	if !verbose {
		return
	}

	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		log.WithFields(logrus.Fields{"direction": direction, "raw": string(raw)}).Info("message detail (not JSON)")
		return
	}

	sanitized := sanitizeMessage(parsed)
	detail, err := json.MarshalIndent(sanitized, "", "  ")
	if err != nil {
		return
	}
	log.WithField("direction", direction).Infof("message detail:\n%s", detail)
}

// sanitizeMessage masks data.public_key and the top-level signature
// field, mirroring original_source/server/server.py's sanitize_message.
func sanitizeMessage(message map[string]any) map[string]any {
	if data, ok := message["data"].(map[string]any); ok {
		if _, has := data["public_key"]; has {
			data["public_key"] = omitted
		}
	}
	if _, has := message["signature"]; has {
		message["signature"] = omitted
	}
	return message
}
