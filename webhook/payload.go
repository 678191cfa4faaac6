// Package webhook ingests call-completion events from the voice provider
// and drives candidate transitions off them.
package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StatusCompleted marks the provider's terminal event. Everything else
// (ringing, in-progress, partial transcripts) is acknowledged and dropped.
const StatusCompleted = "completed"

// Event is the normalized view of one provider webhook delivery.
type Event struct {
	Status     string
	RunID      string
	CallStatus string
	Transcript string
}

// Extract pulls the event fields out of a raw payload. Provider versions
// wrap the event differently and rename fields, so every extraction walks
// an ordered list of alternatives.
func Extract(body map[string]any) Event {
	data := body
	for _, key := range []string{"data", "execution", "call", "payload"} {
		if nested, ok := body[key].(map[string]any); ok {
			data = nested
			break
		}
	}

	ev := Event{
		Status: firstString(data, "status"),
		RunID:  firstString(data, "run_id", "execution_id", "id", "call_id"),
	}
	if ev.Status == "" {
		ev.Status = firstString(body, "status")
	}
	if ev.RunID == "" {
		ev.RunID = firstString(body, "run_id")
	}

	ev.CallStatus = firstString(data, "smart_status", "status")
	if ev.CallStatus == "" {
		ev.CallStatus = "Completed"
	}

	raw := firstValue(data, "transcript", "conversation", "messages")
	if raw == nil {
		if analytics, ok := data["analytics"].(map[string]any); ok {
			raw = firstValue(analytics, "transcript", "conversation", "messages")
		}
	}
	if raw == nil {
		raw = firstValue(body, "transcript")
	}
	ev.Transcript = NormalizeTranscript(raw)

	return ev
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func firstValue(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// NormalizeTranscript flattens the provider's transcript shapes into plain
// text: a string passes through, an array of turns becomes "role: content"
// lines, anything else is rendered as JSON.
func NormalizeTranscript(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		var lines []string
		for _, item := range v {
			lines = append(lines, transcriptTurn(item))
		}
		return strings.Join(lines, "\n\n")
	default:
		return marshalFallback(v)
	}
}

func transcriptTurn(item any) string {
	if s, ok := item.(string); ok {
		return s
	}
	if m, ok := item.(map[string]any); ok {
		if role, content := firstString(m, "role"), firstString(m, "content"); role != "" && content != "" {
			return fmt.Sprintf("%s: %s", role, content)
		}
		if speaker, text := firstString(m, "speaker"), firstString(m, "text"); speaker != "" && text != "" {
			return fmt.Sprintf("%s: %s", speaker, text)
		}
	}
	return marshalFallback(item)
}

func marshalFallback(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
