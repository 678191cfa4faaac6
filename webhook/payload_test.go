package webhook

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestExtractNestedData(t *testing.T) {
	ev := Extract(decode(t, `{
		"data": {
			"status": "completed",
			"run_id": "run-1",
			"transcript": "agent: hello"
		}
	}`))
	assert.Equal(t, "completed", ev.Status)
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, "agent: hello", ev.Transcript)
}

func TestExtractAlternativeWrappers(t *testing.T) {
	ev := Extract(decode(t, `{"execution": {"status": "completed", "execution_id": "exec-2"}}`))
	assert.Equal(t, "exec-2", ev.RunID)

	ev = Extract(decode(t, `{"call": {"status": "completed", "call_id": "call-3"}}`))
	assert.Equal(t, "call-3", ev.RunID)

	ev = Extract(decode(t, `{"status": "completed", "run_id": "flat-4", "transcript": "hi"}`))
	assert.Equal(t, "flat-4", ev.RunID)
	assert.Equal(t, "hi", ev.Transcript)
}

func TestExtractAnalyticsTranscript(t *testing.T) {
	ev := Extract(decode(t, `{
		"data": {
			"status": "completed",
			"run_id": "run-5",
			"analytics": {"transcript": "from analytics"}
		}
	}`))
	assert.Equal(t, "from analytics", ev.Transcript)
}

func TestExtractCallStatus(t *testing.T) {
	ev := Extract(decode(t, `{"data": {"status": "completed", "run_id": "r", "smart_status": "call_answered"}}`))
	assert.Equal(t, "call_answered", ev.CallStatus)

	ev = Extract(decode(t, `{"data": {"status": "completed", "run_id": "r"}}`))
	assert.Equal(t, "completed", ev.CallStatus)
}

func TestNormalizeTranscriptTurns(t *testing.T) {
	raw := []any{
		map[string]any{"role": "assistant", "content": "Hello, am I speaking with Asha?"},
		map[string]any{"role": "user", "content": "Yes, speaking."},
	}
	assert.Equal(t, "assistant: Hello, am I speaking with Asha?\n\nuser: Yes, speaking.", NormalizeTranscript(raw))
}

func TestNormalizeTranscriptSpeakerShape(t *testing.T) {
	raw := []any{
		map[string]any{"speaker": "agent", "text": "Hello"},
		"bare string line",
	}
	assert.Equal(t, "agent: Hello\n\nbare string line", NormalizeTranscript(raw))
}

func TestNormalizeTranscriptObject(t *testing.T) {
	out := NormalizeTranscript(map[string]any{"summary": "short call"})
	assert.JSONEq(t, `{"summary": "short call"}`, out)
	assert.Empty(t, NormalizeTranscript(nil))
}

func TestRecentRingBuffer(t *testing.T) {
	r := NewRecent(3)
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r.Add(map[string]any{"n": i}, base.Add(time.Duration(i)*time.Minute))
	}

	got := r.List()
	require.Len(t, got, 3)
	assert.Equal(t, 4, got[0].Payload["n"])
	assert.Equal(t, 3, got[1].Payload["n"])
	assert.Equal(t, 2, got[2].Payload["n"])
}
