package observability

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedAudit(buf *bytes.Buffer) *AuditLogger {
	return &AuditLogger{
		logger: zerolog.New(buf).With().Timestamp().Logger(),
	}
}

func TestRecord(t *testing.T) {
	buf := &bytes.Buffer{}
	audit := newBufferedAudit(buf)

	audit.Record(AuditEvent{
		Type:   "interaction",
		Actor:  "/home/me/project",
		Action: "question_asked",
		Status: "answered",
		Metadata: map[string]interface{}{
			"request_id": "req-1",
		},
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "interaction", entry["type"])
	assert.Equal(t, "/home/me/project", entry["actor"])
	assert.Equal(t, "question_asked", entry["action"])
	assert.Equal(t, "answered", entry["status"])
	assert.NotEmpty(t, entry["time"])

	meta, ok := entry["metadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "req-1", meta["request_id"])
}

func TestRecordFillsTimestamp(t *testing.T) {
	buf := &bytes.Buffer{}
	audit := newBufferedAudit(buf)

	before := time.Now()
	event := AuditEvent{Type: "registry", Action: "channel_added", Status: "success"}
	audit.Record(event)

	// The zero timestamp was replaced, not written out as zero
	assert.NotContains(t, buf.String(), "0001-01-01")
	assert.True(t, before.Before(time.Now().Add(time.Second)))
}

func TestGetAuditLoggerSingleton(t *testing.T) {
	a := GetAuditLogger()
	b := GetAuditLogger()
	assert.Same(t, a, b)
}
