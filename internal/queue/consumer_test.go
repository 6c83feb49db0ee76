package queue

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLine(t *testing.T) {
	reason := "no longer available"
	var buf bytes.Buffer
	require.NoError(t, WriteLine(&buf, RentalRequestEvent{
		RequestID: 11, Action: ActionRejected, StudentID: 7, LandlordID: 42, PropertyID: 3,
		PropertyTitle: "Avondale cottage", Status: "rejected", Reason: &reason, OccurredAt: "2026-01-02T03:04:05Z",
	}))
	assert.Equal(t, `[2026-01-02T03:04:05Z] Rental request rejected | request_id=11 | student_id=7 | landlord_id=42 | property_id=3 | property="Avondale cottage" | status=rejected | reason="no longer available"`+"\n", buf.String())
}

func TestHandleMessageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rental_requests.log")
	for _, action := range []string{ActionSubmitted, ActionAccepted} {
		body, err := json.Marshal(RentalRequestEvent{RequestID: 11, Action: action, Status: "x"})
		require.NoError(t, err)
		require.NoError(t, HandleMessage(body, path))
	}

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Rental request submitted")
	assert.Contains(t, lines[1], "Rental request accepted")
}

func TestHandleMessageRejectsBadPayloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	assert.Error(t, HandleMessage([]byte("{"), path))
	assert.Error(t, HandleMessage([]byte(`{"action":"accepted"}`), path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
