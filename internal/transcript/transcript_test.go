package transcript

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := NewRecorder(filepath.Join(t.TempDir(), "transcript.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRecordAndRecent(t *testing.T) {
	r := openTestRecorder(t)

	require.NoError(t, r.Record(Entry{
		SessionID: "s1", Purpose: "setting", Provider: "remote",
		Prompt: "begin", Response: "a drowned city",
		PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30,
	}))
	require.NoError(t, r.Record(Entry{
		SessionID: "s2", Purpose: "room:(0,0)", Provider: "local",
		Prompt: "describe", Response: "a cold hall",
		CompletionTokens: 4, TotalTokens: 4, EstimatedUsage: true,
	}))

	entries, err := r.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "room:(0,0)", entries[0].Purpose)
	assert.True(t, entries[0].EstimatedUsage)
	assert.Equal(t, "setting", entries[1].Purpose)
	assert.False(t, entries[1].EstimatedUsage)
	assert.Equal(t, 30, entries[1].TotalTokens)
}

func TestRecentHonorsLimit(t *testing.T) {
	r := openTestRecorder(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, r.Record(Entry{SessionID: "s", Purpose: "p", Provider: "remote"}))
	}

	entries, err := r.Recent(3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestTotalUsageSumsAcrossEntries(t *testing.T) {
	r := openTestRecorder(t)

	require.NoError(t, r.Record(Entry{SessionID: "s", Purpose: "p", Provider: "remote", PromptTokens: 3, CompletionTokens: 5}))
	require.NoError(t, r.Record(Entry{SessionID: "s", Purpose: "p", Provider: "remote", PromptTokens: 7, CompletionTokens: 11}))

	prompt, completion, err := r.TotalUsage()
	require.NoError(t, err)
	assert.Equal(t, 10, prompt)
	assert.Equal(t, 16, completion)
}
