package jsonl_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/csvstory"
	"github.com/fwojciec/csvstory/jsonl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("loads valid JSONL file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "events.jsonl")
		content := `{"time":"2024-05-01T10:00:00Z","kind":"started","action":"analyze","token":1}
{"time":"2024-05-01T10:00:02Z","kind":"failed","action":"analyze","token":1,"message":"bad csv"}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		events, err := jsonl.Load(path)

		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, csvstory.EventStarted, events[0].Kind)
		assert.Equal(t, csvstory.ActionAnalyze, events[0].Action)
		assert.Equal(t, uint64(1), events[0].Token)
		assert.Equal(t, "bad csv", events[1].Message)
	})

	t.Run("returns nothing for non-existent file", func(t *testing.T) {
		t.Parallel()

		events, err := jsonl.Load(filepath.Join(t.TempDir(), "missing.jsonl"))

		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("returns error for malformed JSON line", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.jsonl")
		content := `{"kind":"reset"}
not valid json
{"kind":"reset"}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := jsonl.Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("skips empty lines", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "with-blanks.jsonl")
		content := "{\"kind\":\"reset\"}\n\n{\"kind\":\"alert\",\"message\":\"x\"}\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		events, err := jsonl.Load(path)

		require.NoError(t, err)
		assert.Len(t, events, 2)
	})
}
