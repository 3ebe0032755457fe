package rag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"green travel", []string{"green", "travel"}},
		{"COM3 to UTown", []string{"com3", "to", "utown"}},
		{"绿色出行", []string{"绿", "绿色", "色", "色出", "出", "出行", "行"}},
		{"查公交 now", []string{"查", "查公", "公", "公交", "交", "now"}},
		{"a b", nil},
		{"", nil},
		{"!!!", nil},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Tokenize(tt.text), "text=%q", tt.text)
	}
}

func TestRetrieveRanksRelevantChunksFirst(t *testing.T) {
	engine := NewEngine("")
	require.True(t, engine.Available())

	results := engine.Retrieve("green travel from COM3 to UTown", 3, 240)
	require.NotEmpty(t, results)
	require.LessOrEqual(t, len(results), 3)
	for _, citation := range results {
		require.NotEmpty(t, citation.Title)
		require.NotEmpty(t, citation.Source)
		require.NotEmpty(t, citation.Snippet)
		require.LessOrEqual(t, len([]rune(citation.Snippet)), 240+len("..."))
	}
	require.Equal(t, "Campus Shuttle Guide", results[0].Title)
}

func TestRetrieveIsDeterministic(t *testing.T) {
	engine := NewEngine("")
	first := engine.Retrieve("校园班车", 5, 240)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, engine.Retrieve("校园班车", 5, 240))
	}
}

func TestRetrieveNoOverlapReturnsEmpty(t *testing.T) {
	engine := NewEngine("")
	require.Empty(t, engine.Retrieve("xyzqq zzyyxx", 3, 240))
}

func TestRetrieveZeroK(t *testing.T) {
	engine := NewEngine("")
	require.Empty(t, engine.Retrieve("bus", 0, 240))
}

func TestRetrieveEmptyQuery(t *testing.T) {
	engine := NewEngine("")
	require.Empty(t, engine.Retrieve("", 3, 240))
}

func TestCorpusLoadFailureDisablesRetrieval(t *testing.T) {
	engine := NewEngine(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.False(t, engine.Available())
	require.Empty(t, engine.Retrieve("green travel", 3, 240))
}

func TestCorpusPathOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.jsonl")
	corpus := `{"chunk_id": "c1", "source": "s", "title": "Bike Lanes", "text": "bike lanes cross campus"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0o600))

	engine := NewEngine(path)
	require.True(t, engine.Available())

	results := engine.Retrieve("bike lanes", 1, 240)
	require.Len(t, results, 1)
	require.Equal(t, "Bike Lanes", results[0].Title)
}

func TestRetrieveTiesKeepCorpusOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.jsonl")
	corpus := `{"chunk_id": "c1", "source": "s", "title": "First", "text": "solar panel"}` + "\n" +
		`{"chunk_id": "c2", "source": "s", "title": "Second", "text": "solar panel"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0o600))

	engine := NewEngine(path)
	results := engine.Retrieve("solar panel", 2, 240)
	require.Len(t, results, 2)
	require.Equal(t, "First", results[0].Title)
	require.Equal(t, "Second", results[1].Title)
}
