package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_ExistingKeepsUntouchedFields(t *testing.T) {
	existing := []byte(`{"name":"Alice","score":4,"query_budget":7}`)

	merged, err := Merge(existing, map[string]any{"score": 9}, map[string]any{"query_budget": 10})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(merged, &got))
	assert.Equal(t, "Alice", got["name"])
	assert.EqualValues(t, 9, got["score"])
	assert.EqualValues(t, 7, got["query_budget"], "defaults must not apply to an existing document")
}

func TestMerge_MissingStartsFromDefaults(t *testing.T) {
	merged, err := Merge(nil, map[string]any{"name": "Bob"}, map[string]any{"name": "?", "query_budget": 10})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(merged, &got))
	assert.Equal(t, "Bob", got["name"])
	assert.EqualValues(t, 10, got["query_budget"])
}

func TestMerge_InvalidExisting(t *testing.T) {
	_, err := Merge([]byte("not json"), map[string]any{"a": 1}, nil)
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "evidence/", Prefix("evidence"))
	assert.Equal(t, "evidence/", Prefix("evidence/"))
	assert.Equal(t, "transcript/0001", Key("transcript", "0001"))
	assert.Equal(t, "0001", ID("transcript", "transcript/0001"))

	assert.True(t, HasAnyPrefix("room/lock", []string{"players/", "room/"}))
	assert.False(t, HasAnyPrefix("evidence/1", []string{"players/", "room/"}))
	assert.True(t, HasAnyPrefix("anything", nil))
}
