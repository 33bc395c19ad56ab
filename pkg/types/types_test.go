package types

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAltEntry(t *testing.T) {
	t.Run("AltText", func(t *testing.T) {
		assert.Equal(t, "", AltEntry{Key: "a"}.AltText())
		assert.Equal(t, "caption", AltEntry{Key: "a", Alt: StringPtr("caption")}.AltText())
	})

	t.Run("IsMissing", func(t *testing.T) {
		assert.True(t, AltEntry{Key: "a"}.IsMissing())
		assert.True(t, AltEntry{Key: "a", Alt: StringPtr("")}.IsMissing())
		assert.False(t, AltEntry{Key: "a", Alt: StringPtr("x")}.IsMissing())
	})

	t.Run("JSON keeps null alt", func(t *testing.T) {
		data, err := json.Marshal(AltEntry{Key: "No name"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"key":"No name","alt":null}`, string(data))
	})
}

func TestAltMap(t *testing.T) {
	t.Run("Insertion order", func(t *testing.T) {
		m := NewAltMap()
		require.True(t, m.Add("b.jpg", StringPtr("")))
		require.True(t, m.Add("a.jpg", nil))
		require.True(t, m.Add("c.jpg", StringPtr("x")))

		assert.Equal(t, []string{"b.jpg", "a.jpg", "c.jpg"}, m.Keys())
		assert.Equal(t, 3, m.Len())
	})

	t.Run("Duplicate keys are rejected", func(t *testing.T) {
		m := NewAltMap()
		require.True(t, m.Add("a.jpg", StringPtr("first")))
		assert.False(t, m.Add("a.jpg", StringPtr("second")))

		entry, ok := m.Get("a.jpg")
		require.True(t, ok)
		assert.Equal(t, "first", entry.AltText())
		assert.Equal(t, 1, m.Len())
	})

	t.Run("Zero value is usable", func(t *testing.T) {
		var m AltMap
		assert.False(t, m.Has("x"))
		assert.True(t, m.Add("x", nil))
		assert.True(t, m.Has("x"))
	})

	t.Run("Entries returns a copy", func(t *testing.T) {
		m := NewAltMap()
		m.Add("a", StringPtr("x"))
		entries := m.Entries()
		entries[0].Key = "changed"
		assert.Equal(t, []string{"a"}, m.Keys())
	})

	t.Run("Missing counts", func(t *testing.T) {
		counted := NewAltMap()
		counted.Add("a", StringPtr(""))
		counted.Add("b", nil)
		assert.Equal(t, 2, counted.MissingCount())
		assert.True(t, counted.AllMissing())

		notCounted := NewAltMap()
		notCounted.Add("a", StringPtr("x"))
		notCounted.Add("b", StringPtr(""))
		assert.Equal(t, 1, notCounted.MissingCount())
		assert.False(t, notCounted.AllMissing())

		assert.True(t, NewAltMap().AllMissing())
	})
}

func TestRunSummary(t *testing.T) {
	summary := &RunSummary{
		Documents: []DocumentResult{
			{Document: "a.xml", Status: DocumentStatusPublished},
			{Document: "b.xml", Status: DocumentStatusFailed},
			{Document: "c.xml", Status: DocumentStatusPublished},
		},
	}

	assert.Equal(t, 2, summary.Count(DocumentStatusPublished))
	assert.Equal(t, 1, summary.Count(DocumentStatusFailed))
	assert.Equal(t, 0, summary.Count(DocumentStatusSkipped))
	assert.True(t, summary.Documents[0].Succeeded())
	assert.False(t, summary.Documents[1].Succeeded())
}

func TestFailurePolicy(t *testing.T) {
	assert.True(t, IsValidFailurePolicy(FailurePolicySkip))
	assert.True(t, IsValidFailurePolicy(FailurePolicyFailFast))
	assert.False(t, IsValidFailurePolicy("retry"))
	assert.False(t, IsValidFailurePolicy(""))
}

func TestRunIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RunIDFromContext(ctx))

	ctx = WithRunID(ctx, "run-123")
	assert.Equal(t, "run-123", RunIDFromContext(ctx))
}
