package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortsKeysAndSkipsHTMLEscape(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{"b": 1, "a": "<x&y>"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<x&y>","b":1}`, string(out))
}

func TestMarshalCanonicalKeepsStringBytes(t *testing.T) {
	composed, err := MarshalCanonical(map[string]string{"caf\u00e9": "caf\u00e9"})
	require.NoError(t, err)
	decomposed, err := MarshalCanonical(map[string]string{"cafe\u0301": "cafe\u0301"})
	require.NoError(t, err)
	assert.NotEqual(t, composed, decomposed)

	var back map[string]string
	require.NoError(t, json.Unmarshal(decomposed, &back))
	assert.Equal(t, map[string]string{"cafe\u0301": "cafe\u0301"}, back)
}

func TestMarshalCanonicalKeepsDistinctKeys(t *testing.T) {
	out, err := MarshalCanonical(map[string]int{"caf\u00e9": 1, "cafe\u0301": 2})
	require.NoError(t, err)

	var back map[string]int
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Len(t, back, 2)
}

func TestMarshalCanonicalKeepsNumbers(t *testing.T) {
	out, err := MarshalCanonical(struct {
		Dosage float64 `json:"dosage"`
	}{Dosage: 12.5})
	require.NoError(t, err)
	assert.Equal(t, `{"dosage":12.5}`, string(out))
}

func TestContentHashDomainSeparation(t *testing.T) {
	v := map[string]int{"x": 1}
	h1, err := ContentHash(DomainUser, v)
	require.NoError(t, err)
	h2, err := ContentHash(DomainDraft, v)
	require.NoError(t, err)
	h3, err := ContentHash(DomainUser, v)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.Equal(t, h1, h3)
	assert.Len(t, h1, 64)
}
