package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrowserDumpStringValues(t *testing.T) {
	in := `{
		"flight_recorder_user": "{\"id\":\"u1\",\"email\":\"a@b.com\"}",
		"flight_recorder_dark": "false",
		"unrelated": "x"
	}`

	dump, err := ParseBrowserDump(strings.NewReader(in))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1","email":"a@b.com"}`, string(dump.User))
	assert.Equal(t, "false", string(dump.Dark))
	assert.Nil(t, dump.Draft)
}

func TestParseBrowserDumpDecodedValues(t *testing.T) {
	in := `{"flight_recorder_draft": {"phaseA": {"dosage": 80}}, "flight_recorder_dark": true}`

	dump, err := ParseBrowserDump(strings.NewReader(in))
	require.NoError(t, err)
	assert.JSONEq(t, `{"phaseA":{"dosage":80}}`, string(dump.Draft))
	assert.Equal(t, "true", string(dump.Dark))
}

func TestParseBrowserDumpNullValue(t *testing.T) {
	dump, err := ParseBrowserDump(strings.NewReader(`{"flight_recorder_draft": null}`))
	require.NoError(t, err)
	assert.Nil(t, dump.Draft)
}

func TestParseBrowserDumpRejectsBadInner(t *testing.T) {
	_, err := ParseBrowserDump(strings.NewReader(`{"flight_recorder_user": "not json"}`))
	assert.Error(t, err)

	_, err = ParseBrowserDump(strings.NewReader(`[1,2]`))
	assert.Error(t, err)
}
