package hookio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEventParsesValidJSON(t *testing.T) {
	body := `{"tool_name":"Edit","tool_input":{"file_path":"a.go","new_string":"x"},"cwd":"/repo"}`
	ev := ReadEvent(strings.NewReader(body))
	assert.Equal(t, "Edit", ev.ToolName)
	assert.Equal(t, "a.go", ev.ToolInput.FilePath)
	assert.Equal(t, "/repo", ev.Cwd)
}

func TestReadEventSynthesizesDefaultsOnMalformedJSON(t *testing.T) {
	ev := ReadEvent(strings.NewReader("{not json"))
	assert.Equal(t, "UserPromptSubmit", ev.ToolName)
	assert.Equal(t, ".", ev.Cwd)
}

func TestReadEventDefaultsCwdWhenAbsent(t *testing.T) {
	ev := ReadEvent(strings.NewReader(`{"tool_name":"Write"}`))
	assert.Equal(t, ".", ev.Cwd)
	assert.Equal(t, "Write", ev.ToolName)
}

func TestWriteJSONEncodesAndNewlineTerminates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]string{"a": "b"}))
	assert.Equal(t, "{\"a\":\"b\"}\n", buf.String())
}

func TestWritePlainTextWritesVerbatim(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlainText(&buf, "hello"))
	assert.Equal(t, "hello", buf.String())
}
