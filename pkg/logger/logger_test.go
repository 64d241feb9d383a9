package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_FiltersBelowLevelAndTagsComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf, "json")
	SetLevel(WARN)
	t.Cleanup(func() {
		SetOutput(os.Stderr, "console")
		SetLevel(INFO)
	})

	InfoCF("memory", "hidden", map[string]interface{}{"k": "v"})
	assert.Zero(t, buf.Len())

	WarnCF("memory", "save failed", map[string]interface{}{"path": "/tmp/x"})
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "memory", entry["component"])
	assert.Equal(t, "save failed", entry["message"])
	assert.Equal(t, "/tmp/x", entry["path"])
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, INFO, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestInit_RejectsUnknownOutput(t *testing.T) {
	err := Init(Options{Level: "info", Output: "syslog"})
	assert.Error(t, err)
}

func TestWarnC_TagsComponentWithoutFields(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf, "json")
	t.Cleanup(func() { SetOutput(os.Stderr, "console") })

	WarnC("assistant", "timed out")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "assistant", entry["component"])
	assert.Equal(t, "timed out", entry["message"])
}
