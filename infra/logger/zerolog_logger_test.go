package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/shuttle/core/model"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerJSONCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOptions("dispatcher", Options{Format: "json", Out: &buf})
	l.Infof("bus %d departs", 1)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "dispatcher", line["component"])
	assert.Equal(t, "bus 1 departs", line["message"])
	assert.Equal(t, "info", line["level"])
}

func TestZerologLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOptions("sim", Options{Format: "console", Out: &buf})
	l.Warnf("no bus")
	assert.True(t, strings.Contains(buf.String(), "no bus"))
}

func TestSetLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	require.NoError(t, SetLevel("warn"))
	var buf bytes.Buffer
	l := NewWithOptions("sim", Options{Format: "json", Out: &buf})
	l.Infof("hidden")
	assert.Empty(t, buf.String())
	l.Warnf("shown")
	assert.Contains(t, buf.String(), "shown")

	assert.ErrorIs(t, SetLevel("loud"), model.ErrConfiguration)
	require.NoError(t, SetLevel(""))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestConfigure(t *testing.T) {
	defer func() {
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
		defaults = Options{}
	}()
	require.NoError(t, Configure("debug", "json"))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	assert.Equal(t, "json", defaults.Format)

	assert.ErrorIs(t, Configure("info", "xml"), model.ErrConfiguration)
	assert.Equal(t, "json", defaults.Format)
}
