package archivist_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gorbf/internal/archivist"
)

type recorder struct{ lines []string }

func (r *recorder) Println(v ...interface{}) {
	for _, x := range v {
		r.lines = append(r.lines, x.(string))
	}
}

func TestLevels(t *testing.T) {
	rec := &recorder{}
	a := archivist.New(&archivist.Config{Logger: rec, LogLevel: archivist.LEVEL_WARNING})
	a.Info("hidden")
	a.Warning("shown")
	a.ErrorF("code %d", 7)
	require.Len(t, rec.lines, 2)
	assert.Contains(t, rec.lines[0], "|warning|archivist_test.go#")
	assert.True(t, strings.HasSuffix(rec.lines[0], "|shown"))
	assert.True(t, strings.HasSuffix(rec.lines[1], "|code 7"))
}

func TestDebugLevels(t *testing.T) {
	rec := &recorder{}
	a := archivist.New(&archivist.Config{Logger: rec, LogLevel: archivist.LEVEL_DEBUG, DebugLevel: archivist.DEBUG_LEVEL_INFO})
	a.Debug(archivist.DEBUG_LEVEL_TRACE, "trace")
	a.DebugF(archivist.DEBUG_LEVEL_DUMP, "dump %s", "x")
	a.Info("params", 1, "two")
	require.Len(t, rec.lines, 2)
	assert.Contains(t, rec.lines[0], "|debug|")
	assert.True(t, strings.HasSuffix(rec.lines[1], "|params|[1 two]"))
}

func TestUnknownLevelFallsBackToWarning(t *testing.T) {
	rec := &recorder{}
	a := archivist.New(&archivist.Config{Logger: rec, LogLevel: 42})
	require.Len(t, rec.lines, 1)
	assert.Contains(t, rec.lines[0], "unknown log level")
	a.Info("hidden")
	a.Warning("shown")
	assert.Len(t, rec.lines, 2)
}

func TestParseLevel(t *testing.T) {
	level, err := archivist.ParseLevel("INFO")
	require.NoError(t, err)
	assert.Equal(t, archivist.LEVEL_INFO, level)

	level, err = archivist.ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, archivist.LEVEL_WARNING, level)

	_, err = archivist.ParseLevel("loud")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	a := archivist.Discard()
	assert.NotPanics(t, func() {
		a.Fatal("dropped")
		a.Debug(archivist.DEBUG_LEVEL_MAX, "dropped")
	})
}
