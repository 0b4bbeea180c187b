package sanewatch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/globwatch/pkg/logger"
	"github.com/0xmhha/globwatch/pkg/watcher"
)

func TestResolveConfigDefaults(t *testing.T) {
	s, err := resolveConfig(Config{Logger: logger.Noop()}, nil)
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), s.debounce)
	assert.True(t, s.verbose)
	assert.True(t, s.events[watcher.KindDelete])
	assert.True(t, s.events[watcher.KindChange])
	assert.True(t, s.events[watcher.KindAdd])
	assert.False(t, s.events[watcher.KindReady], "ready must be requested explicitly")

	for kind := 0; kind < watcher.NumKinds; kind++ {
		assert.Nil(t, s.handlers[kind])
		assert.False(t, s.subscribed(watcher.Kind(kind)))
	}
}

func TestResolveConfigCallerWins(t *testing.T) {
	onAdd := func(watcher.Event) {}

	s, err := resolveConfig(Config{
		DebounceMs: 250,
		Verbose:    Bool(false),
		Events:     []watcher.Kind{watcher.KindAdd, watcher.KindReady},
		OnAdd:      onAdd,
		Logger:     logger.Noop(),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, s.debounce)
	assert.False(t, s.verbose)
	assert.True(t, s.events[watcher.KindAdd])
	assert.True(t, s.events[watcher.KindReady])
	assert.False(t, s.events[watcher.KindChange])
	assert.True(t, s.subscribed(watcher.KindAdd))
	assert.False(t, s.subscribed(watcher.KindReady), "ready selected but has no handler")
}

func TestResolveConfigDoesNotShareDefaults(t *testing.T) {
	first, err := resolveConfig(Config{Events: []watcher.Kind{watcher.KindReady}, Logger: logger.Noop()}, nil)
	require.NoError(t, err)
	second, err := resolveConfig(Config{Logger: logger.Noop()}, nil)
	require.NoError(t, err)

	assert.True(t, first.events[watcher.KindReady])
	assert.False(t, second.events[watcher.KindReady])

	defaults := DefaultEvents()
	defaults[0] = watcher.KindReady
	assert.Equal(t, watcher.KindDelete, DefaultEvents()[0])
}

func TestResolveConfigMergedHandlerWins(t *testing.T) {
	var got string
	perKind := func(watcher.Event) { got = "per-kind" }
	merged := func(watcher.Event) { got = "merged" }

	s, err := resolveConfig(Config{OnChange: perKind, Logger: logger.Noop()}, merged)
	require.NoError(t, err)

	for _, kind := range []watcher.Kind{watcher.KindChange, watcher.KindAdd, watcher.KindDelete} {
		require.NotNil(t, s.handlers[kind])
		s.handlers[kind](watcher.Event{Kind: kind})
		assert.Equal(t, "merged", got)
	}
	assert.Nil(t, s.handlers[watcher.KindReady], "ready is not selected by default")
}

func TestResolveConfigErrors(t *testing.T) {
	_, err := resolveConfig(Config{DebounceMs: -1}, nil)
	assert.True(t, errors.Is(err, ErrInvalidDebounce))

	_, err = resolveConfig(Config{Events: []watcher.Kind{watcher.Kind(9)}}, nil)
	assert.True(t, errors.Is(err, watcher.ErrUnknownKind))
}

func TestParseGlobs(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		want     []string
		wantErr  error
		wantType string
	}{
		{name: "single string", in: "/tmp/*.txt", want: []string{"/tmp/*.txt"}},
		{name: "string list", in: []string{"a/*.js", "b/*.js"}, want: []string{"a/*.js", "b/*.js"}},
		{name: "yaml list", in: []any{"a/*.js"}, want: []string{"a/*.js"}},
		{name: "empty list", in: []string{}, want: []string{}},
		{name: "missing", in: nil, wantErr: ErrMissingGlob},
		{name: "empty string", in: "", wantErr: ErrMissingGlob},
		{name: "empty element", in: []string{"a", ""}, wantErr: ErrMissingGlob},
		{name: "number", in: 42, wantType: "int"},
		{name: "map", in: map[string]string{}, wantType: "map[string]string"},
		{name: "mixed list", in: []any{"a", 1}, wantType: "int in []interface {}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGlobs(tt.in)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantType != "":
				var typeErr *InvalidGlobTypeError
				require.ErrorAs(t, err, &typeErr)
				assert.Equal(t, tt.wantType, typeErr.Type)
				assert.Contains(t, err.Error(), tt.wantType)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
