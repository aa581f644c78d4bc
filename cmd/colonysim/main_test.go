package main

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfall/colonysim/internal/config"
	"github.com/moonfall/colonysim/internal/dispatcher"
	"github.com/moonfall/colonysim/internal/logging"
	"github.com/moonfall/colonysim/internal/parser"
	"github.com/moonfall/colonysim/internal/storage"
	"github.com/moonfall/colonysim/internal/storage/memory"
)

func TestHttpToWS(t *testing.T) {
	tests := []struct{ in, want string }{
		{"http://localhost:5000", "ws://localhost:5000"},
		{"https://runs.example.com/", "wss://runs.example.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, httpToWS(tt.in))
	}
}

func TestNewBackend(t *testing.T) {
	b, err := newBackend(config.StorageConfig{Type: "none"}, logging.Discard(), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, storage.Nop{}, b)

	b, err = newBackend(config.StorageConfig{Type: "bogus"}, logging.Discard(), zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func TestRunLine(t *testing.T) {
	d, err := dispatcher.New(nopLogger{})
	require.NoError(t, err)
	t.Cleanup(d.Close)
	d.Register(":FEED:", func(dispatcher.Event) (any, error) { return "feed", nil })
	d.Register(":STATUS:", func(dispatcher.Event) (any, error) { return map[string]int{"day": 2}, nil })

	p := parser.NewParser(logging.Discard())
	var out bytes.Buffer

	runLine("feed", &out, p, d)
	runLine("", &out, p, d)
	runLine("status", &out, p, d)
	runLine("dance", &out, p, d)
	runLine("pause", &out, p, d)

	got := out.String()
	assert.Contains(t, got, "ok: feed\n")
	assert.Contains(t, got, `"day": 2`)
	assert.Contains(t, got, "error: unknown phrase")
	assert.Contains(t, got, "error: unknown command")
}

func TestPrintResult_Lists(t *testing.T) {
	var out bytes.Buffer
	printResult(&out, []string{":FEED:", ":PAUSE:"})
	printResult(&out, nil)
	assert.Equal(t, ":FEED: :PAUSE:\n", out.String())
}
