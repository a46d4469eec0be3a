package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/flow/internal/adapters/config"
	"go.trai.ch/flow/internal/app"
	"go.trai.ch/flow/sched"
)

func testProvider(context.Context) (*app.Components, error) {
	logger := slog.New(slog.DiscardHandler)
	return &app.Components{
		App:    app.New(config.NewLoader(), sched.New(sched.WithLogger(logger)), logger),
		Logger: logger,
	}, nil
}

func TestRun(t *testing.T) {
	tests := []struct {
		name         string
		pipeline     string
		args         func(configPath string) []string
		expectedExit int
	}{
		{
			name: "success with valid config",
			pipeline: `version: "1"
tasks:
  test:
    cmd: ["echo", "hello"]
`,
			args:         func(p string) []string { return []string{"-c", p, "run", "test"} },
			expectedExit: 0,
		},
		{
			name: "failing task",
			pipeline: `tasks:
  test:
    cmd: ["sh", "-c", "exit 1"]
`,
			args:         func(p string) []string { return []string{"-c", p, "run", "test"} },
			expectedExit: 1,
		},
		{
			name:         "missing config",
			pipeline:     "",
			args:         func(p string) []string { return []string{"-c", p, "run", "test"} },
			expectedExit: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "flow.yaml")
			if tt.pipeline != "" {
				require.NoError(t, os.WriteFile(configPath, []byte(tt.pipeline), 0o600))
			}

			var stderr strings.Builder
			exitCode := run(context.Background(), tt.args(configPath), &stderr, testProvider)
			assert.Equal(t, tt.expectedExit, exitCode)
		})
	}
}

func TestRun_ProviderFailure(t *testing.T) {
	var stderr strings.Builder
	exitCode := run(context.Background(), nil, &stderr, func(context.Context) (*app.Components, error) {
		return nil, errors.New("wiring broken")
	})

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "wiring broken")
}
