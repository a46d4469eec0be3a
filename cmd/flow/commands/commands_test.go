package commands_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/flow/cmd/flow/commands"
	"go.trai.ch/flow/internal/adapters/config"
	"go.trai.ch/flow/internal/app"
	"go.trai.ch/flow/sched"
)

func newCLI() *commands.CLI {
	logger := slog.New(slog.DiscardHandler)
	return commands.New(app.New(config.NewLoader(), sched.New(sched.WithLogger(logger)), logger))
}

func writePipeline(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_Success(t *testing.T) {
	path := writePipeline(t, `
version: "1"
tasks:
  greet:
    cmd: ["echo", "hello"]
`)

	cli := newCLI()
	cli.SetArgs([]string{"-c", path, "run", "greet"})

	assert.NoError(t, cli.Execute(context.Background()))
}

func TestRun_NoTargetsShowsHelp(t *testing.T) {
	cli := newCLI()
	cli.SetArgs([]string{"run"})

	assert.NoError(t, cli.Execute(context.Background()))
}

func TestRun_TaskFailure(t *testing.T) {
	path := writePipeline(t, `
tasks:
  broken:
    cmd: ["sh", "-c", "exit 1"]
`)

	cli := newCLI()
	cli.SetArgs([]string{"-c", path, "run", "broken"})

	err := cli.Execute(context.Background())
	assert.ErrorIs(t, err, app.ErrRunFailed)
}

func TestRoot_Help(t *testing.T) {
	cli := newCLI()
	cli.SetArgs([]string{"--help"})

	assert.NoError(t, cli.Execute(context.Background()))
}

func TestVersion(t *testing.T) {
	cli := newCLI()
	cli.SetArgs([]string{"version"})

	assert.NoError(t, cli.Execute(context.Background()))
}
