package progress_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/flow/graph"
	"go.trai.ch/flow/progress"
	"go.trai.ch/flow/sched"
	"go.trai.ch/flow/target"
	"go.trai.ch/flow/task"
)

type leaf struct {
	Name string `json:"name"`
}

func (l *leaf) Requires() []task.Task { return nil }

func (l *leaf) Output() target.Target { return target.None{} }

func (l *leaf) Run(context.Context, []target.Target, task.Config) error { return nil }

func TestNew(t *testing.T) {
	assert.NotNil(t, progress.New())
}

func TestRecorder_RecordsRun(t *testing.T) {
	d, err := graph.Build(&leaf{Name: "a"})
	require.NoError(t, err)
	n, ok := d.Node(&leaf{Name: "a"})
	require.True(t, ok)

	rec := progress.New()
	rec.TaskStarted(n)
	rec.TaskFinished(n, nil)
	rec.CleanupFinished(n, errors.New("leaked"))

	require.NoError(t, rec.Close())
}

func TestRecorder_DrivesScheduler(t *testing.T) {
	d, err := graph.Build(&leaf{Name: "a"})
	require.NoError(t, err)

	rec := progress.New()
	report, err := sched.New(sched.WithReporter(rec)).Run(context.Background(), d, nil)
	require.NoError(t, err)
	assert.True(t, report.OK())
	require.NoError(t, rec.Close())
}
