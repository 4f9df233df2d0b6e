package scenario

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mockdev/internal/session"
	"github.com/roach88/mockdev/internal/testutil"
)

func intptr(n int) *int { return &n }

func TestRunWithGolden_TestdataScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)

	for _, path := range paths {
		sc, err := Load(path)
		require.NoError(t, err)
		t.Run(sc.Name, func(t *testing.T) {
			_, err := RunWithGolden(t, sc)
			require.NoError(t, err)
		})
	}
}

func TestRun_WorkedRecording(t *testing.T) {
	sc, err := Load("testdata/scenarios/worked_recording.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, "worked_recording", result.Name)
	assert.Equal(t, testutil.WorkedTrace, result.Trace)
	assert.Equal(t, 10, result.Nodes)
	assert.Equal(t, session.Stats{Observed: 12, Novel: 10, Duplicates: 2}, result.Stats)
	assert.Equal(t, []bool{
		true, true, true, true, false, true, true, true, true, true, false, true,
	}, result.Novel)
}

func TestRun_ExpectationMismatch(t *testing.T) {
	sc, err := Load("testdata/scenarios/mixed_families.yaml")
	require.NoError(t, err)
	sc.Expect = &Expect{
		Nodes:      intptr(5),
		Duplicates: intptr(2),
		Rejected:   intptr(1),
		Trace:      new(string),
	}

	result, err := Run(context.Background(), sc)
	require.Error(t, err)
	require.NotNil(t, result, "result is returned with the mismatch")
	assert.Equal(t, 6, result.Nodes)

	var expErr *ExpectationError
	require.True(t, errors.As(err, &expErr))
	assert.Equal(t, "mixed_families", expErr.Scenario)
	require.Len(t, expErr.Mismatches, 3)
	assert.Equal(t, "nodes: expected 5, got 6", expErr.Mismatches[0])
	assert.Equal(t, "rejected: expected 1, got 0", expErr.Mismatches[1])
	assert.True(t, strings.HasPrefix(expErr.Mismatches[2], "trace: "))
}

func TestRun_ExpectedTraceInline(t *testing.T) {
	sc, err := Parse([]byte(`
name: inline
device: /dev/bus/usb/001/011
calls:
  - ioctl: USBDEVFS_CONNECTINFO
    fields: {devnum: 11}
  - ioctl: USBDEVFS_CONNECTINFO
    fields: {devnum: 11}
expect:
  duplicates: 1
  trace: "USBDEVFS_CONNECTINFO 11 0\n"
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), sc)
	assert.NoError(t, err)
}

func TestRun_BadCallAborts(t *testing.T) {
	sc := &Scenario{
		Name:   "bad",
		Device: "/dev/x",
		Calls: []Call{
			{Ioctl: "USBDEVFS_CONNECTINFO"},
			{Ioctl: "USBDEVFS_REAPURB", Fields: map[string]int64{"buffer_length": -1}},
		},
	}
	result, err := Run(context.Background(), sc)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "calls[1]")
}

func TestRun_Cancelled(t *testing.T) {
	sc, err := Load("testdata/scenarios/worked_recording.yaml")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, sc)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_LogsWithDevice(t *testing.T) {
	sc, err := Load("testdata/scenarios/mixed_families.yaml")
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err = Run(context.Background(), sc, WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, 8, strings.Count(logs.String(), "ioctl recorded"))
	assert.Contains(t, logs.String(), "device=/dev/bus/usb/003/001")
}
