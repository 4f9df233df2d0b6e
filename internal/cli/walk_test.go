package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mockdev/internal/calltree"
	"github.com/roach88/mockdev/internal/testutil"
)

func TestWalk_DefaultVisitsEveryCall(t *testing.T) {
	out, _, err := execute(t, "walk", writeTrace(t, testutil.WorkedTrace))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "   1  [0] USBDEVFS_CONNECTINFO 11 0", lines[0])
	assert.Equal(t, "  10  [9] USBDEVFS_CONNECTINFO 12 0", lines[9])
}

func TestWalk_Wraps(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "walk", writeTrace(t, testutil.WorkedTrace), "--steps", "23")
	require.NoError(t, err)

	var steps []WalkStep
	decodeData(t, out, &steps)
	require.Len(t, steps, 23)
	for i, s := range steps {
		assert.Equal(t, i+1, s.Step)
		assert.Equal(t, calltree.NodeID(i%10), s.Node)
	}
	assert.Equal(t, testutil.WorkedPreorder()[2].Fields(), steps[22].Fields)
}

func TestWalk_EmptyTrace(t *testing.T) {
	_, _, err := execute(t, "walk", writeTrace(t, ""))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestWalk_NegativeSteps(t *testing.T) {
	_, _, err := execute(t, "walk", writeTrace(t, testutil.WorkedTrace), "--steps", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
