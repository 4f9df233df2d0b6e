package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mockdev/internal/store"
	"github.com/roach88/mockdev/internal/testutil"
)

const libDevice = "/dev/bus/usb/001/011"

func importTrace(t *testing.T, db, body string) store.TraceInfo {
	t.Helper()
	out, _, err := execute(t, "--format", "json", "import", writeTrace(t, body), "--db", db, "--device", libDevice)
	require.NoError(t, err)
	var info store.TraceInfo
	decodeData(t, out, &info)
	return info
}

func TestImportExport_RoundTrip(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traces.db")
	info := importTrace(t, db, testutil.WorkedTrace)
	assert.Equal(t, libDevice, info.Device)
	assert.Equal(t, 10, info.Nodes)

	out, _, err := execute(t, "export", "--db", db, "--id", info.ID)
	require.NoError(t, err)
	assert.Equal(t, testutil.WorkedTrace, out)

	target := filepath.Join(t.TempDir(), "latest.ioctl")
	_, _, err = execute(t, "export", "--db", db, "--device", libDevice, "-o", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, testutil.WorkedTrace, string(data))
}

func TestImport_RejectsMalformed(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traces.db")
	_, _, err := execute(t, "import", writeTrace(t, "USBDEVFS_CONNECTINFO x 0\n"), "--db", db, "--device", libDevice)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out, _, err := execute(t, "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No traces stored")
}

func TestImport_RequiresFlags(t *testing.T) {
	_, _, err := execute(t, "import", writeTrace(t, testutil.WorkedTrace))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestShowAndWalk_FromLibrary(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traces.db")
	info := importTrace(t, db, testutil.WorkedTrace)

	out, _, err := execute(t, "show", "--db", db, "--id", info.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "10 calls")

	out, _, err = execute(t, "walk", "--db", db, "--id", info.ID, "--steps", "1")
	require.NoError(t, err)
	assert.Equal(t, "   1  [0] USBDEVFS_CONNECTINFO 11 0\n", out)

	_, _, err = execute(t, "show", "--db", db)
	require.Error(t, err, "--db requires --id")
}

func TestListAndDelete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traces.db")
	first := importTrace(t, db, testutil.WorkedTrace)
	second := importTrace(t, db, "USBDEVFS_GET_CAPABILITIES 31\n")

	out, _, err := execute(t, "--format", "json", "list", "--db", db)
	require.NoError(t, err)
	var traces []store.TraceInfo
	decodeData(t, out, &traces)
	require.Len(t, traces, 2)
	assert.Equal(t, first.ID, traces[0].ID)
	assert.Equal(t, second.ID, traces[1].ID)
	assert.Equal(t, int64(2), traces[1].Seq)

	out, _, err = execute(t, "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, first.ID)

	_, _, err = execute(t, "delete", "--db", db, "--id", first.ID)
	require.NoError(t, err)

	out, _, err = execute(t, "delete", "--db", db, "--id", first.ID)
	require.Error(t, err)
	assert.Contains(t, out, "Error [E002]")

	_, _, err = execute(t, "export", "--db", db, "--id", first.ID)
	require.Error(t, err)
}

func TestExport_UnknownDevice(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traces.db")
	importTrace(t, db, testutil.WorkedTrace)

	out, _, err := execute(t, "export", "--db", db, "--device", "/dev/null")
	require.Error(t, err)
	assert.Contains(t, out, "Error [E002]")
}
