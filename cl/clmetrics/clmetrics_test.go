package clmetrics

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gomlx/gocl/cl"
	"github.com/gomlx/gocl/cl/clfake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var runtimeCount atomic.Int32

func TestCollector(t *testing.T) {
	c := NewCollector()
	require.Equal(t, 4, testutil.CollectAndCount(c))

	name := fmt.Sprintf("%s-%d", t.Name(), runtimeCount.Add(1))
	_, err := cl.RegisterRuntime(name, clfake.New(clfake.DefaultLayout()))
	require.NoError(t, err)
	rt, err := cl.GetRuntime(name)
	require.NoError(t, err)
	devices, err := rt.Select(nil)
	require.NoError(t, err)

	expected := fmt.Sprintf(`
# HELP gocl_wrappers_alive Number of wrapped OpenCL objects whose reference count hasn't reached zero
# TYPE gocl_wrappers_alive gauge
gocl_wrappers_alive{kind="context"} 0
gocl_wrappers_alive{kind="device"} 4
gocl_wrappers_alive{kind="platform"} 0
# HELP gocl_runtimes_available Number of cl runtimes registered or with a registered loader
# TYPE gocl_runtimes_available gauge
gocl_runtimes_available %d
`, len(cl.AvailableRuntimes()))
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected)))

	cl.UnrefDevices(devices)
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(
		strings.Replace(expected, `{kind="device"} 4`, `{kind="device"} 0`, 1)), "gocl_wrappers_alive", "gocl_runtimes_available"))
}

func TestRegister(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	_, err := Register(reg)
	require.NoError(t, err)
	_, err = Register(reg)
	require.Error(t, err, "registering twice should fail")
}
