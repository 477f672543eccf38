package cl_test

// Common initialization and testing tools for all test files.

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/gomlx/gocl/cl"
	"github.com/gomlx/gocl/cl/clfake"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

func init() {
	klog.InitFlags(nil)
}

type errTester[T any] struct {
	value T
	err   error
}

// capture is a shortcut to test that there is no error and return the value.
func capture[T any](value T, err error) errTester[T] {
	return errTester[T]{value, err}
}

func (e errTester[T]) Test(t testing.TB) T {
	require.NoError(t, e.err)
	return e.value
}

var runtimeCount atomic.Int32

// uniqueRuntimeName returns a runtime name not used before in the process, so tests can register
// runtimes in the global registry even when run repeatedly (-count).
func uniqueRuntimeName(t testing.TB) string {
	return fmt.Sprintf("test-%s-%d", t.Name(), runtimeCount.Add(1))
}

// newTestRuntime creates an unregistered Runtime over a fake with the default layout.
func newTestRuntime(t testing.TB) (*cl.Runtime, *clfake.Fake) {
	return newTestRuntimeWithLayout(t, clfake.DefaultLayout())
}

func newTestRuntimeWithLayout(t testing.TB, layout clfake.Layout) (*cl.Runtime, *clfake.Fake) {
	fake := clfake.New(layout)
	rt := capture(cl.NewRuntime(uniqueRuntimeName(t), fake)).Test(t)
	return rt, fake
}

// requireAlive checks the number of live wrappers of the given kind.
func requireAlive(t *testing.T, kind string, want int64) {
	t.Helper()
	require.Equalf(t, want, cl.WrappersAlive()[kind], "number of live %s wrappers", kind)
}

// deviceNames returns the names of the devices, failing the test on error.
func deviceNames(t *testing.T, devices []*cl.Device) []string {
	names := make([]string, len(devices))
	for ii, d := range devices {
		names[ii] = capture(d.Name()).Test(t)
	}
	return names
}
