package clmenu

import (
	"bytes"
	"testing"

	"github.com/gomlx/gocl/cl"
	"github.com/gomlx/gocl/cl/clfake"
	"github.com/stretchr/testify/require"
)

// setUp replaces the output and the prompt, and restores them at the end of the test.
func setUp(t *testing.T, answer int, answerErr error) (*bytes.Buffer, *[][]string) {
	var buf bytes.Buffer
	var prompts [][]string
	oldOutput, oldPrompt := Output, prompt
	Output = &buf
	prompt = func(options []string) (int, error) {
		prompts = append(prompts, options)
		return answer, answerErr
	}
	t.Cleanup(func() { Output, prompt = oldOutput, oldPrompt })
	return &buf, &prompts
}

func newRuntime(t *testing.T) *cl.Runtime {
	rt, err := cl.NewRuntime("clmenu-test", clfake.New(clfake.DefaultLayout()))
	require.NoError(t, err)
	return rt
}

func selectWithMenu(t *testing.T, rt *cl.Runtime, data any) ([]*cl.Device, error) {
	filters := cl.NewFilters()
	_, err := filters.AddDependent(Filter, data)
	require.NoError(t, err)
	return rt.Select(filters)
}

func TestFilterAutoSelect(t *testing.T) {
	buf, prompts := setUp(t, 0, nil)
	rt := newRuntime(t)
	devices, err := selectWithMenu(t, rt, 2)
	require.NoError(t, err)
	defer cl.UnrefDevices(devices)
	require.Len(t, devices, 1)
	name, err := devices[0].Name()
	require.NoError(t, err)
	require.Equal(t, "cpu-x86-64", name)
	require.Empty(t, *prompts)
	require.Contains(t, buf.String(), "  [SELECTED] 2. cpu-x86-64 [GenuineIntel]")
	require.Contains(t, buf.String(), "             0. Acme Radiant X1 [Acme Corp.]")
}

func TestFilterPrompt(t *testing.T) {
	_, prompts := setUp(t, 1, nil)
	rt := newRuntime(t)
	devices, err := selectWithMenu(t, rt, nil)
	require.NoError(t, err)
	defer cl.UnrefDevices(devices)
	require.Len(t, devices, 1)
	name, err := devices[0].Name()
	require.NoError(t, err)
	require.Equal(t, "Acme Radiant X2", name)
	require.Len(t, *prompts, 1)
	require.Equal(t, []string{
		"0. Acme Radiant X1 [Acme Corp.]",
		"1. Acme Radiant X2 [Acme Corp.]",
		"2. cpu-x86-64 [GenuineIntel]",
		"3. Basic Tensor Accelerator [Pocl Project]",
	}, (*prompts)[0])
}

func TestFilterInvalidIndexPrompts(t *testing.T) {
	buf, prompts := setUp(t, 3, nil)
	rt := newRuntime(t)
	devices, err := selectWithMenu(t, rt, 7)
	require.NoError(t, err)
	defer cl.UnrefDevices(devices)
	require.Len(t, *prompts, 1)
	require.Contains(t, buf.String(), "No device at index 7!")
	name, err := devices[0].Name()
	require.NoError(t, err)
	require.Equal(t, "Basic Tensor Accelerator", name)
}

func TestFilterSingleDevice(t *testing.T) {
	_, prompts := setUp(t, 0, nil)
	rt := newRuntime(t)
	filters := cl.NewFilters()
	_, err := filters.AddIndependent(cl.FilterCPU, nil)
	require.NoError(t, err)
	_, err = filters.AddDependent(Filter, nil)
	require.NoError(t, err)
	devices, err := rt.Select(filters)
	require.NoError(t, err)
	defer cl.UnrefDevices(devices)
	require.Len(t, devices, 1)
	require.Empty(t, *prompts, "a single device is selected without asking")
}

func TestFilterAborted(t *testing.T) {
	setUp(t, -1, ErrUserAborted)
	rt := newRuntime(t)
	alive := cl.WrappersAlive()["device"]
	_, err := selectWithMenu(t, rt, nil)
	require.ErrorIs(t, err, ErrUserAborted)
	require.Equal(t, alive, cl.WrappersAlive()["device"])

	_, err = selectWithMenu(t, rt, "first")
	require.ErrorIs(t, err, cl.ErrInvalidArgument)
}

func TestNewContext(t *testing.T) {
	setUp(t, 0, nil)
	rt := newRuntime(t)
	ctx, err := NewContext(rt, 1)
	require.NoError(t, err)
	n, err := ctx.NumDevices()
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, ctx.Unref())
}
