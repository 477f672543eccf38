package cl_test

import (
	"testing"

	"github.com/gomlx/gocl/cl"
	"github.com/gomlx/gocl/cl/clfake"
	"github.com/stretchr/testify/require"
)

func TestPlatforms(t *testing.T) {
	rt, fake := newTestRuntime(t)
	platformsAlive := cl.WrappersAlive()["platform"]
	devicesAlive := cl.WrappersAlive()["device"]

	platforms := capture(rt.Platforms()).Test(t)
	require.Equal(t, 2, platforms.Count())
	requireAlive(t, "platform", platformsAlive+2)

	p0 := capture(platforms.Platform(0)).Test(t)
	require.Equal(t, "Acme OpenCL", capture(p0.Name()).Test(t))
	require.Equal(t, "Acme Corp.", capture(p0.Vendor()).Test(t))
	require.Equal(t, "FULL_PROFILE", capture(p0.Profile()).Test(t))
	require.Equal(t, "OpenCL 3.0 Acme 1.2", capture(p0.Version()).Test(t))
	require.Equal(t, `Platform("Acme OpenCL")`, p0.String())

	// Devices are enumerated lazily, and only once.
	require.Equal(t, 0, fake.Calls(clfake.OpGetDeviceIDs))
	require.Equal(t, 2, capture(p0.NumDevices()).Test(t))
	devices := capture(p0.Devices()).Test(t)
	require.Equal(t, []string{"Acme Radiant X1", "Acme Radiant X2"}, deviceNames(t, devices))
	require.Equal(t, 1, fake.Calls(clfake.OpGetDeviceIDs))
	d1 := capture(p0.Device(1)).Test(t)
	require.Same(t, devices[1], d1)
	_, err := p0.Device(2)
	require.ErrorIs(t, err, cl.ErrDeviceNotFound)
	requireAlive(t, "device", devicesAlive+2)

	_, err = platforms.Platform(2)
	require.ErrorIs(t, err, cl.ErrInvalidArgument)

	// A device referenced by the caller outlives the platform.
	d1.Ref()
	platforms.Destroy()
	requireAlive(t, "platform", platformsAlive)
	requireAlive(t, "device", devicesAlive+1)
	require.Equal(t, "Acme Radiant X2", capture(d1.Name()).Test(t))
	require.NoError(t, d1.Unref())
	requireAlive(t, "device", devicesAlive)

	// Destroy is idempotent.
	platforms.Destroy()
	requireAlive(t, "platform", platformsAlive)
}

func TestPlatformWithoutDevices(t *testing.T) {
	layout := capture(clfake.LoadLayout("clfake/testdata/layout.yaml")).Test(t)
	rt, _ := newTestRuntimeWithLayout(t, layout)
	platforms := capture(rt.Platforms()).Test(t)
	defer platforms.Destroy()
	require.Equal(t, 3, platforms.Count())
	empty := platforms.List()[1]
	require.Equal(t, "Empty Platform", capture(empty.Name()).Test(t))
	require.Equal(t, 0, capture(empty.NumDevices()).Test(t))
}

func TestNoPlatforms(t *testing.T) {
	rt, _ := newTestRuntimeWithLayout(t, clfake.Layout{})
	platforms := capture(rt.Platforms()).Test(t)
	require.Equal(t, 0, platforms.Count())
	platforms.Destroy()

	_, err := rt.Select(nil)
	require.ErrorIs(t, err, cl.ErrDeviceNotFound)
}

func TestPlatformEnumerationFailure(t *testing.T) {
	rt, fake := newTestRuntime(t)
	fake.Fail(clfake.OpGetPlatformIDs, cl.StatusOutOfHostMemory)
	_, err := rt.Platforms()
	require.Error(t, err)
	status, ok := cl.StatusOf(err)
	require.True(t, ok)
	require.Equal(t, cl.StatusOutOfHostMemory, status)
}

func TestNewPlatformFromDevice(t *testing.T) {
	rt, _ := newTestRuntime(t)
	devices := capture(rt.Select(nil)).Test(t)
	defer cl.UnrefDevices(devices)

	p := capture(cl.NewPlatformFromDevice(devices[3])).Test(t)
	require.Equal(t, "Portable CPU OpenCL", capture(p.Name()).Test(t))
	require.Equal(t, capture(devices[3].PlatformID()).Test(t), p.Unwrap())
	require.NoError(t, p.Unref())

	_, err := cl.NewPlatformFromDevice(nil)
	require.ErrorIs(t, err, cl.ErrInvalidArgument)
}

func TestDeviceAccessors(t *testing.T) {
	layout := capture(clfake.LoadLayout("clfake/testdata/layout.yaml")).Test(t)
	rt, _ := newTestRuntimeWithLayout(t, layout)
	devices := capture(rt.Select(nil)).Test(t)
	defer cl.UnrefDevices(devices)
	require.Len(t, devices, 3)

	d := devices[0]
	require.Equal(t, cl.DeviceTypeGPU, capture(d.Type()).Test(t))
	require.Equal(t, 24, capture(d.ComputeUnits()).Test(t))
	require.Equal(t, uint64(4<<30), capture(d.GlobalMemSize()).Test(t))
	require.Equal(t, "OpenCL 2.1", capture(d.Version()).Test(t))
	require.Equal(t, "Vector Labs", capture(d.Vendor()).Test(t))
	require.True(t, capture(d.Available()).Test(t))
	require.False(t, capture(devices[1].Available()).Test(t))
	require.Equal(t, `Device("VL Graphics 500")`, d.String())
	require.Same(t, rt, d.Runtime())

	require.True(t, capture(d.SamePlatform(devices[1])).Test(t))
	require.False(t, capture(d.SamePlatform(devices[2])).Test(t))

	lines := capture(cl.DeviceStrings(devices)).Test(t)
	require.Equal(t, []string{
		"0. VL Graphics 500 [Vector Labs]",
		"1. VL Graphics 300 [Vector Labs]",
		"2. Host Processor [Host]",
	}, lines)
}
