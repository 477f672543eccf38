package cl_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/gomlx/gocl/cl"
	"github.com/gomlx/gocl/cl/clfake"
	"github.com/stretchr/testify/require"
)

func gpuFilters(t *testing.T) *cl.Filters {
	fs := cl.NewFilters()
	capture(fs.AddIndependent(cl.FilterGPU, nil)).Test(t)
	return fs
}

func TestNewContextFromFilters(t *testing.T) {
	rt, fake := newTestRuntime(t)
	devicesAlive := cl.WrappersAlive()["device"]
	contextsAlive := cl.WrappersAlive()["context"]

	ctx := capture(rt.NewContextFromFilters(nil, gpuFilters(t), nil, nil)).Test(t)
	require.Equal(t, 1, ctx.RefCount())
	require.Equal(t, 2, capture(ctx.NumDevices()).Test(t))
	require.Equal(t, []string{"Acme Radiant X1", "Acme Radiant X2"}, deviceNames(t, capture(ctx.Devices()).Test(t)))
	for _, d := range capture(ctx.Devices()).Test(t) {
		require.Equal(t, 1, d.RefCount(), "the selection references should have been released")
	}
	requireAlive(t, "context", contextsAlive+1)
	requireAlive(t, "device", devicesAlive+2)

	// Default properties: the platform of the first device.
	platformID := capture(capture(ctx.Device(0)).Test(t).PlatformID()).Test(t)
	require.Equal(t, []uintptr{uintptr(cl.ContextPlatform), uintptr(platformID), 0}, fake.ContextProperties(ctx.Unwrap()))
	require.Equal(t, 1, fake.ContextRefCount(ctx.Unwrap()))
	require.Equal(t, 1, capture(ctx.NativeRefCount()).Test(t))

	require.NoError(t, ctx.Unref())
	require.Equal(t, 0, fake.LiveContexts())
	requireAlive(t, "context", contextsAlive)
	requireAlive(t, "device", devicesAlive)
}

func TestNewContextExplicitProperties(t *testing.T) {
	rt, fake := newTestRuntime(t)
	platforms := capture(rt.Platforms()).Test(t)
	acme := platforms.List()[0].Unwrap()
	platforms.Destroy()

	props := cl.ContextProperties{
		{Key: cl.ContextPlatform, Value: uintptr(acme)},
		{Key: cl.ContextInteropUserSync, Value: 1},
	}
	ctx := capture(rt.NewContextFromFilters(props, gpuFilters(t), nil, nil)).Test(t)
	defer func() { require.NoError(t, ctx.Unref()) }()
	require.Equal(t, []uintptr{0x1084, uintptr(acme), 0x1085, 1, 0}, fake.ContextProperties(ctx.Unwrap()))
	require.Len(t, props, 2, "caller properties must not be modified")

	// Properties for the wrong platform are rejected by the native runtime.
	fs := cl.NewFilters()
	capture(fs.AddIndependent(cl.FilterCPU, nil)).Test(t)
	_, err := rt.NewContextFromFilters(props, fs, nil, nil)
	status, ok := cl.StatusOf(err)
	require.True(t, ok)
	require.Equal(t, cl.StatusInvalidDevice, status)
}

func TestNewContextFromFiltersMultiplePlatforms(t *testing.T) {
	rt, fake := newTestRuntime(t)
	devicesAlive := cl.WrappersAlive()["device"]
	contextsAlive := cl.WrappersAlive()["context"]

	// Default: a warning is logged, and the native runtime rejects the devices.
	_, err := rt.NewContextFromFilters(nil, nil, nil, nil)
	require.Error(t, err)
	var nErr *cl.NativeError
	require.ErrorAs(t, err, &nErr)
	require.Equal(t, clfake.OpCreateContext, nErr.Op)
	require.Equal(t, cl.StatusInvalidDevice, nErr.Status)
	require.Equal(t, 1, fake.Calls(clfake.OpCreateContext))
	require.Equal(t, 0, fake.LiveContexts())
	requireAlive(t, "device", devicesAlive)
	requireAlive(t, "context", contextsAlive)

	// Strict: fails before calling the native runtime.
	rt.StrictPlatforms = true
	_, err = rt.NewContextFromFilters(nil, nil, nil, nil)
	require.ErrorIs(t, err, cl.ErrInvalidArgument)
	require.Equal(t, 1, fake.Calls(clfake.OpCreateContext))
	requireAlive(t, "device", devicesAlive)
}

func TestNewContextFromFiltersNoDevice(t *testing.T) {
	rt, fake := newTestRuntime(t)
	fs := cl.NewFilters()
	capture(fs.AddIndependent(cl.FilterString, "nothing matches this")).Test(t)
	ctx, err := rt.NewContextFromFilters(nil, fs, nil, nil)
	require.Nil(t, ctx)
	require.ErrorIs(t, err, cl.ErrDeviceNotFound)
	require.Equal(t, 0, fake.Calls(clfake.OpCreateContext))
}

func TestNewContextFromDevices(t *testing.T) {
	rt, _ := newTestRuntime(t)
	devicesAlive := cl.WrappersAlive()["device"]
	devices := capture(rt.Select(gpuFilters(t))).Test(t)

	ctx := capture(rt.NewContextFromDevices(nil, devices, nil, nil)).Test(t)
	ctxDevices := capture(ctx.Devices()).Test(t)
	for ii, d := range devices {
		require.Same(t, d, ctxDevices[ii], "the context shares the caller's wrappers")
		require.Equal(t, 2, d.RefCount())
	}
	cl.UnrefDevices(devices)
	for _, d := range ctxDevices {
		require.Equal(t, 1, d.RefCount())
	}
	requireAlive(t, "device", devicesAlive+2)
	require.NoError(t, ctx.Unref())
	requireAlive(t, "device", devicesAlive)

	_, err := rt.NewContextFromDevices(nil, nil, nil, nil)
	require.ErrorIs(t, err, cl.ErrInvalidArgument)
	_, err = rt.NewContextFromDevices(nil, []*cl.Device{nil}, nil, nil)
	require.ErrorIs(t, err, cl.ErrInvalidArgument)
}

func TestNewContextFromDeviceIDs(t *testing.T) {
	rt, fake := newTestRuntime(t)
	devicesAlive := cl.WrappersAlive()["device"]
	ids := fake.AllDeviceIDs()

	ctx := capture(rt.NewContextFromDeviceIDs(nil, ids[2:3], nil, nil)).Test(t)
	require.Equal(t, 1, ctx.RefCount())
	d := capture(ctx.Device(0)).Test(t)
	require.Equal(t, ids[2], d.Unwrap())
	require.Equal(t, 1, d.RefCount())
	require.Equal(t, "cpu-x86-64", capture(d.Name()).Test(t))
	require.Equal(t, 1, capture(ctx.NumDevices()).Test(t))
	numDevices := capture(cl.InfoUint32(capture(ctx.Info(cl.InfoContextNumDevices)).Test(t))).Test(t)
	require.Equal(t, uint32(1), numDevices)
	_, err := ctx.Device(1)
	require.ErrorIs(t, err, cl.ErrDeviceNotFound)
	_, err = ctx.Device(-1)
	require.ErrorIs(t, err, cl.ErrDeviceNotFound)
	requireAlive(t, "device", devicesAlive+1)
	require.NoError(t, ctx.Unref())
	requireAlive(t, "device", devicesAlive)

	// Invalid arguments: the native runtime is never called.
	_, err = rt.NewContextFromDeviceIDs(nil, nil, nil, nil)
	require.ErrorIs(t, err, cl.ErrInvalidArgument)
	_, err = rt.NewContextFromDeviceIDs(nil, []cl.DeviceID{ids[0], 0}, nil, nil)
	require.ErrorIs(t, err, cl.ErrInvalidArgument)
	require.Equal(t, 1, fake.Calls(clfake.OpCreateContext))

	// Native failure: all partially built wrappers are released.
	fake.Fail(clfake.OpCreateContext, cl.StatusOutOfHostMemory)
	ctx, err = rt.NewContextFromDeviceIDs(nil, ids[:2], nil, nil)
	require.Nil(t, ctx)
	status, ok := cl.StatusOf(err)
	require.True(t, ok)
	require.Equal(t, cl.StatusOutOfHostMemory, status)
	require.Contains(t, err.Error(), "OpenCL error in clCreateContext (status=-6 OutOfHostMemory)")
	requireAlive(t, "device", devicesAlive)
	fake.ClearFailures()
}

func TestReleaseFailureDoesNotQueryDevice(t *testing.T) {
	rt, fake := newTestRuntime(t)
	ids := fake.AllDeviceIDs()
	ctx := capture(rt.NewContextFromDeviceIDs(nil, ids[:1], nil, nil)).Test(t)
	require.Equal(t, "Acme Radiant X1", capture(capture(ctx.Device(0)).Test(t).Name()).Test(t))

	fake.Fail(clfake.OpReleaseDevice, cl.StatusInvalidDevice)
	defer fake.ClearFailures()
	infoCalls := fake.Calls(clfake.OpGetDeviceInfo)
	require.NoError(t, ctx.Unref())
	require.Equal(t, 1, fake.Calls(clfake.OpReleaseDevice))
	require.Equal(t, infoCalls, fake.Calls(clfake.OpGetDeviceInfo), "released device must not be queried")
}

func TestStringOfReleasedWrappers(t *testing.T) {
	rt, fake := newTestRuntime(t)
	platforms := capture(rt.Platforms()).Test(t)
	p := platforms.List()[0].Ref()
	d := capture(p.Device(0)).Test(t).Ref()
	platforms.Destroy()
	require.Equal(t, `Platform("Acme OpenCL")`, p.String())
	require.Equal(t, `Device("Acme Radiant X1")`, d.String())

	require.NoError(t, p.Unref())
	require.NoError(t, d.Unref())
	infoCalls := fake.Calls(clfake.OpGetDeviceInfo) + fake.Calls(clfake.OpGetPlatformInfo)
	require.Equal(t, fmt.Sprintf("Platform(0x%x)", uintptr(p.Unwrap())), p.String())
	require.Equal(t, fmt.Sprintf("Device(0x%x)", uintptr(d.Unwrap())), d.String())
	require.Equal(t, infoCalls, fake.Calls(clfake.OpGetDeviceInfo)+fake.Calls(clfake.OpGetPlatformInfo))
}

func TestWrapContext(t *testing.T) {
	rt, fake := newTestRuntime(t)
	ids := fake.AllDeviceIDs()[:2]
	platforms := capture(rt.Platforms()).Test(t)
	acme := platforms.List()[0].Unwrap()
	platforms.Destroy()
	id := capture(fake.CreateContext([]uintptr{uintptr(cl.ContextPlatform), uintptr(acme), 0}, ids, nil, nil)).Test(t)

	ctx := capture(rt.WrapContext(id)).Test(t)
	require.Equal(t, id, ctx.Unwrap())
	require.Equal(t, 2, fake.ContextRefCount(id))
	require.Equal(t, 0, fake.Calls(clfake.OpGetContextInfo), "devices should only be queried when needed")
	require.Equal(t, fmt.Sprintf("Context(0x%x)", uintptr(id)), ctx.String())

	// Concurrent first access materializes the devices only once.
	const numGoroutines = 8
	results := make([][]*cl.Device, numGoroutines)
	var wg sync.WaitGroup
	for ii := range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[ii], _ = ctx.Devices()
		}()
	}
	wg.Wait()
	require.Equal(t, 1, fake.Calls(clfake.OpGetContextInfo))
	for _, devices := range results {
		require.Len(t, devices, 2)
		require.Same(t, results[0][0], devices[0])
		require.Same(t, results[0][1], devices[1])
	}
	require.Equal(t, ids[0], results[0][0].Unwrap())
	require.Equal(t, 2, capture(ctx.NumDevices()).Test(t))
	require.Equal(t, 1, fake.Calls(clfake.OpGetContextInfo))

	platform := capture(ctx.Platform()).Test(t)
	require.Equal(t, "Acme OpenCL", capture(platform.Name()).Test(t))
	require.Same(t, platform, capture(ctx.Platform()).Test(t))

	// Unref releases only the reference taken by WrapContext.
	require.NoError(t, ctx.Unref())
	require.Equal(t, 1, fake.ContextRefCount(id))
	require.NoError(t, fake.ReleaseContext(id))
	require.Equal(t, 0, fake.LiveContexts())

	_, err := rt.WrapContext(0)
	require.ErrorIs(t, err, cl.ErrInvalidArgument)
	_, err = rt.WrapContext(id)
	status, _ := cl.StatusOf(err)
	require.Equal(t, cl.StatusInvalidContext, status)
}

func TestWrapContextNeverAccessed(t *testing.T) {
	rt, fake := newTestRuntime(t)
	devicesAlive := cl.WrappersAlive()["device"]
	id := capture(fake.CreateContext(nil, fake.AllDeviceIDs()[:1], nil, nil)).Test(t)
	ctx := capture(rt.WrapContext(id)).Test(t)
	require.NoError(t, ctx.Unref())
	require.Equal(t, 0, fake.Calls(clfake.OpGetContextInfo))
	requireAlive(t, "device", devicesAlive)
	require.NoError(t, fake.ReleaseContext(id))
}

func TestContextRefUnref(t *testing.T) {
	rt, fake := newTestRuntime(t)
	platformsAlive := cl.WrappersAlive()["platform"]
	ctx := capture(rt.NewContextGPU()).Test(t)
	require.Same(t, ctx, ctx.Ref())
	require.Equal(t, 2, ctx.RefCount())
	_ = capture(ctx.Platform()).Test(t)
	requireAlive(t, "platform", platformsAlive+1)

	require.NoError(t, ctx.Unref())
	require.Equal(t, 1, fake.LiveContexts())
	require.NoError(t, ctx.Unref())
	require.Equal(t, 0, fake.LiveContexts())
	requireAlive(t, "platform", platformsAlive)
	require.Equal(t, 1, fake.Calls(clfake.OpReleaseContext))

	// Over-releasing is a no-op.
	require.NoError(t, ctx.Unref())
	require.Equal(t, 1, fake.Calls(clfake.OpReleaseContext))
}

func TestContextReleaseFailure(t *testing.T) {
	rt, fake := newTestRuntime(t)
	ctx := capture(rt.NewContextCPU()).Test(t)
	fake.Fail(clfake.OpReleaseContext, cl.StatusInvalidContext)
	err := ctx.Unref()
	status, ok := cl.StatusOf(err)
	require.True(t, ok)
	require.Equal(t, cl.StatusInvalidContext, status)
	fake.ClearFailures()
}

func TestNewContextShortcuts(t *testing.T) {
	rt, fake := newTestRuntime(t)
	testCases := []struct {
		name string
		fn   func() (*cl.Context, error)
		want []string
	}{
		{"gpu", rt.NewContextGPU, []string{"Acme Radiant X1", "Acme Radiant X2"}},
		{"cpu", rt.NewContextCPU, []string{"cpu-x86-64"}},
		{"accel", rt.NewContextAccel, []string{"Basic Tensor Accelerator"}},
		{"any", rt.NewContextAny, []string{"Acme Radiant X1", "Acme Radiant X2"}},
		{"string", func() (*cl.Context, error) {
			return rt.NewContextFromIndependentFilter(cl.FilterString, "pocl")
		}, []string{"Basic Tensor Accelerator"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := capture(tc.fn()).Test(t)
			require.Equal(t, tc.want, deviceNames(t, capture(ctx.Devices()).Test(t)))
			require.Equal(t, []uintptr{uintptr(cl.ContextPlatform)}, fake.ContextProperties(ctx.Unwrap())[:1])
			require.NoError(t, ctx.Unref())
		})
	}

	layout := clfake.DefaultLayout()
	layout.Platforms = layout.Platforms[:1]
	rt, _ = newTestRuntimeWithLayout(t, layout)
	_, err := rt.NewContextCPU()
	require.ErrorIs(t, err, cl.ErrDeviceNotFound)
}

func TestContextNotify(t *testing.T) {
	rt, fake := newTestRuntime(t)
	type userData struct{ name string }
	data := &userData{name: "my data"}
	var gotInfo string
	var gotData any
	notify := func(errInfo string, _ []byte, ud any) {
		gotInfo = errInfo
		gotData = ud
	}
	ctx := capture(rt.NewContextFromFilters(nil, gpuFilters(t), notify, data)).Test(t)
	defer func() { require.NoError(t, ctx.Unref()) }()
	require.Empty(t, gotInfo, "the callback is never called by the library")
	require.True(t, fake.Notify(ctx.Unwrap(), "out of memory", nil))
	require.Equal(t, "out of memory", gotInfo)
	require.Same(t, data, gotData)
}
