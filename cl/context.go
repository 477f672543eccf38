package cl

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Context is a reference-counted wrapper of a native context (cl_context): the set of devices (of one
// platform) that programs, memory objects and command queues are created for.
//
// A Context owns one reference of each of its devices and, if it was requested, of its platform.
type Context struct {
	wrapper
	rt *Runtime

	muDevices   sync.Mutex
	devicesInit bool
	devices     []*Device
	platform    *Platform
}

// newContext wraps id with a reference count of 1. The devices are left to be set by the caller.
func newContext(rt *Runtime, id ContextID) *Context {
	c := &Context{rt: rt}
	native := rt.native
	c.init(kindContext, Handle(id), func(h Handle) error {
		return native.ReleaseContext(ContextID(h))
	})
	trackWrapper(c, &c.wrapper)
	return c
}

// createContext resolves the properties with the first device as reference, and calls the native
// context creation.
func (rt *Runtime) createContext(props ContextProperties, devices []*Device, notify NotifyFunc, userData any) (ContextID, error) {
	resolved, err := resolveProperties(props, devices[0])
	if err != nil {
		return 0, errors.WithMessage(err, "failed to resolve the default properties of the context")
	}
	ids := make([]DeviceID, len(devices))
	for ii, d := range devices {
		ids[ii] = d.Unwrap()
	}
	id, err := rt.native.CreateContext(resolved.flatten(), ids, notify, userData)
	if err != nil {
		return 0, errors.WithMessagef(err, "failed to create context with %d devices", len(ids))
	}
	if id == 0 {
		return 0, errors.Errorf("runtime %q returned a null context with no error", rt.name)
	}
	klog.V(1).Infof("cl: created context 0x%x with %d devices", uintptr(id), len(ids))
	return id, nil
}

// NewContextFromFilters creates a context with the devices selected by the filters (see Select).
//
// If props is nil, the context is created for the platform of the first selected device.
// The notify callback (it can be nil) and userData are passed verbatim to the native runtime.
//
// If the selected devices belong to different platforms a warning is logged, or, if the runtime
// StrictPlatforms is set, an ErrInvalidArgument is returned. Use FilterSamePlatform to avoid that.
func (rt *Runtime) NewContextFromFilters(props ContextProperties, filters *Filters, notify NotifyFunc, userData any) (*Context, error) {
	devices, err := rt.Select(filters)
	if err != nil {
		return nil, err
	}
	defer UnrefDevices(devices)

	for _, d := range devices[1:] {
		same, err := devices[0].SamePlatform(d)
		if err != nil {
			return nil, err
		}
		if same {
			continue
		}
		if rt.StrictPlatforms {
			return nil, invalidArgumentf("selected devices %s and %s belong to different platforms", devices[0], d)
		}
		klog.Warningf("cl: selected devices %s and %s belong to different platforms, context creation will probably fail", devices[0], d)
		break
	}
	return rt.NewContextFromDevices(props, devices, notify, userData)
}

// NewContextFromDevices creates a context with the given devices. The context takes its own reference
// of each device, the caller keeps theirs.
//
// If props is nil, the context is created for the platform of the first device.
// The notify callback (it can be nil) and userData are passed verbatim to the native runtime.
func (rt *Runtime) NewContextFromDevices(props ContextProperties, devices []*Device, notify NotifyFunc, userData any) (*Context, error) {
	if len(devices) == 0 {
		return nil, invalidArgumentf("NewContextFromDevices requires at least one device")
	}
	for ii, d := range devices {
		if d == nil {
			return nil, invalidArgumentf("NewContextFromDevices given a nil device at index %d", ii)
		}
	}
	id, err := rt.createContext(props, devices, notify, userData)
	if err != nil {
		return nil, err
	}
	c := newContext(rt, id)
	c.devices = make([]*Device, len(devices))
	for ii, d := range devices {
		c.devices[ii] = d.Ref()
	}
	c.devicesInit = true
	return c, nil
}

// NewContextFromDeviceIDs creates a context with the given native devices. Each device is wrapped
// and owned by the context.
//
// If props is nil, the context is created for the platform of the first device.
// The notify callback (it can be nil) and userData are passed verbatim to the native runtime.
func (rt *Runtime) NewContextFromDeviceIDs(props ContextProperties, ids []DeviceID, notify NotifyFunc, userData any) (*Context, error) {
	if len(ids) == 0 {
		return nil, invalidArgumentf("NewContextFromDeviceIDs requires at least one device")
	}
	for ii, id := range ids {
		if id == 0 {
			return nil, invalidArgumentf("NewContextFromDeviceIDs given a null device at index %d", ii)
		}
	}
	devices := make([]*Device, len(ids))
	for ii, id := range ids {
		devices[ii] = newDevice(rt, id)
	}
	id, err := rt.createContext(props, devices, notify, userData)
	if err != nil {
		UnrefDevices(devices)
		return nil, err
	}
	c := newContext(rt, id)
	c.devices = devices
	c.devicesInit = true
	return c, nil
}

// WrapContext wraps a context created elsewhere. It retains the native context, so the caller
// keeps its own native reference.
//
// The devices of the context are only queried (and wrapped) when first needed.
func (rt *Runtime) WrapContext(id ContextID) (*Context, error) {
	if id == 0 {
		return nil, invalidArgumentf("WrapContext given a null context")
	}
	if err := rt.native.RetainContext(id); err != nil {
		return nil, errors.WithMessagef(err, "failed to retain context 0x%x", uintptr(id))
	}
	return newContext(rt, id), nil
}

// NewContextFromIndependentFilter creates a context with the devices accepted by fn (all devices if
// fn is nil) that belong to the same platform as the first of them.
//
// It uses the default properties and no error callback.
func (rt *Runtime) NewContextFromIndependentFilter(fn IndependentFilter, data any) (*Context, error) {
	filters := NewFilters()
	if fn != nil {
		if _, err := filters.AddIndependent(fn, data); err != nil {
			return nil, err
		}
	}
	if _, err := filters.AddDependent(FilterSamePlatform, nil); err != nil {
		return nil, err
	}
	return rt.NewContextFromFilters(nil, filters, nil, nil)
}

// NewContextGPU creates a context with the GPUs of the first platform that has one.
func (rt *Runtime) NewContextGPU() (*Context, error) {
	return rt.NewContextFromIndependentFilter(FilterGPU, nil)
}

// NewContextCPU creates a context with the CPUs of the first platform that has one.
func (rt *Runtime) NewContextCPU() (*Context, error) {
	return rt.NewContextFromIndependentFilter(FilterCPU, nil)
}

// NewContextAccel creates a context with the accelerators of the first platform that has one.
func (rt *Runtime) NewContextAccel() (*Context, error) {
	return rt.NewContextFromIndependentFilter(FilterAccel, nil)
}

// NewContextAny creates a context with all devices of the first platform.
func (rt *Runtime) NewContextAny() (*Context, error) {
	return rt.NewContextFromIndependentFilter(nil, nil)
}

// Unwrap returns the native handle of the context. It remains owned by the Context.
func (c *Context) Unwrap() ContextID {
	return ContextID(c.handle)
}

// Runtime used to create the context.
func (c *Context) Runtime() *Runtime {
	return c.rt
}

// Ref increments the reference count of the context, and returns itself for convenience.
func (c *Context) Ref() *Context {
	c.ref()
	return c
}

// Unref decrements the reference count. When it reaches zero, the devices and platform owned by
// the context are unreffed and the native context is released.
func (c *Context) Unref() error {
	if c.unref() == 0 {
		return nil
	}
	c.muDevices.Lock()
	devices, platform := c.devices, c.platform
	c.devices, c.platform = nil, nil
	c.muDevices.Unlock()

	UnrefDevices(devices)
	if platform != nil {
		if err := platform.Unref(); err != nil {
			klog.Errorf("cl: failed to release platform 0x%x: %+v", uintptr(platform.Unwrap()), err)
		}
	}
	if err := c.release(); err != nil {
		return errors.WithMessagef(err, "failed to release context 0x%x", uintptr(c.handle))
	}
	return nil
}

// Info returns the raw value of the context attribute given by key. The value is cached.
func (c *Context) Info(key InfoKey) ([]byte, error) {
	blob, err := c.queryInfo(key, func(key InfoKey) ([]byte, error) {
		return c.rt.native.ContextInfo(c.Unwrap(), key)
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to query %s of context 0x%x", key, uintptr(c.handle))
	}
	return blob, nil
}

// NativeRefCount queries the native reference count of the context (CL_CONTEXT_REFERENCE_COUNT).
// It is not cached, and it is unrelated to the reference count of the wrapper.
func (c *Context) NativeRefCount() (int, error) {
	blob, err := c.rt.native.ContextInfo(c.Unwrap(), InfoContextReferenceCount)
	if err != nil {
		return 0, err
	}
	v, err := InfoUint32(blob)
	return int(v), err
}

// Devices returns the devices of the context. They are owned by the context: call Ref on the ones
// that need to outlive it.
//
// For wrapped contexts (see WrapContext) they are queried on the first call.
func (c *Context) Devices() ([]*Device, error) {
	c.muDevices.Lock()
	defer c.muDevices.Unlock()
	return c.devicesLocked()
}

func (c *Context) devicesLocked() ([]*Device, error) {
	if c.devicesInit {
		return c.devices, nil
	}
	blob, err := c.Info(InfoContextDevices)
	if err != nil {
		return nil, err
	}
	handles, err := InfoHandles(blob)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid %s for context 0x%x", InfoContextDevices, uintptr(c.handle))
	}
	devices := make([]*Device, len(handles))
	for ii, h := range handles {
		devices[ii] = newDevice(c.rt, DeviceID(h))
	}
	c.devices = devices
	c.devicesInit = true
	return c.devices, nil
}

// NumDevices returns the number of devices in the context.
func (c *Context) NumDevices() (int, error) {
	devices, err := c.Devices()
	if err != nil {
		return 0, err
	}
	return len(devices), nil
}

// Device returns the device of the context at the given index. It is owned by the context.
func (c *Context) Device(index int) (*Device, error) {
	devices, err := c.Devices()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(devices) {
		return nil, deviceNotFoundf("device index %d out of range, context has %d devices", index, len(devices))
	}
	return devices[index], nil
}

// Platform returns the platform of the context, taken from its first device.
// It is created on the first call, and owned by the context.
func (c *Context) Platform() (*Platform, error) {
	c.muDevices.Lock()
	defer c.muDevices.Unlock()
	if c.platform != nil {
		return c.platform, nil
	}
	devices, err := c.devicesLocked()
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, deviceNotFoundf("context 0x%x has no devices", uintptr(c.handle))
	}
	platform, err := NewPlatformFromDevice(devices[0])
	if err != nil {
		return nil, err
	}
	c.platform = platform
	return platform, nil
}

// String implements fmt.Stringer.
func (c *Context) String() string {
	if c == nil {
		return "Context(nil)"
	}
	c.muDevices.Lock()
	defer c.muDevices.Unlock()
	if !c.devicesInit {
		return fmt.Sprintf("Context(0x%x)", uintptr(c.handle))
	}
	return fmt.Sprintf("Context(0x%x, %v)", uintptr(c.handle), c.devices)
}
