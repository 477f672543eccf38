// Package clfake implements an in-memory cl.Native, with a configurable layout of platforms and
// devices, for testing and for running without an OpenCL driver.
//
// It tracks the native reference count of contexts, counts the calls to each native function,
// and can be told to fail specific functions with a given status.
//
// Example:
//
//	fake := clfake.New(clfake.DefaultLayout())
//	rt, err := cl.NewRuntime("fake", fake)
package clfake

import (
	"slices"
	"sync"

	"github.com/gomlx/gocl/cl"
	"k8s.io/klog/v2"
)

// Names of the native functions, used by Calls and Fail.
const (
	OpGetPlatformIDs  = "clGetPlatformIDs"
	OpGetDeviceIDs    = "clGetDeviceIDs"
	OpGetPlatformInfo = "clGetPlatformInfo"
	OpGetDeviceInfo   = "clGetDeviceInfo"
	OpGetContextInfo  = "clGetContextInfo"
	OpCreateContext   = "clCreateContext"
	OpRetainContext   = "clRetainContext"
	OpReleaseContext  = "clReleaseContext"
	OpReleaseDevice   = "clReleaseDevice"
)

const (
	firstHandle cl.Handle = 0x1000
	handleStep  cl.Handle = 0x10
)

// Fake is an in-memory implementation of cl.Native. It is safe for concurrent use.
type Fake struct {
	mu         sync.Mutex
	nextHandle cl.Handle
	platforms  []*fakePlatform
	devices    map[cl.DeviceID]*fakeDevice
	contexts   map[cl.ContextID]*fakeContext
	calls      map[string]int
	failures   map[string]cl.Status
}

type fakePlatform struct {
	id      cl.PlatformID
	spec    PlatformSpec
	devices []*fakeDevice
}

type fakeDevice struct {
	id       cl.DeviceID
	platform *fakePlatform
	spec     DeviceSpec
}

type fakeContext struct {
	id         cl.ContextID
	refCount   int
	devices    []cl.DeviceID
	properties []uintptr
	notify     cl.NotifyFunc
	userData   any
}

// Assert Fake implements cl.Native.
var _ cl.Native = (*Fake)(nil)

// New creates a Fake with the platforms and devices of the layout.
func New(layout Layout) *Fake {
	f := &Fake{
		nextHandle: firstHandle,
		devices:    make(map[cl.DeviceID]*fakeDevice),
		contexts:   make(map[cl.ContextID]*fakeContext),
		calls:      make(map[string]int),
		failures:   make(map[string]cl.Status),
	}
	for _, pSpec := range layout.Platforms {
		p := &fakePlatform{id: cl.PlatformID(f.newHandle()), spec: pSpec}
		for _, dSpec := range pSpec.Devices {
			d := &fakeDevice{id: cl.DeviceID(f.newHandle()), platform: p, spec: dSpec}
			p.devices = append(p.devices, d)
			f.devices[d.id] = d
		}
		f.platforms = append(f.platforms, p)
	}
	return f
}

// newHandle must be called with f.mu locked (or during construction).
func (f *Fake) newHandle() cl.Handle {
	h := f.nextHandle
	f.nextHandle += handleStep
	return h
}

// enter registers the call to op and returns the injected failure, if any. Must be called with f.mu locked.
func (f *Fake) enter(op string) error {
	f.calls[op]++
	if status, found := f.failures[op]; found {
		return cl.NewNativeError(op, status)
	}
	return nil
}

// Fail makes all following calls to the native function op fail with the given status, until
// ClearFailures is called.
func (f *Fake) Fail(op string, status cl.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = status
}

// ClearFailures removes all failures set with Fail.
func (f *Fake) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.failures)
}

// Calls returns the number of calls to the native function op so far.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// ContextRefCount returns the native reference count of the context, or 0 if it doesn't exist
// (or has been released).
func (f *Fake) ContextRefCount(id cl.ContextID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, found := f.contexts[id]; found {
		return c.refCount
	}
	return 0
}

// LiveContexts returns the number of contexts not yet released.
func (f *Fake) LiveContexts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.contexts)
}

// ContextProperties returns the flattened properties used to create the context.
func (f *Fake) ContextProperties(id cl.ContextID) []uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, found := f.contexts[id]; found {
		return slices.Clone(c.properties)
	}
	return nil
}

// Notify calls the error callback of the context, as the native runtime would do to report an error.
// It returns false if the context doesn't exist or has no callback.
func (f *Fake) Notify(id cl.ContextID, errInfo string, privateInfo []byte) bool {
	f.mu.Lock()
	c, found := f.contexts[id]
	f.mu.Unlock()
	if !found || c.notify == nil {
		return false
	}
	c.notify(errInfo, privateInfo, c.userData)
	return true
}

// PlatformIDs implements cl.Native.
func (f *Fake) PlatformIDs() ([]cl.PlatformID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpGetPlatformIDs); err != nil {
		return nil, err
	}
	if len(f.platforms) == 0 {
		return nil, cl.NewNativeError(OpGetPlatformIDs, cl.StatusPlatformNotFoundKHR)
	}
	ids := make([]cl.PlatformID, len(f.platforms))
	for ii, p := range f.platforms {
		ids[ii] = p.id
	}
	return ids, nil
}

func (f *Fake) findPlatform(id cl.PlatformID) *fakePlatform {
	for _, p := range f.platforms {
		if p.id == id {
			return p
		}
	}
	return nil
}

// DeviceIDs implements cl.Native.
func (f *Fake) DeviceIDs(platform cl.PlatformID, deviceType cl.DeviceType) ([]cl.DeviceID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpGetDeviceIDs); err != nil {
		return nil, err
	}
	p := f.findPlatform(platform)
	if p == nil {
		return nil, cl.NewNativeError(OpGetDeviceIDs, cl.StatusInvalidPlatform)
	}
	var ids []cl.DeviceID
	for _, d := range p.devices {
		if d.spec.Type.Matches(deviceType) {
			ids = append(ids, d.id)
		}
	}
	if len(ids) == 0 {
		return nil, cl.NewNativeError(OpGetDeviceIDs, cl.StatusDeviceNotFound)
	}
	return ids, nil
}

// PlatformInfo implements cl.Native.
func (f *Fake) PlatformInfo(platform cl.PlatformID, key cl.InfoKey) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpGetPlatformInfo); err != nil {
		return nil, err
	}
	p := f.findPlatform(platform)
	if p == nil {
		return nil, cl.NewNativeError(OpGetPlatformInfo, cl.StatusInvalidPlatform)
	}
	switch key {
	case cl.InfoPlatformProfile:
		return cl.EncodeString(p.spec.Profile), nil
	case cl.InfoPlatformVersion:
		return cl.EncodeString(p.spec.Version), nil
	case cl.InfoPlatformName:
		return cl.EncodeString(p.spec.Name), nil
	case cl.InfoPlatformVendor:
		return cl.EncodeString(p.spec.Vendor), nil
	case cl.InfoPlatformExtensions:
		return cl.EncodeString(p.spec.Extensions), nil
	}
	return nil, cl.NewNativeError(OpGetPlatformInfo, cl.StatusInvalidValue)
}

// DeviceInfo implements cl.Native.
func (f *Fake) DeviceInfo(device cl.DeviceID, key cl.InfoKey) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpGetDeviceInfo); err != nil {
		return nil, err
	}
	d, found := f.devices[device]
	if !found {
		return nil, cl.NewNativeError(OpGetDeviceInfo, cl.StatusInvalidDevice)
	}
	switch key {
	case cl.InfoDeviceType:
		return cl.EncodeUint64(uint64(d.spec.Type)), nil
	case cl.InfoDeviceMaxComputeUnits:
		return cl.EncodeUint32(d.spec.ComputeUnits), nil
	case cl.InfoDeviceGlobalMemSize:
		return cl.EncodeUint64(d.spec.GlobalMemSize), nil
	case cl.InfoDeviceAvailable:
		return cl.EncodeBool(!d.spec.Unavailable), nil
	case cl.InfoDeviceName:
		return cl.EncodeString(d.spec.Name), nil
	case cl.InfoDeviceVendor:
		return cl.EncodeString(d.spec.Vendor), nil
	case cl.InfoDriverVersion:
		return cl.EncodeString(d.spec.DriverVersion), nil
	case cl.InfoDeviceVersion:
		return cl.EncodeString(d.spec.Version), nil
	case cl.InfoDevicePlatform:
		return cl.EncodeHandles(cl.Handle(d.platform.id)), nil
	}
	return nil, cl.NewNativeError(OpGetDeviceInfo, cl.StatusInvalidValue)
}

// ContextInfo implements cl.Native.
func (f *Fake) ContextInfo(context cl.ContextID, key cl.InfoKey) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpGetContextInfo); err != nil {
		return nil, err
	}
	c, found := f.contexts[context]
	if !found {
		return nil, cl.NewNativeError(OpGetContextInfo, cl.StatusInvalidContext)
	}
	switch key {
	case cl.InfoContextReferenceCount:
		return cl.EncodeUint32(uint32(c.refCount)), nil
	case cl.InfoContextDevices:
		handles := make([]cl.Handle, len(c.devices))
		for ii, id := range c.devices {
			handles[ii] = cl.Handle(id)
		}
		return cl.EncodeHandles(handles...), nil
	case cl.InfoContextNumDevices:
		return cl.EncodeUint32(uint32(len(c.devices))), nil
	case cl.InfoContextProperties:
		handles := make([]cl.Handle, len(c.properties))
		for ii, v := range c.properties {
			handles[ii] = cl.Handle(v)
		}
		return cl.EncodeHandles(handles...), nil
	}
	return nil, cl.NewNativeError(OpGetContextInfo, cl.StatusInvalidValue)
}

// CreateContext implements cl.Native.
//
// It validates the properties (only CL_CONTEXT_PLATFORM and CL_CONTEXT_INTEROP_USER_SYNC are
// accepted) and requires all devices to belong to the same platform, the one of the properties if given.
func (f *Fake) CreateContext(properties []uintptr, devices []cl.DeviceID, notify cl.NotifyFunc, userData any) (cl.ContextID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpCreateContext); err != nil {
		return 0, err
	}
	if len(devices) == 0 {
		return 0, cl.NewNativeError(OpCreateContext, cl.StatusInvalidValue)
	}

	var platform *fakePlatform
	if len(properties) > 0 {
		if len(properties)%2 != 1 || properties[len(properties)-1] != 0 {
			return 0, cl.NewNativeError(OpCreateContext, cl.StatusInvalidProperty)
		}
		for ii := 0; ii < len(properties)-1; ii += 2 {
			switch cl.PropertyKey(properties[ii]) {
			case cl.ContextPlatform:
				platform = f.findPlatform(cl.PlatformID(properties[ii+1]))
				if platform == nil {
					return 0, cl.NewNativeError(OpCreateContext, cl.StatusInvalidPlatform)
				}
			case cl.ContextInteropUserSync:
			default:
				return 0, cl.NewNativeError(OpCreateContext, cl.StatusInvalidProperty)
			}
		}
	}

	for _, id := range devices {
		d, found := f.devices[id]
		if !found {
			return 0, cl.NewNativeError(OpCreateContext, cl.StatusInvalidDevice)
		}
		if platform == nil {
			platform = d.platform
		}
		if d.platform != platform {
			return 0, cl.NewNativeError(OpCreateContext, cl.StatusInvalidDevice)
		}
		if d.spec.Unavailable {
			return 0, cl.NewNativeError(OpCreateContext, cl.StatusDeviceNotAvailable)
		}
	}

	c := &fakeContext{
		id:         cl.ContextID(f.newHandle()),
		refCount:   1,
		devices:    slices.Clone(devices),
		properties: slices.Clone(properties),
		notify:     notify,
		userData:   userData,
	}
	f.contexts[c.id] = c
	klog.V(2).Infof("clfake: created context 0x%x with %d devices", uintptr(c.id), len(devices))
	return c.id, nil
}

// RetainContext implements cl.Native.
func (f *Fake) RetainContext(context cl.ContextID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpRetainContext); err != nil {
		return err
	}
	c, found := f.contexts[context]
	if !found {
		return cl.NewNativeError(OpRetainContext, cl.StatusInvalidContext)
	}
	c.refCount++
	return nil
}

// ReleaseContext implements cl.Native.
func (f *Fake) ReleaseContext(context cl.ContextID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpReleaseContext); err != nil {
		return err
	}
	c, found := f.contexts[context]
	if !found {
		return cl.NewNativeError(OpReleaseContext, cl.StatusInvalidContext)
	}
	c.refCount--
	if c.refCount == 0 {
		delete(f.contexts, context)
		klog.V(2).Infof("clfake: context 0x%x destroyed", uintptr(context))
	}
	return nil
}

// ReleaseDevice implements cl.Native. Fake devices are root devices, so it only validates the handle.
func (f *Fake) ReleaseDevice(device cl.DeviceID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(OpReleaseDevice); err != nil {
		return err
	}
	if _, found := f.devices[device]; !found {
		return cl.NewNativeError(OpReleaseDevice, cl.StatusInvalidDevice)
	}
	return nil
}

// AllDeviceIDs returns the ids of all devices of all platforms, in order.
func (f *Fake) AllDeviceIDs() []cl.DeviceID {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []cl.DeviceID
	for _, p := range f.platforms {
		for _, d := range p.devices {
			ids = append(ids, d.id)
		}
	}
	return ids
}
