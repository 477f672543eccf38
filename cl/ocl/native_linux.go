package ocl

/*
#include <stdlib.h>
#include "api.h"
*/
import "C"
import (
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/gomlx/gocl/cl"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Native implements cl.Native by calling the functions of a dynamically loaded OpenCL library.
type Native struct {
	lib *linuxDLLHandle
	api *C.ocl_api

	// notifyHandles holds the cgo.Handle passed as user data of each context created with a callback.
	muNotify      sync.Mutex
	notifyHandles map[cl.ContextID]cgo.Handle
}

// Assert Native implements cl.Native.
var _ cl.Native = (*Native)(nil)

// Load searches and loads the OpenCL library: see package documentation for the search order.
func Load() (cl.Native, error) {
	searchPaths := librarySearchPaths()
	libPath := searchLibrary(searchPaths)
	if libPath == "" {
		klog.V(1).Infof("OpenCL library not found in %v, letting the dynamic linker search for %q", searchPaths, libraryNames[0])
		libPath = libraryNames[0]
	}
	n, err := LoadFrom(libPath)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// LoadFrom loads the OpenCL library from the given path.
func LoadFrom(libPath string) (*Native, error) {
	lib, err := openLibrary(libPath)
	if err != nil {
		return nil, err
	}
	api := (*C.ocl_api)(C.calloc(1, C.size_t(unsafe.Sizeof(C.ocl_api{}))))
	n := &Native{lib: lib, api: api, notifyHandles: make(map[cl.ContextID]cgo.Handle)}
	symbols := []struct {
		name     string
		set      func(unsafe.Pointer)
		optional bool
	}{
		{"clGetPlatformIDs", func(p unsafe.Pointer) { api.get_platform_ids = C.ocl_get_ids_fn(p) }, false},
		{"clGetDeviceIDs", func(p unsafe.Pointer) { api.get_device_ids = C.ocl_get_device_ids_fn(p) }, false},
		{"clGetPlatformInfo", func(p unsafe.Pointer) { api.get_platform_info = C.ocl_get_info_fn(p) }, false},
		{"clGetDeviceInfo", func(p unsafe.Pointer) { api.get_device_info = C.ocl_get_info_fn(p) }, false},
		{"clGetContextInfo", func(p unsafe.Pointer) { api.get_context_info = C.ocl_get_info_fn(p) }, false},
		{"clCreateContext", func(p unsafe.Pointer) { api.create_context = C.ocl_create_context_fn(p) }, false},
		{"clRetainContext", func(p unsafe.Pointer) { api.retain_context = C.ocl_handle_fn(p) }, false},
		{"clReleaseContext", func(p unsafe.Pointer) { api.release_context = C.ocl_handle_fn(p) }, false},
		{"clReleaseDevice", func(p unsafe.Pointer) { api.release_device = C.ocl_handle_fn(p) }, true},
	}
	for _, sym := range symbols {
		ptr, err := lib.GetSymbolPointer(sym.name)
		if err != nil {
			if sym.optional {
				klog.V(1).Infof("OpenCL library %q has no %s (OpenCL < 1.2?), it will be a no-op", libPath, sym.name)
				continue
			}
			C.free(unsafe.Pointer(api))
			if err2 := lib.Close(); err2 != nil {
				klog.Warningf("Failed to close dynamic library %q: %v", libPath, err2)
			}
			return nil, errors.WithMessagef(err, "library %q is not a valid OpenCL library", libPath)
		}
		sym.set(ptr)
	}
	return n, nil
}

// Path from where the library was loaded.
func (n *Native) Path() string {
	return n.lib.Name
}

// toError converts a native status to an error.
func toError(op string, status C.ocl_int) error {
	return cl.NewNativeError(op, cl.Status(status))
}

// PlatformIDs implements cl.Native.
func (n *Native) PlatformIDs() ([]cl.PlatformID, error) {
	var count C.ocl_uint
	if err := toError("clGetPlatformIDs", C.ocl_get_platform_ids(n.api, 0, nil, &count)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	ids := make([]C.uintptr_t, count)
	if err := toError("clGetPlatformIDs", C.ocl_get_platform_ids(n.api, count, &ids[0], &count)); err != nil {
		return nil, err
	}
	platforms := make([]cl.PlatformID, count)
	for ii := range platforms {
		platforms[ii] = cl.PlatformID(ids[ii])
	}
	return platforms, nil
}

// DeviceIDs implements cl.Native.
func (n *Native) DeviceIDs(platform cl.PlatformID, deviceType cl.DeviceType) ([]cl.DeviceID, error) {
	var count C.ocl_uint
	status := C.ocl_get_device_ids(n.api, C.uintptr_t(platform), C.ocl_bitfield(deviceType), 0, nil, &count)
	if err := toError("clGetDeviceIDs", status); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	ids := make([]C.uintptr_t, count)
	status = C.ocl_get_device_ids(n.api, C.uintptr_t(platform), C.ocl_bitfield(deviceType), count, &ids[0], &count)
	if err := toError("clGetDeviceIDs", status); err != nil {
		return nil, err
	}
	devices := make([]cl.DeviceID, count)
	for ii := range devices {
		devices[ii] = cl.DeviceID(ids[ii])
	}
	return devices, nil
}

// info queries the size of the attribute, and then its value.
func (n *Native) info(op string, kind C.int, obj uintptr, key cl.InfoKey) ([]byte, error) {
	var size C.size_t
	if err := toError(op, C.ocl_get_info(n.api, kind, C.uintptr_t(obj), C.ocl_uint(key), 0, nil, &size)); err != nil {
		return nil, err
	}
	if size == 0 {
		return []byte{}, nil
	}
	blob := make([]byte, size)
	status := C.ocl_get_info(n.api, kind, C.uintptr_t(obj), C.ocl_uint(key), size, unsafe.Pointer(&blob[0]), nil)
	if err := toError(op, status); err != nil {
		return nil, err
	}
	return blob, nil
}

// PlatformInfo implements cl.Native.
func (n *Native) PlatformInfo(platform cl.PlatformID, key cl.InfoKey) ([]byte, error) {
	return n.info("clGetPlatformInfo", C.OCL_INFO_PLATFORM, uintptr(platform), key)
}

// DeviceInfo implements cl.Native.
func (n *Native) DeviceInfo(device cl.DeviceID, key cl.InfoKey) ([]byte, error) {
	return n.info("clGetDeviceInfo", C.OCL_INFO_DEVICE, uintptr(device), key)
}

// ContextInfo implements cl.Native.
func (n *Native) ContextInfo(context cl.ContextID, key cl.InfoKey) ([]byte, error) {
	return n.info("clGetContextInfo", C.OCL_INFO_CONTEXT, uintptr(context), key)
}

// notifyData is the value of the cgo.Handle given as the context callback user data.
type notifyData struct {
	fn       cl.NotifyFunc
	userData any
}

//export goOclNotify
func goOclNotify(errInfo *C.char, privateInfo unsafe.Pointer, cb C.size_t, handle C.uintptr_t) {
	data, ok := cgo.Handle(handle).Value().(*notifyData)
	if !ok {
		klog.Errorf("ocl: context error callback called with an invalid handle")
		return
	}
	var private []byte
	if privateInfo != nil && cb > 0 {
		private = C.GoBytes(privateInfo, C.int(cb))
	}
	data.fn(C.GoString(errInfo), private, data.userData)
}

// CreateContext implements cl.Native.
func (n *Native) CreateContext(properties []uintptr, devices []cl.DeviceID, notify cl.NotifyFunc, userData any) (cl.ContextID, error) {
	if len(devices) == 0 {
		return 0, cl.NewNativeError("clCreateContext", cl.StatusInvalidValue)
	}
	var cProps *C.intptr_t
	if len(properties) > 0 {
		props := make([]C.intptr_t, len(properties))
		for ii, p := range properties {
			props[ii] = C.intptr_t(p)
		}
		cProps = &props[0]
	}
	ids := make([]C.uintptr_t, len(devices))
	for ii, d := range devices {
		ids[ii] = C.uintptr_t(d)
	}

	var handle cgo.Handle
	if notify != nil {
		handle = cgo.NewHandle(&notifyData{fn: notify, userData: userData})
	}
	var status C.ocl_int
	ctx := C.ocl_create_context(n.api, cProps, C.ocl_uint(len(ids)), &ids[0], C.uintptr_t(handle), &status)
	if err := toError("clCreateContext", status); err != nil {
		if handle != 0 {
			handle.Delete()
		}
		return 0, err
	}
	id := cl.ContextID(ctx)
	if handle != 0 {
		n.muNotify.Lock()
		n.notifyHandles[id] = handle
		n.muNotify.Unlock()
	}
	return id, nil
}

// RetainContext implements cl.Native.
func (n *Native) RetainContext(context cl.ContextID) error {
	return toError("clRetainContext", C.ocl_retain_context(n.api, C.uintptr_t(context)))
}

// ReleaseContext implements cl.Native.
//
// If this is the last native reference of a context created with a callback, the callback handle is freed.
func (n *Native) ReleaseContext(context cl.ContextID) error {
	n.muNotify.Lock()
	handle, hasHandle := n.notifyHandles[context]
	n.muNotify.Unlock()
	lastRef := false
	if hasHandle {
		blob, err := n.ContextInfo(context, cl.InfoContextReferenceCount)
		if err == nil {
			count, err := cl.InfoUint32(blob)
			lastRef = err == nil && count == 1
		}
	}
	if err := toError("clReleaseContext", C.ocl_release_context(n.api, C.uintptr_t(context))); err != nil {
		return err
	}
	if lastRef {
		n.muNotify.Lock()
		delete(n.notifyHandles, context)
		n.muNotify.Unlock()
		handle.Delete()
	}
	return nil
}

// ReleaseDevice implements cl.Native.
func (n *Native) ReleaseDevice(device cl.DeviceID) error {
	return toError("clReleaseDevice", C.ocl_release_device(n.api, C.uintptr_t(device)))
}
