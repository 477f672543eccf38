package cl

// Handle is an opaque identifier issued by the native API for a platform, device or context.
// The zero value is the "null" handle.
type Handle uintptr

// PlatformID is the native handle of a platform (cl_platform_id).
type PlatformID Handle

// DeviceID is the native handle of a device (cl_device_id).
type DeviceID Handle

// ContextID is the native handle of a context (cl_context).
type ContextID Handle

// NotifyFunc is the error callback given to the native runtime when creating a context.
//
// It is forwarded verbatim, together with its userData, and it is called by the native runtime
// (possibly asynchronously, from a thread owned by the runtime) to report errors in the context.
// It is never called by this package.
type NotifyFunc func(errInfo string, privateInfo []byte, userData any)

// Native is the boundary with the native compute API.
//
// All methods are blocking, and implementations must be safe for concurrent use.
// Failures should be returned as *NativeError (see NewNativeError), so callers can inspect
// the native Status.
//
// Attribute queries return the raw value blob, in native byte order, as returned by the
// clGet*Info family of functions: see the Info* functions to decode them.
type Native interface {
	// PlatformIDs enumerates the available platforms (clGetPlatformIDs).
	PlatformIDs() ([]PlatformID, error)

	// DeviceIDs enumerates the devices of the platform matching the deviceType mask (clGetDeviceIDs).
	DeviceIDs(platform PlatformID, deviceType DeviceType) ([]DeviceID, error)

	// PlatformInfo queries a platform attribute (clGetPlatformInfo).
	PlatformInfo(platform PlatformID, key InfoKey) ([]byte, error)

	// DeviceInfo queries a device attribute (clGetDeviceInfo).
	DeviceInfo(device DeviceID, key InfoKey) ([]byte, error)

	// ContextInfo queries a context attribute (clGetContextInfo).
	ContextInfo(context ContextID, key InfoKey) ([]byte, error)

	// CreateContext creates a context (clCreateContext). The properties are given in their
	// native form: key/value pairs terminated by a 0.
	CreateContext(properties []uintptr, devices []DeviceID, notify NotifyFunc, userData any) (ContextID, error)

	// RetainContext increments the native reference count of the context (clRetainContext).
	RetainContext(context ContextID) error

	// ReleaseContext decrements the native reference count of the context (clReleaseContext).
	ReleaseContext(context ContextID) error

	// ReleaseDevice releases the device (clReleaseDevice). It is a no-op for root devices.
	ReleaseDevice(device DeviceID) error
}
