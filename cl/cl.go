// Package cl implements reference-counted Go wrappers for OpenCL platforms, devices and contexts,
// and a filter pipeline that selects the devices bound into a Context.
//
// The native OpenCL API is reached through the Native interface. Implementations are provided by
// the sub-packages: ocl dynamically loads the system's OpenCL ICD loader (libOpenCL.so) and
// registers it as the "opencl" Runtime; clfake is an in-memory implementation, used for testing.
//
// Every wrapper (Platform, Device, Context) starts with a reference count of 1. Ref increments it,
// and Unref decrements it: when it reaches zero the owned children are unreferenced and the native
// handle is released. A Device may be shared, e.g., by a Platform and by a Context: it is only
// released when its last owner unreferences it.
//
// Example:
//
//	rt, err := cl.DefaultRuntime()
//	if err != nil { ... }
//	ctx, err := rt.NewContextGPU()
//	if err != nil { ... }
//	defer ctx.Unref()
//	devices, err := ctx.Devices()
package cl

//go:generate go tool enumer -type=Status -trimprefix=Status -output=gen_status_enumer.go status.go
//go:generate go tool enumer -type=DeviceType -trimprefix=DeviceType -output=gen_devicetype_enumer.go devicetype.go
