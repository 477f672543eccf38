package cl

// Status is a native status (error) code returned by the OpenCL API (cl_int).
//
// Values copied from CL/cl.h.
type Status int32

const (
	StatusSuccess                    Status = 0
	StatusDeviceNotFound             Status = -1
	StatusDeviceNotAvailable         Status = -2
	StatusCompilerNotAvailable       Status = -3
	StatusMemObjectAllocationFailure Status = -4
	StatusOutOfResources             Status = -5
	StatusOutOfHostMemory            Status = -6
	StatusProfilingInfoNotAvailable  Status = -7
	StatusInvalidValue               Status = -30
	StatusInvalidDeviceType          Status = -31
	StatusInvalidPlatform            Status = -32
	StatusInvalidDevice              Status = -33
	StatusInvalidContext             Status = -34
	StatusInvalidOperation           Status = -59
	StatusInvalidProperty            Status = -64
	StatusPlatformNotFoundKHR        Status = -1001
)
