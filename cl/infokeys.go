package cl

import "fmt"

// InfoKey identifies a native attribute of a platform, device or context (cl_*_info).
//
// Values copied from CL/cl.h.
type InfoKey uint32

// Platform attributes.
const (
	InfoPlatformProfile    InfoKey = 0x0900
	InfoPlatformVersion    InfoKey = 0x0901
	InfoPlatformName       InfoKey = 0x0902
	InfoPlatformVendor     InfoKey = 0x0903
	InfoPlatformExtensions InfoKey = 0x0904
)

// Device attributes.
const (
	InfoDeviceType            InfoKey = 0x1000
	InfoDeviceMaxComputeUnits InfoKey = 0x1002
	InfoDeviceGlobalMemSize   InfoKey = 0x101F
	InfoDeviceAvailable       InfoKey = 0x1027
	InfoDeviceName            InfoKey = 0x102B
	InfoDeviceVendor          InfoKey = 0x102C
	InfoDriverVersion         InfoKey = 0x102D
	InfoDeviceVersion         InfoKey = 0x102F
	InfoDevicePlatform        InfoKey = 0x1031
)

// Context attributes.
const (
	InfoContextReferenceCount InfoKey = 0x1080
	InfoContextDevices        InfoKey = 0x1081
	InfoContextProperties     InfoKey = 0x1082
	InfoContextNumDevices     InfoKey = 0x1083
)

var infoKeyNames = map[InfoKey]string{
	InfoPlatformProfile:       "CL_PLATFORM_PROFILE",
	InfoPlatformVersion:       "CL_PLATFORM_VERSION",
	InfoPlatformName:          "CL_PLATFORM_NAME",
	InfoPlatformVendor:        "CL_PLATFORM_VENDOR",
	InfoPlatformExtensions:    "CL_PLATFORM_EXTENSIONS",
	InfoDeviceType:            "CL_DEVICE_TYPE",
	InfoDeviceMaxComputeUnits: "CL_DEVICE_MAX_COMPUTE_UNITS",
	InfoDeviceGlobalMemSize:   "CL_DEVICE_GLOBAL_MEM_SIZE",
	InfoDeviceAvailable:       "CL_DEVICE_AVAILABLE",
	InfoDeviceName:            "CL_DEVICE_NAME",
	InfoDeviceVendor:          "CL_DEVICE_VENDOR",
	InfoDriverVersion:         "CL_DRIVER_VERSION",
	InfoDeviceVersion:         "CL_DEVICE_VERSION",
	InfoDevicePlatform:        "CL_DEVICE_PLATFORM",
	InfoContextReferenceCount: "CL_CONTEXT_REFERENCE_COUNT",
	InfoContextDevices:        "CL_CONTEXT_DEVICES",
	InfoContextProperties:     "CL_CONTEXT_PROPERTIES",
	InfoContextNumDevices:     "CL_CONTEXT_NUM_DEVICES",
}

// String implements fmt.Stringer, and returns the name of the key as in CL/cl.h.
func (k InfoKey) String() string {
	if name, found := infoKeyNames[k]; found {
		return name
	}
	return fmt.Sprintf("InfoKey(0x%04X)", uint32(k))
}
