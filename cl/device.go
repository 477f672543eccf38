package cl

import (
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Device is a reference-counted wrapper of a native compute device (cl_device_id).
//
// A Device can be shared by many owners (a Platform enumeration, a Context, the result of a
// Select): each owner holds one reference, and the last Unref releases the native handle.
type Device struct {
	wrapper
	rt *Runtime
}

// newDevice wraps id with a reference count of 1.
func newDevice(rt *Runtime, id DeviceID) *Device {
	d := &Device{rt: rt}
	native := rt.native
	d.init(kindDevice, Handle(id), func(h Handle) error {
		return native.ReleaseDevice(DeviceID(h))
	})
	trackWrapper(d, &d.wrapper)
	return d
}

// Unwrap returns the native handle of the device. It remains owned by the Device.
func (d *Device) Unwrap() DeviceID {
	return DeviceID(d.handle)
}

// Runtime used to create the device.
func (d *Device) Runtime() *Runtime {
	return d.rt
}

// Ref increments the reference count of the device, and returns itself for convenience.
func (d *Device) Ref() *Device {
	d.ref()
	return d
}

// Unref decrements the reference count, and releases the native device if it reaches zero.
func (d *Device) Unref() error {
	if d.unref() == 0 {
		return nil
	}
	return d.release()
}

// Info returns the raw value of the device attribute given by key. The value is cached.
func (d *Device) Info(key InfoKey) ([]byte, error) {
	blob, err := d.queryInfo(key, func(key InfoKey) ([]byte, error) {
		return d.rt.native.DeviceInfo(d.Unwrap(), key)
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to query %s of device 0x%x", key, uintptr(d.handle))
	}
	return blob, nil
}

func (d *Device) infoString(key InfoKey) (string, error) {
	blob, err := d.Info(key)
	if err != nil {
		return "", err
	}
	return InfoString(blob), nil
}

// Name of the device (CL_DEVICE_NAME).
func (d *Device) Name() (string, error) {
	return d.infoString(InfoDeviceName)
}

// Vendor of the device (CL_DEVICE_VENDOR).
func (d *Device) Vendor() (string, error) {
	return d.infoString(InfoDeviceVendor)
}

// Version of the device (CL_DEVICE_VERSION).
func (d *Device) Version() (string, error) {
	return d.infoString(InfoDeviceVersion)
}

// Type of the device (CL_DEVICE_TYPE).
func (d *Device) Type() (DeviceType, error) {
	blob, err := d.Info(InfoDeviceType)
	if err != nil {
		return 0, err
	}
	v, err := InfoUint64(blob)
	if err != nil {
		return 0, errors.WithMessagef(err, "invalid %s for device 0x%x", InfoDeviceType, uintptr(d.handle))
	}
	return DeviceType(v), nil
}

// ComputeUnits returns the number of parallel compute units of the device (CL_DEVICE_MAX_COMPUTE_UNITS).
func (d *Device) ComputeUnits() (int, error) {
	blob, err := d.Info(InfoDeviceMaxComputeUnits)
	if err != nil {
		return 0, err
	}
	v, err := InfoUint32(blob)
	return int(v), err
}

// GlobalMemSize returns the size of the global device memory in bytes (CL_DEVICE_GLOBAL_MEM_SIZE).
func (d *Device) GlobalMemSize() (uint64, error) {
	blob, err := d.Info(InfoDeviceGlobalMemSize)
	if err != nil {
		return 0, err
	}
	return InfoUint64(blob)
}

// Available returns whether the device is available (CL_DEVICE_AVAILABLE).
func (d *Device) Available() (bool, error) {
	blob, err := d.Info(InfoDeviceAvailable)
	if err != nil {
		return false, err
	}
	return InfoBool(blob)
}

// PlatformID returns the native handle of the platform the device belongs to (CL_DEVICE_PLATFORM).
func (d *Device) PlatformID() (PlatformID, error) {
	blob, err := d.Info(InfoDevicePlatform)
	if err != nil {
		return 0, err
	}
	h, err := InfoHandle(blob)
	if err != nil {
		return 0, errors.WithMessagef(err, "invalid %s for device 0x%x", InfoDevicePlatform, uintptr(d.handle))
	}
	return PlatformID(h), nil
}

// SamePlatform returns whether d and other belong to the same platform.
// It compares the native platform handles, not wrapper identity.
func (d *Device) SamePlatform(other *Device) (bool, error) {
	p0, err := d.PlatformID()
	if err != nil {
		return false, err
	}
	p1, err := other.PlatformID()
	if err != nil {
		return false, err
	}
	return p0 == p1, nil
}

// String implements fmt.Stringer. It uses the device name when available. Released devices
// are never queried.
func (d *Device) String() string {
	if d == nil {
		return "Device(nil)"
	}
	if d.RefCount() <= 0 {
		return fmt.Sprintf("Device(0x%x)", uintptr(d.handle))
	}
	name, err := d.Name()
	if err != nil {
		return fmt.Sprintf("Device(0x%x)", uintptr(d.handle))
	}
	return fmt.Sprintf("Device(%q)", name)
}

// UnrefDevices unrefs each of the devices. Errors are logged.
func UnrefDevices(devices []*Device) {
	for _, d := range devices {
		if d == nil {
			continue
		}
		if err := d.Unref(); err != nil {
			klog.Errorf("cl: failed to release device 0x%x: %+v", uintptr(d.Unwrap()), err)
		}
	}
}
