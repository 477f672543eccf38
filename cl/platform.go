package cl

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// Platform is a reference-counted wrapper of a native platform (cl_platform_id): the implementation
// of the API by one vendor, exposing a set of devices.
//
// Native platforms have no release function: releasing a Platform only releases the devices it owns.
type Platform struct {
	wrapper
	rt *Runtime

	muDevices   sync.Mutex
	devicesInit bool
	devices     []*Device
}

// newPlatform wraps id with a reference count of 1.
func newPlatform(rt *Runtime, id PlatformID) *Platform {
	p := &Platform{rt: rt}
	p.init(kindPlatform, Handle(id), nil)
	trackWrapper(p, &p.wrapper)
	return p
}

// NewPlatformFromDevice returns a new Platform wrapping the platform of the device.
func NewPlatformFromDevice(device *Device) (*Platform, error) {
	if device == nil {
		return nil, invalidArgumentf("NewPlatformFromDevice requires a non-nil device")
	}
	id, err := device.PlatformID()
	if err != nil {
		return nil, err
	}
	return newPlatform(device.rt, id), nil
}

// Unwrap returns the native handle of the platform.
func (p *Platform) Unwrap() PlatformID {
	return PlatformID(p.handle)
}

// Runtime used to create the platform.
func (p *Platform) Runtime() *Runtime {
	return p.rt
}

// Ref increments the reference count of the platform, and returns itself for convenience.
func (p *Platform) Ref() *Platform {
	p.ref()
	return p
}

// Unref decrements the reference count. When it reaches zero the devices owned by the platform are unreffed.
func (p *Platform) Unref() error {
	if p.unref() == 0 {
		return nil
	}
	p.muDevices.Lock()
	devices := p.devices
	p.devices = nil
	p.muDevices.Unlock()
	UnrefDevices(devices)
	return p.release()
}

// Info returns the raw value of the platform attribute given by key. The value is cached.
func (p *Platform) Info(key InfoKey) ([]byte, error) {
	blob, err := p.queryInfo(key, func(key InfoKey) ([]byte, error) {
		return p.rt.native.PlatformInfo(p.Unwrap(), key)
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to query %s of platform 0x%x", key, uintptr(p.handle))
	}
	return blob, nil
}

func (p *Platform) infoString(key InfoKey) (string, error) {
	blob, err := p.Info(key)
	if err != nil {
		return "", err
	}
	return InfoString(blob), nil
}

// Name of the platform (CL_PLATFORM_NAME).
func (p *Platform) Name() (string, error) { return p.infoString(InfoPlatformName) }

// Vendor of the platform (CL_PLATFORM_VENDOR).
func (p *Platform) Vendor() (string, error) { return p.infoString(InfoPlatformVendor) }

// Version of the platform (CL_PLATFORM_VERSION).
func (p *Platform) Version() (string, error) { return p.infoString(InfoPlatformVersion) }

// Profile of the platform (CL_PLATFORM_PROFILE), "FULL_PROFILE" or "EMBEDDED_PROFILE".
func (p *Platform) Profile() (string, error) { return p.infoString(InfoPlatformProfile) }

// Devices returns all the devices of the platform. They are enumerated on the first call, and owned
// by the platform: call Ref on the ones that need to outlive it.
//
// A platform without devices returns an empty list.
func (p *Platform) Devices() ([]*Device, error) {
	p.muDevices.Lock()
	defer p.muDevices.Unlock()
	if p.devicesInit {
		return p.devices, nil
	}
	ids, err := p.rt.native.DeviceIDs(p.Unwrap(), DeviceTypeAll)
	if err != nil {
		if status, ok := StatusOf(err); !ok || status != StatusDeviceNotFound {
			return nil, errors.WithMessagef(err, "failed to enumerate devices of platform 0x%x", uintptr(p.handle))
		}
		ids = nil
	}
	p.devices = make([]*Device, len(ids))
	for ii, id := range ids {
		p.devices[ii] = newDevice(p.rt, id)
	}
	p.devicesInit = true
	return p.devices, nil
}

// NumDevices returns the number of devices of the platform.
func (p *Platform) NumDevices() (int, error) {
	devices, err := p.Devices()
	if err != nil {
		return 0, err
	}
	return len(devices), nil
}

// Device returns the device of the platform at the given index. It is owned by the platform.
func (p *Platform) Device(index int) (*Device, error) {
	devices, err := p.Devices()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(devices) {
		return nil, deviceNotFoundf("device index %d out of range, platform has %d devices", index, len(devices))
	}
	return devices[index], nil
}

// String implements fmt.Stringer. It uses the platform name when available.
func (p *Platform) String() string {
	if p == nil {
		return "Platform(nil)"
	}
	if p.RefCount() <= 0 {
		return fmt.Sprintf("Platform(0x%x)", uintptr(p.handle))
	}
	name, err := p.Name()
	if err != nil {
		return fmt.Sprintf("Platform(0x%x)", uintptr(p.handle))
	}
	return fmt.Sprintf("Platform(%q)", name)
}
