package cl

import "strings"

// FilterType is an independent filter that accepts devices whose type matches the DeviceType mask
// given as data.
func FilterType(device *Device, data any) (bool, error) {
	mask, ok := data.(DeviceType)
	if !ok {
		return false, invalidArgumentf("FilterType requires a DeviceType as data, got %T", data)
	}
	dType, err := device.Type()
	if err != nil {
		return false, err
	}
	return dType.Matches(mask), nil
}

// FilterGPU is an independent filter that accepts GPU devices. Data is ignored.
func FilterGPU(device *Device, _ any) (bool, error) {
	return FilterType(device, DeviceTypeGPU)
}

// FilterCPU is an independent filter that accepts CPU devices. Data is ignored.
func FilterCPU(device *Device, _ any) (bool, error) {
	return FilterType(device, DeviceTypeCPU)
}

// FilterAccel is an independent filter that accepts accelerator devices. Data is ignored.
func FilterAccel(device *Device, _ any) (bool, error) {
	return FilterType(device, DeviceTypeAccelerator)
}

// FilterString is an independent filter that accepts devices whose name, vendor or platform name
// contains the string given as data. The comparison is case-insensitive.
func FilterString(device *Device, data any) (bool, error) {
	part, ok := data.(string)
	if !ok || part == "" {
		return false, invalidArgumentf("FilterString requires a non-empty string as data, got %T(%v)", data, data)
	}
	part = strings.ToLower(part)

	for _, get := range []func() (string, error){device.Name, device.Vendor} {
		value, err := get()
		if err != nil {
			return false, err
		}
		if strings.Contains(strings.ToLower(value), part) {
			return true, nil
		}
	}

	platform, err := NewPlatformFromDevice(device)
	if err != nil {
		return false, err
	}
	defer func() { _ = platform.Unref() }()
	name, err := platform.Name()
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(name), part), nil
}

// FilterPlatform is an independent filter that accepts the devices of the platform given as data,
// either as a PlatformID or a *Platform.
func FilterPlatform(device *Device, data any) (bool, error) {
	var want PlatformID
	switch p := data.(type) {
	case PlatformID:
		want = p
	case *Platform:
		if p == nil {
			return false, invalidArgumentf("FilterPlatform given a nil *Platform")
		}
		want = p.Unwrap()
	default:
		return false, invalidArgumentf("FilterPlatform requires a PlatformID or *Platform as data, got %T", data)
	}
	if want == 0 {
		return false, invalidArgumentf("FilterPlatform given a null platform")
	}
	id, err := device.PlatformID()
	if err != nil {
		return false, err
	}
	return id == want, nil
}

// FilterSamePlatform is a dependent filter that keeps only the devices of the same platform as the
// first device, preserving the order. Data is ignored.
func FilterSamePlatform(devices []*Device, _ any) ([]*Device, error) {
	if len(devices) == 0 {
		return devices, nil
	}
	ref, err := devices[0].PlatformID()
	if err != nil {
		return nil, err
	}
	kept := devices[:1]
	for _, d := range devices[1:] {
		id, err := d.PlatformID()
		if err != nil {
			return nil, err
		}
		if id == ref {
			kept = append(kept, d)
		}
	}
	return kept, nil
}

// FilterIndex is a dependent filter that keeps only the device at the index given as data (an int).
//
// It is the non-interactive form of a device menu: see package clmenu for the interactive one.
func FilterIndex(devices []*Device, data any) ([]*Device, error) {
	index, ok := data.(int)
	if !ok {
		return nil, invalidArgumentf("FilterIndex requires an int as data, got %T", data)
	}
	if index < 0 || index >= len(devices) {
		return nil, deviceNotFoundf("device index %d out of range, there are %d devices", index, len(devices))
	}
	return devices[index : index+1], nil
}
