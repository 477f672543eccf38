package cl

import (
	"fmt"
	"strconv"
	"strings"
)

// DeviceType is the bitfield of OpenCL device types (cl_device_type).
//
// Values can be combined (or-ed) to form a mask, e.g. to filter devices.
type DeviceType uint64

const (
	DeviceTypeDefault     DeviceType = 1 << 0
	DeviceTypeCPU         DeviceType = 1 << 1
	DeviceTypeGPU         DeviceType = 1 << 2
	DeviceTypeAccelerator DeviceType = 1 << 3
	DeviceTypeCustom      DeviceType = 1 << 4
	DeviceTypeAll         DeviceType = 0xFFFFFFFF
)

// Matches returns whether any of the bits in mask is set in the device type.
func (t DeviceType) Matches(mask DeviceType) bool {
	return t&mask != 0
}

// deviceTypeBits lists the single-bit device types, in the order used by MaskString.
var deviceTypeBits = []DeviceType{DeviceTypeDefault, DeviceTypeCPU, DeviceTypeGPU, DeviceTypeAccelerator, DeviceTypeCustom}

// MaskString returns the lower-case names of the bits set in t, joined by "|", e.g. "default|gpu".
// Bits without a name are appended in hexadecimal, and 0 is "none".
func (t DeviceType) MaskString() string {
	if t == 0 {
		return "none"
	}
	if t == DeviceTypeAll {
		return strings.ToLower(t.String())
	}
	var parts []string
	rest := t
	for _, bit := range deviceTypeBits {
		if t&bit != 0 {
			parts = append(parts, strings.ToLower(bit.String()))
			rest &^= bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint64(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseDeviceTypeMask parses the format written by MaskString: names (case-insensitive) or numbers
// joined by "|".
func ParseDeviceTypeMask(s string) (DeviceType, error) {
	if strings.EqualFold(strings.TrimSpace(s), "none") {
		return 0, nil
	}
	var mask DeviceType
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, invalidArgumentf("empty device type in mask %q", s)
		}
		if t, err := DeviceTypeString(part); err == nil {
			mask |= t
			continue
		}
		v, err := strconv.ParseUint(part, 0, 64)
		if err != nil {
			return 0, invalidArgumentf("unknown device type %q in mask %q", part, s)
		}
		mask |= DeviceType(v)
	}
	return mask, nil
}
