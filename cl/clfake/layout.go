package clfake

import (
	"os"

	"github.com/gomlx/gocl/cl"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Layout describes the platforms and devices exposed by a Fake runtime.
type Layout struct {
	Platforms []PlatformSpec `yaml:"platforms"`
}

// PlatformSpec describes one fake platform and its devices.
type PlatformSpec struct {
	Name       string       `yaml:"name"`
	Vendor     string       `yaml:"vendor"`
	Version    string       `yaml:"version"`
	Profile    string       `yaml:"profile"`
	Extensions string       `yaml:"extensions"`
	Devices    []DeviceSpec `yaml:"devices"`
}

// DeviceSpec describes one fake device.
type DeviceSpec struct {
	Name          string
	Vendor        string
	Type          cl.DeviceType
	ComputeUnits  uint32
	GlobalMemSize uint64
	Version       string
	DriverVersion string

	// Unavailable devices report CL_DEVICE_AVAILABLE as false.
	Unavailable bool
}

// deviceSpecYAML is the YAML form of DeviceSpec: the type is given by name (e.g. "gpu", or "default|gpu" for masks).
type deviceSpecYAML struct {
	Name          string `yaml:"name"`
	Vendor        string `yaml:"vendor"`
	Type          string `yaml:"type"`
	ComputeUnits  uint32 `yaml:"compute_units"`
	GlobalMemSize uint64 `yaml:"global_mem_size"`
	Version       string `yaml:"version"`
	DriverVersion string `yaml:"driver_version"`
	Unavailable   bool   `yaml:"unavailable"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *DeviceSpec) UnmarshalYAML(node *yaml.Node) error {
	var aux deviceSpecYAML
	if err := node.Decode(&aux); err != nil {
		return err
	}
	dType := cl.DeviceTypeDefault
	if aux.Type != "" {
		var err error
		dType, err = cl.ParseDeviceTypeMask(aux.Type)
		if err != nil {
			return errors.Wrapf(err, "line %d: invalid type for device %q", node.Line, aux.Name)
		}
	}
	*d = DeviceSpec{
		Name:          aux.Name,
		Vendor:        aux.Vendor,
		Type:          dType,
		ComputeUnits:  aux.ComputeUnits,
		GlobalMemSize: aux.GlobalMemSize,
		Version:       aux.Version,
		DriverVersion: aux.DriverVersion,
		Unavailable:   aux.Unavailable,
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d DeviceSpec) MarshalYAML() (any, error) {
	return deviceSpecYAML{
		Name:          d.Name,
		Vendor:        d.Vendor,
		Type:          d.Type.MaskString(),
		ComputeUnits:  d.ComputeUnits,
		GlobalMemSize: d.GlobalMemSize,
		Version:       d.Version,
		DriverVersion: d.DriverVersion,
		Unavailable:   d.Unavailable,
	}, nil
}

// ParseLayout parses a YAML layout.
func ParseLayout(data []byte) (Layout, error) {
	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return Layout{}, errors.Wrap(err, "failed to parse fake runtime layout")
	}
	return layout, nil
}

// LoadLayout reads a YAML layout from a file.
func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, errors.Wrapf(err, "failed to read fake runtime layout from %q", path)
	}
	layout, err := ParseLayout(data)
	if err != nil {
		return Layout{}, errors.WithMessagef(err, "layout file %q", path)
	}
	return layout, nil
}

// DefaultLayout returns a layout with two platforms:
//
//   - "Acme OpenCL" (vendor "Acme Corp.") with two GPUs.
//   - "Portable CPU OpenCL" (vendor "Pocl Project") with one CPU and one accelerator.
func DefaultLayout() Layout {
	return Layout{
		Platforms: []PlatformSpec{
			{
				Name:    "Acme OpenCL",
				Vendor:  "Acme Corp.",
				Version: "OpenCL 3.0 Acme 1.2",
				Profile: "FULL_PROFILE",
				Devices: []DeviceSpec{
					{Name: "Acme Radiant X1", Vendor: "Acme Corp.", Type: cl.DeviceTypeGPU, ComputeUnits: 40, GlobalMemSize: 8 << 30, Version: "OpenCL 3.0"},
					{Name: "Acme Radiant X2", Vendor: "Acme Corp.", Type: cl.DeviceTypeGPU, ComputeUnits: 80, GlobalMemSize: 16 << 30, Version: "OpenCL 3.0"},
				},
			},
			{
				Name:    "Portable CPU OpenCL",
				Vendor:  "Pocl Project",
				Version: "OpenCL 3.0 PoCL 6.0",
				Profile: "FULL_PROFILE",
				Devices: []DeviceSpec{
					{Name: "cpu-x86-64", Vendor: "GenuineIntel", Type: cl.DeviceTypeCPU, ComputeUnits: 16, GlobalMemSize: 32 << 30, Version: "OpenCL 3.0"},
					{Name: "Basic Tensor Accelerator", Vendor: "Pocl Project", Type: cl.DeviceTypeAccelerator, ComputeUnits: 4, GlobalMemSize: 1 << 30, Version: "OpenCL 1.2"},
				},
			},
		},
	}
}
