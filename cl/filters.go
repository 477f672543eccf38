package cl

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// IndependentFilter decides whether a single device is accepted, independently of the other candidates.
//
// The data is the value given when the filter was added, and it is passed verbatim.
// An error aborts the selection.
type IndependentFilter func(device *Device, data any) (bool, error)

// DependentFilter reduces the list of candidate devices as a whole (e.g. keep only devices of the
// same platform, or let the user pick one).
//
// It must return a subset of the given devices, in any order: it must not Ref or Unref them,
// the filter engine handles the references. An error aborts the selection.
type DependentFilter func(devices []*Device, data any) ([]*Device, error)

// filter is either an independent or a dependent filter, with its data.
type filter struct {
	independent IndependentFilter
	dependent   DependentFilter
	data        any
}

// Filters is an ordered chain of device filters, see Runtime.Select.
// Filters are evaluated in the order they were added.
//
// The zero value is an empty chain, ready to use.
type Filters struct {
	filters []filter
}

// NewFilters creates an empty chain of filters.
func NewFilters() *Filters {
	return &Filters{}
}

// AddIndependent appends an independent filter to the chain.
// It returns the chain itself, to allow cascading calls.
func (fs *Filters) AddIndependent(fn IndependentFilter, data any) (*Filters, error) {
	if fs == nil {
		return nil, invalidArgumentf("Filters.AddIndependent called on a nil chain of filters")
	}
	if fn == nil {
		return nil, invalidArgumentf("Filters.AddIndependent requires a non-nil filter function")
	}
	fs.filters = append(fs.filters, filter{independent: fn, data: data})
	return fs, nil
}

// AddDependent appends a dependent filter to the chain.
// It returns the chain itself, to allow cascading calls.
func (fs *Filters) AddDependent(fn DependentFilter, data any) (*Filters, error) {
	if fs == nil {
		return nil, invalidArgumentf("Filters.AddDependent called on a nil chain of filters")
	}
	if fn == nil {
		return nil, invalidArgumentf("Filters.AddDependent requires a non-nil filter function")
	}
	fs.filters = append(fs.filters, filter{dependent: fn, data: data})
	return fs, nil
}

// Len returns the number of filters in the chain.
func (fs *Filters) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.filters)
}

// AllDevices returns every device of every platform of the runtime, ordered by platform and then
// by the order of the devices within the platform.
//
// The caller owns one reference of each returned device: use UnrefDevices when done.
func (rt *Runtime) AllDevices() ([]*Device, error) {
	platforms, err := rt.Platforms()
	if err != nil {
		return nil, err
	}
	defer platforms.Destroy()
	var devices []*Device
	for _, p := range platforms.List() {
		pDevices, err := p.Devices()
		if err != nil {
			UnrefDevices(devices)
			return nil, err
		}
		for _, d := range pDevices {
			devices = append(devices, d.Ref())
		}
	}
	return devices, nil
}

// Select returns the devices of the runtime accepted by the chain of filters.
//
// It starts with all devices (see AllDevices) and applies each filter in order: independent filters
// drop the devices they reject, dependent filters replace the list of candidates.
// The first device of the result is the "reference device", used for instance to determine the
// default platform of a context.
//
// A nil filters means no filtering. If no device is left, it returns an ErrDeviceNotFound error.
//
// The caller owns one reference of each returned device: use UnrefDevices when done.
func (rt *Runtime) Select(filters *Filters) ([]*Device, error) {
	devices, err := rt.AllDevices()
	if err != nil {
		return nil, err
	}
	for ii, f := range filters.list() {
		if len(devices) == 0 {
			break
		}
		if f.independent != nil {
			devices, err = applyIndependent(devices, f)
		} else {
			devices, err = applyDependent(devices, f)
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "device filter #%d failed", ii)
		}
		klog.V(2).Infof("cl: %d devices left after filter #%d", len(devices), ii)
	}
	if len(devices) == 0 {
		return nil, deviceNotFoundf("no device was accepted by the %d filters of runtime %q", filters.Len(), rt.name)
	}
	return devices, nil
}

func (fs *Filters) list() []filter {
	if fs == nil {
		return nil
	}
	return fs.filters
}

// applyIndependent keeps the candidates accepted by f, and unrefs the others.
// On error all candidates are unreffed.
func applyIndependent(devices []*Device, f filter) ([]*Device, error) {
	kept := devices[:0]
	for ii, d := range devices {
		pass, err := f.independent(d, f.data)
		if err != nil {
			UnrefDevices(kept)
			UnrefDevices(devices[ii:])
			return nil, err
		}
		if pass {
			kept = append(kept, d)
		} else {
			UnrefDevices([]*Device{d})
		}
	}
	clear(devices[len(kept):])
	return kept, nil
}

// applyDependent replaces the candidates by the result of f.
// The result takes its own references before the previous candidates are unreffed, so devices
// repeated or dropped by f are accounted for. On error all candidates are unreffed.
func applyDependent(devices []*Device, f filter) ([]*Device, error) {
	input := devices
	result, err := f.dependent(slices.Clone(devices), f.data)
	if err != nil {
		UnrefDevices(input)
		return nil, err
	}
	for _, d := range result {
		if d == nil {
			UnrefDevices(input)
			return nil, invalidArgumentf("dependent filter returned a nil device")
		}
	}
	result = append([]*Device(nil), result...)
	for _, d := range result {
		d.Ref()
	}
	UnrefDevices(input)
	return result, nil
}

// DeviceStrings returns a one line description of each device, with its index, name and vendor,
// e.g. "0. GeForce GTX 1080 [NVIDIA Corporation]".
func DeviceStrings(devices []*Device) ([]string, error) {
	lines := make([]string, len(devices))
	for ii, d := range devices {
		name, err := d.Name()
		if err != nil {
			return nil, err
		}
		vendor, err := d.Vendor()
		if err != nil {
			return nil, err
		}
		lines[ii] = fmt.Sprintf("%d. %s [%s]", ii, name, vendor)
	}
	return lines, nil
}
