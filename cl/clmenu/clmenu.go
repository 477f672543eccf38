// Package clmenu implements an interactive device selection menu, as a cl.DependentFilter.
//
// Example:
//
//	filters := cl.NewFilters()
//	_, _ = filters.AddDependent(clmenu.Filter, nil)
//	ctx, err := rt.NewContextFromFilters(nil, filters, nil, nil)
package clmenu

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/gomlx/gocl/cl"
	"github.com/pkg/errors"
)

// ErrUserAborted is returned when the user cancels the selection (e.g., via Ctrl+C).
var ErrUserAborted = errors.New("device selection aborted by user")

var (
	// Output where the menu is listed.
	Output io.Writer = os.Stdout

	// prompt asks the user to select one of the options, and returns its index.
	prompt = promptForm
)

// Filter is a dependent filter that lets the user select one device.
//
// If data is an int, it is taken as the index of the selected device: the menu is only listed, with the
// selection highlighted, and no question is asked. If the index is out of range, a message is printed
// and the user is asked.
// If there is only one candidate device, it is selected without asking.
func Filter(devices []*cl.Device, data any) ([]*cl.Device, error) {
	if len(devices) == 0 {
		return devices, nil
	}
	index := -1
	if data != nil {
		var ok bool
		index, ok = data.(int)
		if !ok {
			return nil, errors.Wrapf(cl.ErrInvalidArgument, "clmenu.Filter requires an int index or nil as data, got %T", data)
		}
		if index < 0 || index >= len(devices) {
			_, _ = fmt.Fprintf(Output, "\n   (!) No device at index %d!\n", index)
			index = -1
		}
	}
	if index >= 0 {
		if err := List(Output, devices, index); err != nil {
			return nil, err
		}
		return devices[index : index+1], nil
	}

	options, err := cl.DeviceStrings(devices)
	if err != nil {
		return nil, err
	}
	if len(devices) == 1 {
		if err := List(Output, devices, 0); err != nil {
			return nil, err
		}
		return devices, nil
	}
	index, err = prompt(options)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(devices) {
		return nil, errors.Errorf("invalid device index %d selected, there are %d devices", index, len(devices))
	}
	return devices[index : index+1], nil
}

// List writes the menu of devices to w, marking the selected one (use -1 for none).
func List(w io.Writer, devices []*cl.Device, selected int) error {
	lines, err := cl.DeviceStrings(devices)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "\n   =========================== Device Selection ============================\n\n")
	for ii, line := range lines {
		mark := "            "
		if ii == selected {
			mark = "  [SELECTED]"
		}
		_, _ = fmt.Fprintf(w, " %s %s\n", mark, line)
	}
	return nil
}

// promptForm asks the user with an interactive select form.
func promptForm(options []string) (int, error) {
	// Theme: no border around focused option.
	theme := huh.ThemeCharm()
	theme.Focused.Base = theme.Focused.Base.Border(lipgloss.HiddenBorder())

	huhOptions := make([]huh.Option[int], len(options))
	for ii, option := range options {
		huhOptions[ii] = huh.NewOption(option, ii)
	}
	var index int
	err := huh.NewSelect[int]().
		Title("Device Selection").
		Description(fmt.Sprintf("Select device (0-%d)", len(options)-1)).
		Options(huhOptions...).
		Value(&index).
		WithTheme(theme).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return -1, ErrUserAborted
		}
		return -1, errors.Wrap(err, "device selection menu failed")
	}
	return index, nil
}

// NewContext creates a context with a device selected by the user. See Filter for the meaning of data.
func NewContext(rt *cl.Runtime, data any) (*cl.Context, error) {
	filters := cl.NewFilters()
	if _, err := filters.AddDependent(Filter, data); err != nil {
		return nil, err
	}
	return rt.NewContextFromFilters(nil, filters, nil, nil)
}
