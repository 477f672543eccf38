// gocl_devinfo lists the OpenCL platforms and devices of a runtime. Optionally it selects devices
// and creates a context with them.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/gomlx/gocl/cl"
	"github.com/gomlx/gocl/cl/clfake"
	"github.com/gomlx/gocl/cl/clmenu"
	"github.com/gomlx/gocl/cl/clmetrics"
	_ "github.com/gomlx/gocl/cl/ocl"
	"github.com/janpfeifer/must"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"k8s.io/klog/v2"
)

var (
	flagRuntime = flag.String("runtime", "", "Name of the runtime to use. If empty it uses $"+cl.RuntimeEnv+
		", or "+strconv.Quote(cl.DefaultRuntimeName)+" if that is not set.")
	flagFake = flag.String("fake", "", "Use a fake runtime with the layout (platforms and devices) read from the given YAML file. "+
		"Use \"default\" for the built-in layout.")
	flagFilter  = flag.String("filter", "", "Select only devices whose name, vendor or platform name contain the given text (case insensitive).")
	flagMenu    = flag.Bool("menu", false, "Interactively select one of the devices.")
	flagIndex   = flag.Int("index", -1, "Select the device at the given index, counted after the -filter is applied.")
	flagJSON    = flag.Bool("json", false, "Output in JSON instead of a table.")
	flagContext = flag.Bool("context", false, "Create a context with the selected devices.")
	flagMetrics = flag.Bool("metrics", false, "Print the number of live wrappers as Prometheus metrics at exit.")
)

const fakeRuntimeName = "fake"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `gocl_devinfo lists the OpenCL platforms and devices available.

If any of -filter, -menu or -index is given, it also lists the selected devices. With -context
it creates a context with the selected devices (or any device, if no selection was given).

Usage:
`)
		flag.PrintDefaults()
	}
	klog.InitFlags(flag.CommandLine)
	flag.Parse()

	registry := prometheus.NewRegistry()
	if *flagMetrics {
		must.M1(clmetrics.Register(registry))
	}

	rt := must.M1(selectRuntime())
	platforms := must.M1(listPlatforms(rt))
	if *flagJSON {
		printJSON(platforms)
	} else {
		printTable(rt, platforms)
	}

	filters := selectionFilters()
	if filters.Len() > 0 && !*flagContext {
		devices := must.M1(rt.Select(filters))
		fmt.Printf("\nSelected devices:\n")
		for _, line := range must.M1(cl.DeviceStrings(devices)) {
			fmt.Printf("\t%s\n", line)
		}
		cl.UnrefDevices(devices)
	}
	if *flagContext {
		if filters.Len() == 0 {
			filters = must.M1(filters.AddDependent(cl.FilterSamePlatform, nil))
		}
		ctx := must.M1(rt.NewContextFromFilters(nil, filters, nil, nil))
		platform := must.M1(ctx.Platform())
		fmt.Printf("\nCreated %s on %s\n", ctx, platform)
		must.M(ctx.Unref())
	}

	if *flagMetrics {
		printMetrics(registry)
	}
}

// selectRuntime returns the runtime selected by the flags.
func selectRuntime() (*cl.Runtime, error) {
	if *flagFake != "" {
		layout := clfake.DefaultLayout()
		if *flagFake != "default" {
			var err error
			layout, err = clfake.LoadLayout(*flagFake)
			if err != nil {
				return nil, err
			}
		}
		return cl.RegisterRuntime(fakeRuntimeName, clfake.New(layout))
	}
	if *flagRuntime == "" {
		return cl.DefaultRuntime()
	}
	return cl.GetRuntime(*flagRuntime)
}

// selectionFilters builds the filters from the -filter, -menu and -index flags.
func selectionFilters() *cl.Filters {
	filters := cl.NewFilters()
	if *flagFilter != "" {
		must.M1(filters.AddIndependent(cl.FilterString, *flagFilter))
	}
	switch {
	case *flagMenu && *flagIndex >= 0:
		must.M1(filters.AddDependent(clmenu.Filter, *flagIndex))
	case *flagMenu:
		must.M1(filters.AddDependent(clmenu.Filter, nil))
	case *flagIndex >= 0:
		must.M1(filters.AddDependent(cl.FilterIndex, *flagIndex))
	}
	return filters
}

type deviceInfo struct {
	Name, Vendor, Version string
	Type                  cl.DeviceType
	ComputeUnits          int
	GlobalMemSize         uint64
	Available             bool
}

type platformInfo struct {
	Name, Vendor, Version, Profile string
	Devices                        []deviceInfo
}

func listPlatforms(rt *cl.Runtime) ([]platformInfo, error) {
	platforms, err := rt.Platforms()
	if err != nil {
		return nil, err
	}
	defer platforms.Destroy()
	infos := make([]platformInfo, 0, platforms.Count())
	for _, p := range platforms.List() {
		pInfo, err := describePlatform(p)
		if err != nil {
			return nil, err
		}
		devices, err := p.Devices()
		if err != nil {
			return nil, err
		}
		for _, d := range devices {
			dInfo, err := describeDevice(d)
			if err != nil {
				return nil, err
			}
			pInfo.Devices = append(pInfo.Devices, dInfo)
		}
		infos = append(infos, pInfo)
	}
	return infos, nil
}

func describePlatform(p *cl.Platform) (info platformInfo, err error) {
	if info.Name, err = p.Name(); err != nil {
		return
	}
	if info.Vendor, err = p.Vendor(); err != nil {
		return
	}
	if info.Version, err = p.Version(); err != nil {
		return
	}
	info.Profile, err = p.Profile()
	return
}

func describeDevice(d *cl.Device) (info deviceInfo, err error) {
	if info.Name, err = d.Name(); err != nil {
		return
	}
	if info.Vendor, err = d.Vendor(); err != nil {
		return
	}
	if info.Version, err = d.Version(); err != nil {
		return
	}
	if info.Type, err = d.Type(); err != nil {
		return
	}
	if info.ComputeUnits, err = d.ComputeUnits(); err != nil {
		return
	}
	if info.GlobalMemSize, err = d.GlobalMemSize(); err != nil {
		return
	}
	info.Available, err = d.Available()
	return
}

func printTable(rt *cl.Runtime, platforms []platformInfo) {
	fmt.Printf("%s: %d platform(s)\n", rt, len(platforms))
	if len(platforms) == 0 {
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Platform", "Device", "Vendor", "Type", "Version", "Compute Units", "Memory", "Available")
	var index int
	for _, p := range platforms {
		if len(p.Devices) == 0 {
			_ = table.Append("-", p.Name, "(no devices)", p.Vendor, "", p.Version, "", "", "")
			continue
		}
		for _, d := range p.Devices {
			_ = table.Append(
				strconv.Itoa(index),
				p.Name,
				d.Name,
				d.Vendor,
				d.Type.MaskString(),
				d.Version,
				strconv.Itoa(d.ComputeUnits),
				humanBytes(d.GlobalMemSize),
				strconv.FormatBool(d.Available),
			)
			index++
		}
	}
	must.M(table.Render())
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func printJSON(platforms []platformInfo) {
	pList := make([]any, 0, len(platforms))
	for _, p := range platforms {
		dList := make([]any, 0, len(p.Devices))
		for _, d := range p.Devices {
			dList = append(dList, map[string]any{
				"name":            d.Name,
				"vendor":          d.Vendor,
				"version":         d.Version,
				"type":            d.Type.MaskString(),
				"compute_units":   d.ComputeUnits,
				"global_mem_size": d.GlobalMemSize,
				"available":       d.Available,
			})
		}
		pList = append(pList, map[string]any{
			"name":    p.Name,
			"vendor":  p.Vendor,
			"version": p.Version,
			"profile": p.Profile,
			"devices": dList,
		})
	}
	msg := must.M1(structpb.NewStruct(map[string]any{"platforms": pList}))
	blob := must.M1(protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg))
	fmt.Println(string(blob))
}

func printMetrics(registry *prometheus.Registry) {
	fmt.Println()
	encoder := expfmt.NewEncoder(os.Stdout, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range must.M1(registry.Gather()) {
		must.M(encoder.Encode(mf))
	}
}
