package cl

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// RuntimeEnv is the name of the environment variable with the name of the runtime used by DefaultRuntime.
	RuntimeEnv = "GOCL_RUNTIME"

	// DefaultRuntimeName is used by DefaultRuntime if RuntimeEnv is not set.
	// It is registered by the package github.com/gomlx/gocl/cl/ocl.
	DefaultRuntimeName = "opencl"

	// StrictPlatformsEnv is the name of the environment variable that sets the default of Runtime.StrictPlatforms.
	StrictPlatformsEnv = "GOCL_STRICT_PLATFORMS"
)

// Runtime is a named implementation of the native API, and the entry point to enumerate platforms,
// select devices and create contexts.
//
// Runtimes are registered by name (see RegisterRuntime and RegisterRuntimeLoader), and GetRuntime
// returns the same *Runtime for the same name.
type Runtime struct {
	name   string
	native Native

	// StrictPlatforms makes NewContextFromFilters fail with ErrInvalidArgument if the selected devices
	// belong to different platforms. Otherwise, only a warning is logged and the native runtime decides.
	//
	// Default is false, but it can be changed by setting the environment variable "GOCL_STRICT_PLATFORMS=1".
	StrictPlatforms bool
}

// NewRuntime creates a Runtime for the native implementation, without registering it.
func NewRuntime(name string, native Native) (*Runtime, error) {
	if native == nil {
		return nil, invalidArgumentf("NewRuntime(%q) given a nil Native implementation", name)
	}
	strict, _ := strconv.ParseBool(os.Getenv(StrictPlatformsEnv))
	return &Runtime{name: name, native: native, StrictPlatforms: strict}, nil
}

var (
	// registeredRuntimes caches the runtimes already created. Protected by muRuntimes.
	registeredRuntimes = make(map[string]*Runtime)

	// runtimeLoaders are used to create runtimes on first use. Protected by muRuntimes.
	runtimeLoaders = make(map[string]func() (Native, error))

	muRuntimes sync.Mutex
)

// RegisterRuntime registers the native implementation under the given name, and returns the
// corresponding Runtime. It fails if the name is already in use.
func RegisterRuntime(name string, native Native) (*Runtime, error) {
	muRuntimes.Lock()
	defer muRuntimes.Unlock()
	if _, found := registeredRuntimes[name]; found {
		return nil, invalidArgumentf("runtime %q already registered", name)
	}
	rt, err := NewRuntime(name, native)
	if err != nil {
		return nil, err
	}
	registeredRuntimes[name] = rt
	return rt, nil
}

// RegisterRuntimeLoader registers a function that creates the native implementation of the runtime
// with the given name. It is only called on the first GetRuntime(name), and if it fails, it will be
// called again on the next.
//
// It is meant to be called in the init() of packages implementing a runtime, see package ocl.
// Registering the same name again replaces the previous loader.
func RegisterRuntimeLoader(name string, loader func() (Native, error)) {
	muRuntimes.Lock()
	defer muRuntimes.Unlock()
	runtimeLoaders[name] = loader
}

// GetRuntime returns the runtime registered with the given name, loading it if needed.
func GetRuntime(name string) (*Runtime, error) {
	muRuntimes.Lock()
	defer muRuntimes.Unlock()
	if rt, found := registeredRuntimes[name]; found {
		return rt, nil
	}
	loader, found := runtimeLoaders[name]
	if !found {
		return nil, errors.Errorf("runtime %q not registered, available runtimes: %v (did you forget to import its package?)",
			name, availableRuntimesLocked())
	}
	klog.V(1).Infof("cl: loading runtime %q", name)
	native, err := loader()
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to load runtime %q", name)
	}
	rt, err := NewRuntime(name, native)
	if err != nil {
		return nil, err
	}
	registeredRuntimes[name] = rt
	return rt, nil
}

// DefaultRuntime returns the runtime named by the environment variable GOCL_RUNTIME, or "opencl"
// if it is not set.
func DefaultRuntime() (*Runtime, error) {
	name := os.Getenv(RuntimeEnv)
	if name == "" {
		name = DefaultRuntimeName
	}
	return GetRuntime(name)
}

// AvailableRuntimes returns the sorted names of the runtimes registered or with a registered loader.
func AvailableRuntimes() []string {
	muRuntimes.Lock()
	defer muRuntimes.Unlock()
	return availableRuntimesLocked()
}

func availableRuntimesLocked() []string {
	names := make(map[string]bool, len(registeredRuntimes)+len(runtimeLoaders))
	for name := range registeredRuntimes {
		names[name] = true
	}
	for name := range runtimeLoaders {
		names[name] = true
	}
	return sortedKeys(names)
}

// Name of the runtime.
func (rt *Runtime) Name() string {
	return rt.name
}

// Native returns the implementation of the native API used by the runtime.
func (rt *Runtime) Native() Native {
	return rt.native
}

// String implements fmt.Stringer.
func (rt *Runtime) String() string {
	return fmt.Sprintf("cl.Runtime(%q)", rt.name)
}
