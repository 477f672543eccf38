//go:build !linux

package ocl

import (
	"runtime"

	"github.com/gomlx/gocl/cl"
	"github.com/pkg/errors"
)

// Load is not supported in this system.
func Load() (cl.Native, error) {
	return nil, errors.Errorf("loading OpenCL dynamically is not supported in %s", runtime.GOOS)
}
