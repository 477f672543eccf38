// Package ocl implements cl.Native with the system's OpenCL ICD loader (libOpenCL.so), loaded
// dynamically (dlopen) on first use, and registers it as the "opencl" runtime.
//
// To use it simply import with:
//
//	import _ "github.com/gomlx/gocl/cl/ocl"
//
// And calls to cl.GetRuntime("opencl") (or cl.DefaultRuntime()) will load it.
//
// The library is searched in the GOCL_OPENCL_LIBRARY_PATH directory -- or directories, if it is a ":" separated
// list -- then in the standard library directories of the system (LD_LIBRARY_PATH and the /etc/ld.so.conf file),
// and finally by the dynamic linker itself.
//
// Only linux is supported: in other systems the runtime is registered, but loading it fails.
package ocl

import "github.com/gomlx/gocl/cl"

const (
	// RuntimeName under which the runtime is registered.
	RuntimeName = cl.DefaultRuntimeName

	// LibraryPathEnv is the name of the environment variable with the directories searched for the library.
	LibraryPathEnv = "GOCL_OPENCL_LIBRARY_PATH"
)

// libraryNames are the names of the OpenCL ICD loader library, in order of preference.
var libraryNames = []string{"libOpenCL.so.1", "libOpenCL.so"}

func init() {
	cl.RegisterRuntimeLoader(RuntimeName, func() (cl.Native, error) {
		return Load()
	})
}
