package cl

import "fmt"

// PropertyKey is the key of a context property (cl_context_properties).
type PropertyKey uintptr

const (
	// ContextPlatform property: the value is the PlatformID the context is created for.
	ContextPlatform PropertyKey = 0x1084

	// ContextInteropUserSync property: the value is a boolean (0 or 1) telling whether the user is
	// responsible for synchronization with interoperability APIs.
	ContextInteropUserSync PropertyKey = 0x1085
)

// String implements fmt.Stringer.
func (k PropertyKey) String() string {
	switch k {
	case ContextPlatform:
		return "CL_CONTEXT_PLATFORM"
	case ContextInteropUserSync:
		return "CL_CONTEXT_INTEROP_USER_SYNC"
	default:
		return fmt.Sprintf("PropertyKey(0x%x)", uintptr(k))
	}
}

// ContextProperty is one key/value pair of the properties used to create a context.
type ContextProperty struct {
	Key   PropertyKey
	Value uintptr
}

// ContextProperties used to create a context.
//
// A nil value means "use the defaults": the platform of the first (reference) device.
type ContextProperties []ContextProperty

// Platform returns the value of the ContextPlatform property, if set.
func (props ContextProperties) Platform() (PlatformID, bool) {
	for _, p := range props {
		if p.Key == ContextPlatform {
			return PlatformID(p.Value), true
		}
	}
	return 0, false
}

// flatten returns the native form of the properties: key/value pairs terminated by a 0.
func (props ContextProperties) flatten() []uintptr {
	flat := make([]uintptr, 0, 2*len(props)+1)
	for _, p := range props {
		flat = append(flat, uintptr(p.Key), p.Value)
	}
	return append(flat, 0)
}

// resolveProperties returns props itself if not nil. Otherwise, it returns default properties
// with only the platform of the reference device.
//
// The caller's properties are never modified.
func resolveProperties(props ContextProperties, refDevice *Device) (ContextProperties, error) {
	if props != nil {
		return props, nil
	}
	platform, err := refDevice.PlatformID()
	if err != nil {
		return nil, err
	}
	return ContextProperties{{Key: ContextPlatform, Value: uintptr(platform)}}, nil
}
