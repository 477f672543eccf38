package cl

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Platforms is the enumeration of the platforms available in a Runtime.
//
// It owns one reference of each Platform: call Destroy when done, and Platform.Ref on the
// platforms that need to outlive it.
type Platforms struct {
	rt   *Runtime
	list []*Platform
}

// Platforms enumerates the platforms available in the runtime, in native order.
func (rt *Runtime) Platforms() (*Platforms, error) {
	ids, err := rt.native.PlatformIDs()
	if err != nil {
		if status, ok := StatusOf(err); !ok || status != StatusPlatformNotFoundKHR {
			return nil, errors.WithMessagef(err, "failed to enumerate platforms of runtime %q", rt.name)
		}
		ids = nil
	}
	ps := &Platforms{rt: rt, list: make([]*Platform, len(ids))}
	for ii, id := range ids {
		ps.list[ii] = newPlatform(rt, id)
	}
	klog.V(2).Infof("cl: runtime %q has %d platforms", rt.name, len(ids))
	return ps, nil
}

// Count returns the number of platforms.
func (ps *Platforms) Count() int {
	return len(ps.list)
}

// Platform returns the platform at the given index. It is owned by ps.
func (ps *Platforms) Platform(index int) (*Platform, error) {
	if index < 0 || index >= len(ps.list) {
		return nil, invalidArgumentf("platform index %d out of range, there are %d platforms", index, len(ps.list))
	}
	return ps.list[index], nil
}

// List returns all platforms. They are owned by ps, don't change the returned slice.
func (ps *Platforms) List() []*Platform {
	return ps.list
}

// Destroy unrefs all platforms. It is idempotent.
func (ps *Platforms) Destroy() {
	if ps == nil {
		return
	}
	for _, p := range ps.list {
		if err := p.Unref(); err != nil {
			klog.Errorf("cl: failed to release platform 0x%x: %+v", uintptr(p.Unwrap()), err)
		}
	}
	ps.list = nil
}
