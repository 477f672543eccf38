package cl

import (
	"runtime"
	"sync"
	"sync/atomic"

	"k8s.io/klog/v2"
)

// wrapperKind identifies the type of native object held by a wrapper, for accounting and logging.
type wrapperKind int

const (
	kindPlatform wrapperKind = iota
	kindDevice
	kindContext
	numWrapperKinds
)

var wrapperKindNames = [numWrapperKinds]string{"platform", "device", "context"}

func (k wrapperKind) String() string {
	if k < 0 || k >= numWrapperKinds {
		return "unknown"
	}
	return wrapperKindNames[k]
}

// wrappersAlive counts the native objects currently owned by a wrapper, per kind.
var wrappersAlive [numWrapperKinds]atomic.Int64

// WrappersAlive returns the number of wrapped native objects currently alive (whose reference count
// hasn't reached zero), indexed by kind ("platform", "device", "context").
func WrappersAlive() map[string]int64 {
	alive := make(map[string]int64, numWrapperKinds)
	for kind := range numWrapperKinds {
		alive[kind.String()] = wrappersAlive[kind].Load()
	}
	return alive
}

// wrapper is the reference-counted base embedded in Platform, Device and Context.
//
// The handle is set once at construction. The info cache maps attribute keys to the raw value blobs,
// and entries are never invalidated.
type wrapper struct {
	kind     wrapperKind
	handle   Handle
	refCount atomic.Int32

	muInfo sync.Mutex
	info   map[InfoKey][]byte

	releaser *releaser
}

// init the wrapper with a reference count of 1.
// If release is not nil, it is called with the handle when the reference count reaches zero
// (or when the wrapper is garbage collected without reaching zero, see trackWrapper).
//
// release must not reference the object embedding the wrapper, or it will never be collected.
func (w *wrapper) init(kind wrapperKind, handle Handle, release func(Handle) error) {
	w.kind = kind
	w.handle = handle
	w.refCount.Store(1)
	w.releaser = &releaser{kind: kind, handle: handle, fn: release}
	wrappersAlive[kind].Add(1)
}

// trackWrapper registers the release of the native handle of w when owner (the object embedding w)
// is garbage collected before its reference count reaches zero.
func trackWrapper[T any](owner *T, w *wrapper) {
	runtime.AddCleanup(owner, (*releaser).cleanup, w.releaser)
}

// ref increments the reference count.
func (w *wrapper) ref() {
	w.refCount.Add(1)
}

// unref decrements the reference count and returns the handle if this call made it reach zero.
// Otherwise, it returns the zero (null) handle.
//
// Calling unref on a wrapper whose count already reached zero is a programming error: it is logged
// and ignored.
func (w *wrapper) unref() Handle {
	count := w.refCount.Add(-1)
	if count > 0 {
		return 0
	}
	if count < 0 {
		w.refCount.Add(1)
		klog.Errorf("cl: unref of %s wrapper 0x%x with reference count already at zero", w.kind, uintptr(w.handle))
		return 0
	}
	w.muInfo.Lock()
	w.info = nil
	w.muInfo.Unlock()
	return w.handle
}

// RefCount returns the current reference count of the wrapper. Only meaningful for diagnostics,
// since it may change concurrently.
func (w *wrapper) RefCount() int {
	return int(w.refCount.Load())
}

// queryInfo returns the cached value blob for key, or calls query and caches its result.
//
// Errors are returned as is, and nothing is cached.
// The native query is executed without holding the lock: if two goroutines query the same key
// concurrently, the first one to store its value wins, and both return that value.
func (w *wrapper) queryInfo(key InfoKey, query func(InfoKey) ([]byte, error)) ([]byte, error) {
	w.muInfo.Lock()
	blob, found := w.info[key]
	w.muInfo.Unlock()
	if found {
		return blob, nil
	}

	blob, err := query(key)
	if err != nil {
		return nil, err
	}

	w.muInfo.Lock()
	defer w.muInfo.Unlock()
	if stored, found := w.info[key]; found {
		return stored, nil
	}
	if w.info == nil {
		w.info = make(map[InfoKey][]byte)
	}
	w.info[key] = blob
	return blob, nil
}

// release the native handle held by the wrapper, it must be called once unref returns a non-null handle.
func (w *wrapper) release() error {
	return w.releaser.release()
}

// releaser holds what is needed to release the native handle, separate from the wrapper so it can be
// used by the garbage collection clean-up.
type releaser struct {
	kind   wrapperKind
	handle Handle
	done   atomic.Bool
	fn     func(Handle) error
}

// release is idempotent: only the first call has any effect.
func (r *releaser) release() error {
	if !r.done.CompareAndSwap(false, true) {
		return nil
	}
	wrappersAlive[r.kind].Add(-1)
	if r.fn == nil {
		return nil
	}
	return r.fn(r.handle)
}

// cleanup is called when the wrapper owner is garbage collected.
func (r *releaser) cleanup() {
	if r.done.Load() {
		return
	}
	klog.Warningf("cl: %s wrapper 0x%x garbage collected with a non-zero reference count, releasing it", r.kind, uintptr(r.handle))
	if err := r.release(); err != nil {
		klog.Errorf("cl: failed to release leaked %s 0x%x: %+v", r.kind, uintptr(r.handle), err)
	}
}
