package cl

import (
	"sync"
	"sync/atomic"
)

// stubNative is a minimal Native for the internal tests: one platform (0x10) with device 0x20.
// The clfake package can't be used here, since it imports cl.
type stubNative struct {
	deviceInfoCalls  atomic.Int32
	releaseDevCalls  atomic.Int32
	releaseCtxCalls  atomic.Int32
	failDeviceInfo   atomic.Bool
	mu               sync.Mutex
	createProperties []uintptr
}

const (
	stubPlatform PlatformID = 0x10
	stubDevice   DeviceID   = 0x20
	stubContext  ContextID  = 0x30
)

func (s *stubNative) PlatformIDs() ([]PlatformID, error) { return []PlatformID{stubPlatform}, nil }

func (s *stubNative) DeviceIDs(PlatformID, DeviceType) ([]DeviceID, error) {
	return []DeviceID{stubDevice}, nil
}

func (s *stubNative) PlatformInfo(_ PlatformID, key InfoKey) ([]byte, error) {
	if key == InfoPlatformName {
		return EncodeString("stub"), nil
	}
	return nil, NewNativeError("clGetPlatformInfo", StatusInvalidValue)
}

func (s *stubNative) DeviceInfo(_ DeviceID, key InfoKey) ([]byte, error) {
	s.deviceInfoCalls.Add(1)
	if s.failDeviceInfo.Load() {
		return nil, NewNativeError("clGetDeviceInfo", StatusOutOfResources)
	}
	switch key {
	case InfoDevicePlatform:
		return EncodeHandles(Handle(stubPlatform)), nil
	case InfoDeviceName:
		return EncodeString("stub device"), nil
	}
	return nil, NewNativeError("clGetDeviceInfo", StatusInvalidValue)
}

func (s *stubNative) ContextInfo(ContextID, InfoKey) ([]byte, error) {
	return EncodeHandles(Handle(stubDevice)), nil
}

func (s *stubNative) CreateContext(properties []uintptr, _ []DeviceID, _ NotifyFunc, _ any) (ContextID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createProperties = properties
	return stubContext, nil
}

func (s *stubNative) RetainContext(ContextID) error { return nil }

func (s *stubNative) ReleaseContext(ContextID) error {
	s.releaseCtxCalls.Add(1)
	return nil
}

func (s *stubNative) ReleaseDevice(DeviceID) error {
	s.releaseDevCalls.Add(1)
	return nil
}

func newStubRuntime() (*Runtime, *stubNative) {
	stub := &stubNative{}
	return &Runtime{name: "stub", native: stub}, stub
}
