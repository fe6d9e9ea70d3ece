//go:build windows

package ducking

import (
	"errors"
	"fmt"
	"math"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"

	"speedystt/internal/domain"
)

var (
	clsidMMDeviceEnumerator  = ole.NewGUID("{BCDE0395-E52F-467C-8E3D-C4579291692E}")
	iidIMMDeviceEnumerator   = ole.NewGUID("{A95664D2-9614-4F35-A746-DE8DB63617E6}")
	iidIAudioSessionManager2 = ole.NewGUID("{77AA99A0-1BD6-484F-8BC7-2C654C9A9B6F}")
	iidIAudioSessionControl2 = ole.NewGUID("{BFB7FF88-7239-4FC9-8FA2-07C950BE9C6D}")
	iidISimpleAudioVolume    = ole.NewGUID("{87CE5498-68D6-44E5-9215-6DA47EF883D8}")
)

const (
	eRender           = 0
	deviceStateActive = 0x1
	clsctxAll         = 0x17

	hrSFalse          = 0x00000001
	hrRPCEChangedMode = 0x80010106
)

// Vtable slots, counted from QueryInterface at 0.
const (
	// IMMDeviceEnumerator
	slotEnumAudioEndpoints = 3

	// IMMDeviceCollection
	slotCollectionGetCount = 3
	slotCollectionItem     = 4

	// IMMDevice
	slotDeviceActivate = 3

	// IAudioSessionManager2
	slotGetSessionEnumerator = 5

	// IAudioSessionEnumerator
	slotSessionsGetCount   = 3
	slotSessionsGetSession = 4

	// IAudioSessionControl and IAudioSessionControl2
	slotControlGetState       = 3
	slotControlGetProcessID   = 14
	slotControlIsSystemSounds = 15

	// ISimpleAudioVolume
	slotSetMasterVolume = 3
	slotGetMasterVolume = 4
)

type wasapiPlatform struct{}

func newPlatform() Platform { return wasapiPlatform{} }

// Init acquires COM on the calling thread. S_FALSE still increments the
// per-thread count; RPC_E_CHANGED_MODE does not.
func (wasapiPlatform) Init() (InitResult, error) {
	err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED)
	if err == nil {
		return FreshInit, nil
	}
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) {
		switch uint32(oleErr.Code()) {
		case hrSFalse:
			return AlreadyCompatible, nil
		case hrRPCEChangedMode:
			return AlreadyIncompatible, nil
		}
	}
	return FreshInit, err
}

func (wasapiPlatform) Uninit() { ole.CoUninitialize() }

func (wasapiPlatform) ProcessID() uint32 { return windows.GetCurrentProcessId() }

func (wasapiPlatform) OpenEnumerator() (Enumerator, error) {
	enumerator, err := ole.CreateInstance(clsidMMDeviceEnumerator, iidIMMDeviceEnumerator)
	if err != nil {
		return nil, fmt.Errorf("create device enumerator: %w", err)
	}
	defer enumerator.Release()

	var collection *ole.IUnknown
	if err := comCall(enumerator, slotEnumAudioEndpoints, eRender, deviceStateActive, uintptr(unsafe.Pointer(&collection))); err != nil {
		return nil, fmt.Errorf("enumerate render endpoints: %w", err)
	}
	return &endpointCollection{obj: collection}, nil
}

type endpointCollection struct{ obj *ole.IUnknown }

func (c *endpointCollection) DeviceCount() (int, error) {
	var n uint32
	if err := comCall(c.obj, slotCollectionGetCount, uintptr(unsafe.Pointer(&n))); err != nil {
		return 0, err
	}
	return int(n), nil
}

// Device activates the endpoint's session manager and returns its session
// enumerator.
func (c *endpointCollection) Device(index int) (Device, error) {
	var device *ole.IUnknown
	if err := comCall(c.obj, slotCollectionItem, uintptr(index), uintptr(unsafe.Pointer(&device))); err != nil {
		return nil, fmt.Errorf("get endpoint: %w", err)
	}
	defer device.Release()

	var manager *ole.IUnknown
	if err := comCall(device, slotDeviceActivate,
		uintptr(unsafe.Pointer(iidIAudioSessionManager2)), clsctxAll, 0,
		uintptr(unsafe.Pointer(&manager)),
	); err != nil {
		return nil, fmt.Errorf("activate session manager: %w", err)
	}
	defer manager.Release()

	var sessions *ole.IUnknown
	if err := comCall(manager, slotGetSessionEnumerator, uintptr(unsafe.Pointer(&sessions))); err != nil {
		return nil, fmt.Errorf("get session enumerator: %w", err)
	}
	return &sessionList{obj: sessions}, nil
}

func (c *endpointCollection) Release() { c.obj.Release() }

type sessionList struct{ obj *ole.IUnknown }

func (l *sessionList) SessionCount() (int, error) {
	var n int32
	if err := comCall(l.obj, slotSessionsGetCount, uintptr(unsafe.Pointer(&n))); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (l *sessionList) Session(index int) (RawSession, error) {
	var control *ole.IUnknown
	if err := comCall(l.obj, slotSessionsGetSession, uintptr(index), uintptr(unsafe.Pointer(&control))); err != nil {
		return nil, err
	}
	defer control.Release()

	control2, err := queryInterface(control, iidIAudioSessionControl2)
	if err != nil {
		return nil, fmt.Errorf("session control2: %w", err)
	}
	return &sessionControl{obj: control2}, nil
}

func (l *sessionList) Release() { l.obj.Release() }

type sessionControl struct{ obj *ole.IUnknown }

func (s *sessionControl) State() (domain.AudioSessionState, error) {
	var state int32
	if err := comCall(s.obj, slotControlGetState, uintptr(unsafe.Pointer(&state))); err != nil {
		return 0, err
	}
	return domain.AudioSessionState(state), nil
}

// ProcessID may legitimately return 0 for sandboxed renderers.
func (s *sessionControl) ProcessID() (uint32, error) {
	var pid uint32
	if err := comCall(s.obj, slotControlGetProcessID, uintptr(unsafe.Pointer(&pid))); err != nil {
		return 0, err
	}
	return pid, nil
}

// IsSystemSounds returns S_OK for the system sounds session and S_FALSE for
// everything else.
func (s *sessionControl) IsSystemSounds() (bool, error) {
	hr := comCallHR(s.obj, slotControlIsSystemSounds)
	switch hr {
	case 0:
		return true, nil
	case hrSFalse:
		return false, nil
	default:
		return false, ole.NewError(uintptr(hr))
	}
}

func (s *sessionControl) Volume() (Volume, error) {
	obj, err := queryInterface(s.obj, iidISimpleAudioVolume)
	if err != nil {
		return nil, err
	}
	return &simpleVolume{obj: obj}, nil
}

func (s *sessionControl) Release() { s.obj.Release() }

type simpleVolume struct{ obj *ole.IUnknown }

func (v *simpleVolume) MasterVolume() (float32, error) {
	var level float32
	if err := comCall(v.obj, slotGetMasterVolume, uintptr(unsafe.Pointer(&level))); err != nil {
		return 0, err
	}
	return level, nil
}

// SetMasterVolume passes the level as raw float bits; the syscall trampoline
// mirrors integer argument registers into XMM registers.
func (v *simpleVolume) SetMasterVolume(level float32) error {
	return comCall(v.obj, slotSetMasterVolume, uintptr(math.Float32bits(level)), 0)
}

func (v *simpleVolume) Release() { v.obj.Release() }

func queryInterface(obj *ole.IUnknown, iid *ole.GUID) (*ole.IUnknown, error) {
	var out *ole.IUnknown
	hr, _, _ := syscall.SyscallN(obj.VTable().QueryInterface,
		uintptr(unsafe.Pointer(obj)),
		uintptr(unsafe.Pointer(iid)),
		uintptr(unsafe.Pointer(&out)),
	)
	if uint32(hr) != 0 {
		return nil, ole.NewError(hr)
	}
	return out, nil
}

func comCall(obj *ole.IUnknown, slot int, args ...uintptr) error {
	if hr := comCallHR(obj, slot, args...); hr != 0 {
		return ole.NewError(uintptr(hr))
	}
	return nil
}

func comCallHR(obj *ole.IUnknown, slot int, args ...uintptr) uint32 {
	vtbl := unsafe.Pointer(obj.RawVTable)
	method := *(*uintptr)(unsafe.Add(vtbl, uintptr(slot)*unsafe.Sizeof(uintptr(0))))
	hr, _, _ := syscall.SyscallN(method, append([]uintptr{uintptr(unsafe.Pointer(obj))}, args...)...)
	return uint32(hr)
}
