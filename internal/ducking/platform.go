package ducking

import "speedystt/internal/domain"

// InitResult reports how the process-wide audio subsystem was acquired.
type InitResult int

const (
	// FreshInit means this caller performed the first initialization.
	FreshInit InitResult = iota
	// AlreadyCompatible means the subsystem was already active in the same
	// mode. The acquisition is still counted and must be balanced.
	AlreadyCompatible
	// AlreadyIncompatible means another caller initialized the subsystem in
	// a different mode. It is usable, but this caller must not tear it down.
	AlreadyIncompatible
)

func (r InitResult) String() string {
	switch r {
	case FreshInit:
		return "fresh"
	case AlreadyCompatible:
		return "already_compatible"
	case AlreadyIncompatible:
		return "already_incompatible"
	default:
		return "unknown"
	}
}

// OwnsTeardown reports whether the acquisition must be released with Uninit.
func (r InitResult) OwnsTeardown() bool {
	return r == FreshInit || r == AlreadyCompatible
}

// Platform is the OS audio session API.
type Platform interface {
	Init() (InitResult, error)
	Uninit()
	OpenEnumerator() (Enumerator, error)
	ProcessID() uint32
}

// Enumerator lists active render endpoints.
type Enumerator interface {
	DeviceCount() (int, error)
	Device(index int) (Device, error)
	Release()
}

// Device lists the audio sessions on one render endpoint.
type Device interface {
	SessionCount() (int, error)
	Session(index int) (RawSession, error)
	Release()
}

// RawSession is an unfiltered audio session control.
type RawSession interface {
	State() (domain.AudioSessionState, error)
	ProcessID() (uint32, error)
	IsSystemSounds() (bool, error)
	Volume() (Volume, error)
	Release()
}

// Volume is a session's master volume control.
type Volume interface {
	MasterVolume() (float32, error)
	SetMasterVolume(level float32) error
	Release()
}
