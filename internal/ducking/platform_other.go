//go:build !windows

package ducking

import "os"

type unsupportedPlatform struct{}

func newPlatform() Platform { return unsupportedPlatform{} }

func (unsupportedPlatform) Init() (InitResult, error) { return FreshInit, ErrUnsupported }

func (unsupportedPlatform) Uninit() {}

func (unsupportedPlatform) OpenEnumerator() (Enumerator, error) { return nil, ErrUnsupported }

func (unsupportedPlatform) ProcessID() uint32 { return uint32(os.Getpid()) }
