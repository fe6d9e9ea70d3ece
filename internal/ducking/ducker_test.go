package ducking

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speedystt/internal/domain"
	"speedystt/internal/logging"
)

const ownPID = 4242

type fakeVolume struct {
	mu       sync.Mutex
	level    float32
	history  []float32
	failSet  bool
	released int
}

func (v *fakeVolume) MasterVolume() (float32, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.level, nil
}

func (v *fakeVolume) SetMasterVolume(level float32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failSet {
		return errors.New("session disconnected")
	}
	v.level = level
	v.history = append(v.history, level)
	return nil
}

func (v *fakeVolume) Release() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.released++
}

type fakeSession struct {
	state    domain.AudioSessionState
	pid      uint32
	system   bool
	volume   *fakeVolume
	stateErr error
}

func (s *fakeSession) State() (domain.AudioSessionState, error) { return s.state, s.stateErr }
func (s *fakeSession) ProcessID() (uint32, error)               { return s.pid, nil }
func (s *fakeSession) IsSystemSounds() (bool, error)            { return s.system, nil }
func (s *fakeSession) Volume() (Volume, error)                  { return s.volume, nil }
func (s *fakeSession) Release()                                 {}

type fakeDevice struct {
	sessions []*fakeSession
	err      error
}

func (d *fakeDevice) SessionCount() (int, error) { return len(d.sessions), d.err }
func (d *fakeDevice) Session(i int) (RawSession, error) {
	return d.sessions[i], nil
}
func (d *fakeDevice) Release() {}

type fakeEnumerator struct{ devices []*fakeDevice }

func (e *fakeEnumerator) DeviceCount() (int, error) { return len(e.devices), nil }
func (e *fakeEnumerator) Device(i int) (Device, error) {
	return e.devices[i], nil
}
func (e *fakeEnumerator) Release() {}

type fakePlatform struct {
	init      InitResult
	initErr   error
	enumErr   error
	devices   []*fakeDevice
	uninits   int
	initCalls int
}

func (p *fakePlatform) Init() (InitResult, error) {
	p.initCalls++
	return p.init, p.initErr
}
func (p *fakePlatform) Uninit() { p.uninits++ }
func (p *fakePlatform) OpenEnumerator() (Enumerator, error) {
	if p.enumErr != nil {
		return nil, p.enumErr
	}
	return &fakeEnumerator{devices: p.devices}, nil
}
func (p *fakePlatform) ProcessID() uint32 { return ownPID }

func session(pid uint32, level float32) *fakeSession {
	return &fakeSession{state: domain.AudioSessionActive, pid: pid, volume: &fakeVolume{level: level}}
}

func newTestDucker(platform Platform) *Ducker {
	d := NewWithPlatform(platform, DefaultConfig(), logging.Nop())
	d.sleep = func(time.Duration) {}
	return d
}

func TestDuckAndRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	music := session(100, 0.8)
	browser := session(0, 0.35)
	other := session(200, 1.0)
	platform := &fakePlatform{devices: []*fakeDevice{
		{sessions: []*fakeSession{music, browser}},
		{sessions: []*fakeSession{other}},
	}}
	d := newTestDucker(platform)

	scope, err := d.duck()
	require.NoError(t, err)
	require.Len(t, scope.Sessions(), 3)

	for _, s := range []*fakeSession{music, browser, other} {
		assert.Equal(t, float32(0), s.volume.level)
		assert.Len(t, s.volume.history, 50)
	}

	require.NoError(t, scope.Restore())
	assert.InDelta(t, 0.8, music.volume.level, 1e-6)
	assert.InDelta(t, 0.35, browser.volume.level, 1e-6)
	assert.InDelta(t, 1.0, other.volume.level, 1e-6)

	require.NoError(t, scope.Close())
	assert.Equal(t, 1, platform.uninits)
	assert.Equal(t, 1, music.volume.released)
}

func TestFadeIsMonotonic(t *testing.T) {
	t.Parallel()

	s := session(100, 0.6)
	d := newTestDucker(&fakePlatform{devices: []*fakeDevice{{sessions: []*fakeSession{s}}}})

	scope, err := d.duck()
	require.NoError(t, err)
	out := append([]float32(nil), s.volume.history...)
	require.NoError(t, scope.Close())
	in := s.volume.history[len(out):]

	for i := 1; i < len(out); i++ {
		assert.LessOrEqual(t, out[i], out[i-1], "fade-out step %d", i)
	}
	for i := 1; i < len(in); i++ {
		assert.GreaterOrEqual(t, in[i], in[i-1], "fade-in step %d", i)
	}
	assert.InDelta(t, 0.6*(1-1.0/50), out[0], 1e-6)
	assert.InDelta(t, 0.6/50, in[0], 1e-6)
}

func TestSelectionFilter(t *testing.T) {
	t.Parallel()

	sandboxed := session(0, 0.5)
	self := session(ownPID, 0.5)
	silent := session(300, 0)
	expired := session(301, 0.5)
	expired.state = domain.AudioSessionExpired
	system := session(302, 0.5)
	system.system = true
	inactive := session(303, 0.4)
	inactive.state = domain.AudioSessionInactive
	broken := session(304, 0.5)
	broken.stateErr = errors.New("gone")

	d := newTestDucker(&fakePlatform{devices: []*fakeDevice{{
		sessions: []*fakeSession{sandboxed, self, silent, expired, system, inactive, broken},
	}}})

	scope, err := d.duck()
	require.NoError(t, err)
	defer scope.Close()

	pids := make([]uint32, 0)
	for _, info := range scope.Sessions() {
		pids = append(pids, info.ProcessID)
	}
	assert.ElementsMatch(t, []uint32{0, 303}, pids)

	assert.Empty(t, self.volume.history)
	assert.Empty(t, silent.volume.history)
	assert.Empty(t, expired.volume.history)
	assert.Empty(t, system.volume.history)
	assert.Equal(t, 1, silent.volume.released, "skipped volume controls are released")
}

func TestFadeContinuesPastFailingSession(t *testing.T) {
	t.Parallel()

	failing := session(100, 0.7)
	healthy := session(101, 0.9)
	d := newTestDucker(&fakePlatform{devices: []*fakeDevice{{sessions: []*fakeSession{failing, healthy}}}})

	scope, err := d.duck()
	require.NoError(t, err)
	assert.Equal(t, float32(0), healthy.volume.level)

	failing.volume.failSet = true
	err = scope.Restore()
	require.Error(t, err)
	assert.InDelta(t, 0.9, healthy.volume.level, 1e-6)
	require.Len(t, healthy.volume.history, 100)
}

func TestRestoreRecoversFromTransientWriteFailure(t *testing.T) {
	t.Parallel()

	s := session(100, 0.8)
	d := newTestDucker(&fakePlatform{devices: []*fakeDevice{{sessions: []*fakeSession{s}}}})

	scope, err := d.duck()
	require.NoError(t, err)
	ducked := len(s.volume.history)

	s.volume.mu.Lock()
	s.volume.failSet = true
	s.volume.mu.Unlock()
	d.sleep = func(time.Duration) {
		s.volume.mu.Lock()
		s.volume.failSet = false
		s.volume.mu.Unlock()
	}

	require.NoError(t, scope.Restore())
	assert.InDelta(t, 0.8, s.volume.level, 1e-6)
	assert.Len(t, s.volume.history[ducked:], 49)
	require.NoError(t, scope.Close())
}

func TestRestoreIsIdempotent(t *testing.T) {
	t.Parallel()

	s := session(100, 0.5)
	d := newTestDucker(&fakePlatform{devices: []*fakeDevice{{sessions: []*fakeSession{s}}}})

	scope, err := d.duck()
	require.NoError(t, err)
	require.NoError(t, scope.Restore())
	writes := len(s.volume.history)
	require.NoError(t, scope.Restore())
	require.NoError(t, scope.Close())
	require.NoError(t, scope.Close())
	assert.Equal(t, writes, len(s.volume.history))
	assert.Equal(t, 1, s.volume.released)
}

func TestCloseRestoresWithoutExplicitRestore(t *testing.T) {
	t.Parallel()

	s := session(100, 0.5)
	platform := &fakePlatform{devices: []*fakeDevice{{sessions: []*fakeSession{s}}}}
	d := newTestDucker(platform)

	scope, err := d.duck()
	require.NoError(t, err)
	require.NoError(t, scope.Close())
	assert.InDelta(t, 0.5, s.volume.level, 1e-6)
	assert.Equal(t, 1, platform.uninits)
}

func TestTeardownOwnership(t *testing.T) {
	t.Parallel()

	cases := []struct {
		init    InitResult
		uninits int
	}{
		{FreshInit, 1},
		{AlreadyCompatible, 1},
		{AlreadyIncompatible, 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.init.String(), func(t *testing.T) {
			t.Parallel()

			platform := &fakePlatform{init: tc.init, devices: []*fakeDevice{{sessions: []*fakeSession{session(1, 0.5)}}}}
			scope, err := newTestDucker(platform).duck()
			require.NoError(t, err)
			require.NoError(t, scope.Close())
			assert.Equal(t, tc.uninits, platform.uninits)
		})
	}
}

func TestDuckEnumerationFailureReleasesInit(t *testing.T) {
	t.Parallel()

	platform := &fakePlatform{enumErr: errors.New("no endpoint")}
	_, err := newTestDucker(platform).Duck()
	require.Error(t, err)
	assert.Equal(t, 1, platform.uninits)

	platform = &fakePlatform{initErr: ErrUnsupported}
	_, err = newTestDucker(platform).Duck()
	require.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, 0, platform.uninits)
}

func TestDuckRestoresOnPanicDuringFade(t *testing.T) {
	t.Parallel()

	s := session(100, 0.5)
	platform := &fakePlatform{devices: []*fakeDevice{{sessions: []*fakeSession{s}}}}
	d := newTestDucker(platform)
	steps := 0
	d.sleep = func(time.Duration) {
		steps++
		if steps == 10 {
			panic("interrupted")
		}
	}

	assert.PanicsWithValue(t, "interrupted", func() { _, _ = d.Duck() })
	assert.InDelta(t, 0.5, s.volume.level, 1e-6)
	assert.Equal(t, 1, platform.uninits)
}

func TestListReportsSkipReasons(t *testing.T) {
	t.Parallel()

	self := session(ownPID, 0.5)
	silent := session(7, 0)
	app := session(8, 0.4)
	platform := &fakePlatform{init: AlreadyIncompatible, devices: []*fakeDevice{{sessions: []*fakeSession{self, silent, app}}}}

	infos, err := newTestDucker(platform).List()
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, skipOwnProcess, infos[0].SkipReason)
	assert.Equal(t, skipSilent, infos[1].SkipReason)
	assert.True(t, infos[2].Selected())
	assert.Empty(t, app.volume.history)
	assert.Equal(t, 0, platform.uninits)
}

func TestConfigSteps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 50, DefaultConfig().steps())
	assert.Equal(t, 1, Config{FadeDuration: time.Millisecond, FadeStep: 10 * time.Millisecond}.steps())
	assert.Equal(t, 1, Config{}.steps())
}
