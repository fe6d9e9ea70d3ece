package domain

import "time"

// TrayState is the indicator shown to the user.
type TrayState string

const (
	TrayStateIdle      TrayState = "idle"
	TrayStateRecording TrayState = "recording"
)

// ControllerState models the push-to-talk lifecycle.
type ControllerState string

const (
	ControllerStateIdle      ControllerState = "idle"
	ControllerStateRecording ControllerState = "recording"
	ControllerStateFinishing ControllerState = "finishing"
)

// CycleReason provides a structured reason for a lifecycle transition.
type CycleReason string

const (
	CycleReasonRecordingStarted    CycleReason = "recording_started"
	CycleReasonTranscribing        CycleReason = "transcribing"
	CycleReasonTextInjected        CycleReason = "text_injected"
	CycleReasonInjectFailed        CycleReason = "inject_failed"
	CycleReasonNoTranscript        CycleReason = "no_transcript"
	CycleReasonModelLoadFailed     CycleReason = "model_load_failed"
	CycleReasonCaptureFailed       CycleReason = "capture_failed"
	CycleReasonTranscriptionFailed CycleReason = "transcription_failed"
	CycleReasonDiscarded           CycleReason = "recording_discarded"
)

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeModelLoad     ErrorCode = "model_load"
	ErrorCodeCapture       ErrorCode = "capture"
	ErrorCodeTranscription ErrorCode = "transcription"
	ErrorCodeInjection     ErrorCode = "injection"
	ErrorCodeFeedback      ErrorCode = "feedback"
	ErrorCodeDucking       ErrorCode = "ducking"
	ErrorCodeRules         ErrorCode = "rules"
	ErrorCodeTray          ErrorCode = "tray"
)

// HotkeyEventKind distinguishes key-down from key-up.
type HotkeyEventKind string

const (
	HotkeyPressed  HotkeyEventKind = "pressed"
	HotkeyReleased HotkeyEventKind = "released"
)

// HotkeyEvent is delivered by a hotkey source for a registered hotkey.
type HotkeyEvent struct {
	HotkeyID string
	Kind     HotkeyEventKind
}

// Sound references a feedback sound. Path is a WAV file; when empty the
// player falls back to a plain tone of Frequency Hz for DurationMs.
type Sound struct {
	Name       string
	Path       string
	Frequency  float64
	DurationMs int
}

// CycleResult summarizes one press/release cycle.
type CycleResult struct {
	ID           string      `json:"id"`
	Reason       CycleReason `json:"reason"`
	RawText      string      `json:"rawText,omitempty"`
	InjectedText string      `json:"injectedText,omitempty"`
	Samples      int         `json:"samples"`
}

// Status summarizes the current runtime status.
type Status struct {
	State        ControllerState `json:"state"`
	Recording    bool            `json:"recording"`
	EngineLoaded bool            `json:"engineLoaded"`
	LoadPending  bool            `json:"loadPending"`
	LastUse      time.Time       `json:"lastUse,omitempty"`
}

// AudioSessionState mirrors the OS audio session states.
type AudioSessionState int

const (
	AudioSessionInactive AudioSessionState = iota
	AudioSessionActive
	AudioSessionExpired
)

func (s AudioSessionState) String() string {
	switch s {
	case AudioSessionInactive:
		return "inactive"
	case AudioSessionActive:
		return "active"
	case AudioSessionExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// AudioSessionInfo describes one render session seen during enumeration.
type AudioSessionInfo struct {
	Device       int               `json:"device"`
	Index        int               `json:"index"`
	ProcessID    uint32            `json:"processId"`
	State        AudioSessionState `json:"state"`
	SystemSounds bool              `json:"systemSounds"`
	Volume       float32           `json:"volume"`
	SkipReason   string            `json:"skipReason,omitempty"`
}

// Selected reports whether the session passed the ducking filter.
func (i AudioSessionInfo) Selected() bool {
	return i.SkipReason == ""
}
