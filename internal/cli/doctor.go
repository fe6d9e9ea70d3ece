package cli

import (
	"errors"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"speedystt/internal/config"
	"speedystt/internal/ducking"
	"speedystt/internal/hotkey"
	"speedystt/internal/logging"
	"speedystt/internal/rules"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(cmd.OutOrStdout())

			cfg, err := deps.LoadConfig()
			if err != nil {
				f.SetupCheck("Configuration", false, err.Error())
				f.Warning("\nFix the configuration first.")
				return nil
			}
			f.SetupCheck("Configuration", true, "loaded")

			ok := checkEngine(f, cfg)
			ok = checkCapture(f, cfg, deps) && ok

			if binding, err := hotkey.Parse(cfg.Hotkey.Modifier, cfg.Hotkey.Key); err != nil {
				f.SetupCheck("Hotkey", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("Hotkey", true, binding.String())
			}

			if set, err := rules.Load(cfg.Rules.Path, cfg.Rules.IterationLimit, nil); err != nil {
				f.SetupCheck("Rules", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("Rules", true, pluralize(set.Len(), "rule"))
			}

			checkDucking(f, cfg, deps)

			if ok {
				f.Success("\nAll prerequisites met. Ready to dictate!")
			} else {
				f.Warning("\nSome prerequisites are missing.")
			}
			return nil
		},
	}
}

func checkEngine(f *formatter, cfg config.Config) bool {
	switch cfg.Engine.Backend {
	case "deepgram":
		if cfg.Engine.Deepgram.APIKey == "" {
			f.SetupCheck("Deepgram API key", false, "not set. Set DEEPGRAM_API_KEY or engine.deepgram_api_key")
			return false
		}
		f.SetupCheck("Deepgram API key", true, "configured")
		return true
	default:
		path := cfg.Engine.ModelPath()
		if _, err := os.Stat(path); err != nil {
			f.SetupCheck("Whisper model", false, path+" not found. Download a ggml model into "+cfg.Engine.ModelDir)
			return false
		}
		f.SetupCheck("Whisper model", true, path)
		return true
	}
}

func checkCapture(f *formatter, cfg config.Config, deps *Dependencies) bool {
	if cfg.Audio.Backend == "ffmpeg" {
		if _, err := exec.LookPath(cfg.Audio.RecorderCommand); err != nil {
			f.SetupCheck("ffmpeg", false, cfg.Audio.RecorderCommand+" not found on PATH")
			return false
		}
		f.SetupCheck("ffmpeg", true, "installed, device "+cfg.Audio.InputDevice)
		return true
	}

	if deps.DefaultInput == nil {
		f.SetupCheck("Microphone", false, "no capture backend in this build")
		return false
	}
	name, err := deps.DefaultInput()
	if err != nil {
		f.SetupCheck("Microphone", false, err.Error())
		return false
	}
	f.SetupCheck("Microphone", true, name)
	return true
}

// checkDucking never fails the report; recording works without it.
func checkDucking(f *formatter, cfg config.Config, deps *Dependencies) {
	if !cfg.Ducking.Enabled {
		f.SetupCheck("Audio ducking", true, "disabled")
		return
	}
	if deps.ListSessions == nil {
		f.SetupCheck("Audio ducking", false, "unavailable")
		return
	}
	infos, err := deps.ListSessions(logging.Nop())
	switch {
	case errors.Is(err, ducking.ErrUnsupported):
		f.SetupCheck("Audio ducking", false, "not supported on this platform, recordings will not lower other audio")
	case err != nil:
		f.SetupCheck("Audio ducking", false, err.Error())
	default:
		selected := 0
		for _, info := range infos {
			if info.Selected() {
				selected++
			}
		}
		f.SetupCheck("Audio ducking", true, pluralize(selected, "session")+" would be ducked right now")
	}
}
