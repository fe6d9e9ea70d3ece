package cli

import (
	"io"

	"github.com/spf13/cobra"

	"speedystt/internal/config"
	"speedystt/internal/domain"
	"speedystt/internal/logging"
	"speedystt/internal/version"
)

type Dependencies struct {
	LoadConfig func() (config.Config, error)
	NewLogger  func(config.LogConfig) (*logging.Logger, error)
	// Launch runs the desktop app until the user quits.
	Launch func(cfg config.Config, log *logging.Logger) error
	// ListSessions enumerates render sessions without ducking them.
	ListSessions func(log *logging.Logger) ([]domain.AudioSessionInfo, error)
	// DefaultInput names the default capture device.
	DefaultInput func() (string, error)
	Out          io.Writer
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "speedystt",
		Short:         "Push-to-talk dictation",
		Long:          "Hold the hotkey, speak, release: the transcript is typed into the focused window.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(deps)
		},
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	if deps.Out != nil {
		rootCmd.SetOut(deps.Out)
	}

	rootCmd.AddCommand(NewRunCmd(deps))
	rootCmd.AddCommand(NewSessionsCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// setup loads configuration and the logger every command shares.
func setup(deps *Dependencies) (config.Config, *logging.Logger, error) {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := deps.NewLogger(cfg.Log)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.Full())
		},
	}
}
