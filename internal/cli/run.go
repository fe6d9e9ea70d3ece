package cli

import (
	"github.com/spf13/cobra"

	"speedystt/internal/logging"
)

func NewRunCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the tray app and listen for the hotkey",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(deps)
		},
	}
}

func runApp(deps *Dependencies) error {
	cfg, log, err := setup(deps)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting",
		logging.String("engine", cfg.Engine.Backend),
		logging.String("model", cfg.Engine.ModelPath()),
		logging.String("hotkey", cfg.Hotkey.Modifier+"+"+cfg.Hotkey.Key),
	)
	return deps.Launch(cfg, log)
}
