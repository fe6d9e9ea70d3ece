package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"speedystt/internal/cli"
	"speedystt/internal/config"
	"speedystt/internal/domain"
	"speedystt/internal/ducking"
	"speedystt/internal/logging"
	"speedystt/internal/platform"
	"speedystt/internal/soundcard"
	"speedystt/internal/tray"
	"speedystt/internal/tray/systrayui"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	deps := &cli.Dependencies{
		LoadConfig: config.Load,
		NewLogger:  newLogger,
		Launch:     launch,
		ListSessions: func(log *logging.Logger) ([]domain.AudioSessionInfo, error) {
			return ducking.New(ducking.DefaultConfig(), log).List()
		},
		DefaultInput: soundcard.DefaultInput,
		Out:          os.Stdout,
	}

	if err := cli.NewRootCmd(deps).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) (*logging.Logger, error) {
	return logging.New(logging.Config{Level: cfg.Level, Format: cfg.Format, File: cfg.LogFile()})
}

func launch(cfg config.Config, log *logging.Logger) error {
	app := NewApp(cfg, log, platform.Natives(), tray.New(systrayui.New(), log))

	return wails.Run(&options.App{
		Title:             tray.AppName,
		Width:             420,
		Height:            360,
		MinWidth:          360,
		MinHeight:         300,
		HideWindowOnClose: true,
		AssetServer:       &assetserver.Options{Assets: assets},
		Logger:            logging.NewWailsLogger(log),
		OnStartup:         app.startup,
		OnShutdown:        app.shutdown,
		Bind:              []interface{}{app},
	})
}
