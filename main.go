package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/raine/contractor-pro/internal/app"
	"github.com/raine/contractor-pro/internal/config"
	"github.com/raine/contractor-pro/internal/screen"
	"github.com/raine/contractor-pro/internal/tui"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Try to load existing .env file
	config.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		config.FatalWithWait("failed to load config: %v", err)
	}

	if missing := cfg.Missing(false); len(missing) > 0 {
		if !config.IsInteractiveTerminal() {
			config.FatalWithWait("missing required config: %s", strings.Join(missing, ", "))
		}
		if !config.RunSetupWizard(false) {
			config.WaitOnWindows()
			os.Exit(1)
		}
		if cfg, err = config.Load(); err != nil {
			config.FatalWithWait("failed to load config: %v", err)
		}
	}
	if err := cfg.Validate(false); err != nil {
		config.FatalWithWait("invalid config: %v", err)
	}

	// The TUI owns the terminal, so logs only go to the file
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0700); err != nil {
		config.FatalWithWait("failed to create log directory: %v", err)
	}
	logFile, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		config.FatalWithWait("failed to open log file: %v", err)
	}
	defer logFile.Close()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: logFile, NoColor: true}).Level(cfg.LogLevel())
	log.Info().Str("logFile", cfg.Log.File).Bool("mockMode", cfg.MockMode).Msg("starting")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	services, err := app.NewServices(ctx, cfg)
	if err != nil {
		config.FatalWithWait("%v", err)
	}
	defer services.Close()

	// The session renders into the program, which is created afterwards;
	// nothing is presented before Start.
	var program *tea.Program
	session := app.NewSession(ctx, services.Processor, services.Device, app.PresenterFunc(func(v screen.View) {
		program.Send(tui.ViewMsg(v))
	}), nil)
	program = tea.NewProgram(tui.New(session), tea.WithAltScreen(), tea.WithContext(ctx))

	session.Start()
	defer session.Stop()

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("tui exited with error")
	}
	log.Info().Msg("shutdown complete")
}
