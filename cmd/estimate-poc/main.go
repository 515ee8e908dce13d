package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/raine/contractor-pro/internal/app"
	"github.com/raine/contractor-pro/internal/config"
	"github.com/raine/contractor-pro/internal/job"
	"github.com/raine/contractor-pro/internal/photo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <image-path-or-url> [output-dir]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  CONTRACTORPRO_MOCK_MODE - false to call Gemini (default true)\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY          - Required when mock mode is off\n")
		os.Exit(1)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(false); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	log.Logger = log.Logger.Level(cfg.LogLevel())

	source := os.Args[1]
	outDir := "."
	if len(os.Args) >= 3 {
		outDir = os.Args[2]
	}

	ctx := context.Background()
	services, err := app.NewServices(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer services.Close()

	image, err := photo.DeviceFor(source, photo.NewDownloader()).Capture(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	state, err := services.Processor.Start(ctx, image).Wait(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if state.Status != job.StatusCompleted {
		fmt.Fprintf(os.Stderr, "Estimate failed: %v\n", state.Err)
		os.Exit(1)
	}

	printResult(state, time.Since(start))

	if state.Rendered.HasData() {
		path, err := writeRender(outDir, source, state.Rendered)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save render: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Render:      %s\n", path)
	} else {
		fmt.Printf("Render:      %s\n", state.Rendered.URI)
	}
}

func printResult(state job.State, elapsed time.Duration) {
	fmt.Printf("Total:       %s\n", state.Estimate.Total)
	for _, item := range state.Estimate.Breakdown {
		fmt.Printf("  %-30s %s\n", item.Label, item.Cost)
	}
	fmt.Println()
	fmt.Printf("Elapsed:     %s\n", elapsed.Round(time.Millisecond))
}

func writeRender(outDir, source string, rendered photo.Handle) (string, error) {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	ext := ".png"
	if rendered.MIMEType == "image/jpeg" {
		ext = ".jpg"
	}
	path := filepath.Join(outDir, base+"-renovated"+ext)
	if err := os.WriteFile(path, rendered.Data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
