package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Env var names written by the setup wizard.
const (
	EnvMockMode         = EnvPrefix + "_MOCK_MODE"
	EnvGeminiAPIKey     = "GEMINI_API_KEY"
	EnvTelegramBotToken = EnvPrefix + "_TELEGRAM_BOT_TOKEN"
	EnvTelegramAdminID  = EnvPrefix + "_TELEGRAM_ADMIN_ID"
)

var envFileOrder = []string{EnvMockMode, EnvGeminiAPIKey, EnvTelegramBotToken, EnvTelegramAdminID}

var (
	telegramAPIBase = "https://api.telegram.org"
	geminiAPIBase   = "https://generativelanguage.googleapis.com"
)

// IsInteractiveTerminal returns true if both stdin and stdout are TTYs.
func IsInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// RunSetupWizard asks for the settings needed to run against the real
// services and writes them to config.env. Telegram settings are only asked
// for when forBot is set. Returns true if setup succeeded.
func RunSetupWizard(forBot bool) bool {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("214")).
		MarginBottom(1)

	fmt.Println()
	fmt.Println(titleStyle.Render("ContractorPro - First-time Setup"))
	fmt.Println()

	useMock := true
	var geminiKey, botToken, adminID string

	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewConfirm().
				Title("Use mock AI services?").
				Description("Mock mode returns a canned estimate without calling Gemini").
				Value(&useMock),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Gemini API Key").
				Description("Get yours at https://aistudio.google.com/apikey").
				Value(&geminiKey).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("API key is required")
					}
					return validateGeminiKey(s)
				}),
		).WithHideFunc(func() bool { return useMock }),
	}
	if forBot {
		groups = append(groups,
			huh.NewGroup(
				huh.NewInput().
					Title("Telegram Bot Token").
					Description("Message @BotFather on Telegram → /newbot → copy token").
					Value(&botToken).
					Validate(func(s string) error {
						if s == "" {
							return errors.New("token is required")
						}
						return validateTelegramToken(s)
					}),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("Your Telegram User ID").
					Description("Message @userinfobot to get your ID: https://t.me/userinfobot").
					Value(&adminID).
					Validate(validateAdminID),
			),
		)
	}

	err := huh.NewForm(groups...).WithTheme(huh.ThemeBase16()).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("\nSetup cancelled.")
			return false
		}
		fmt.Printf("\nError: %v\n", err)
		return false
	}

	values := map[string]string{EnvMockMode: strconv.FormatBool(useMock)}
	if geminiKey != "" {
		values[EnvGeminiAPIKey] = geminiKey
	}
	if forBot {
		values[EnvTelegramBotToken] = botToken
		values[EnvTelegramAdminID] = adminID
	}

	configPath, err := WriteEnvFile(values)
	if err != nil {
		fmt.Printf("\nError saving configuration: %v\n", err)
		WaitOnWindows()
		return false
	}

	for k, v := range values {
		os.Setenv(k, v)
	}

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)
	pathStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	fmt.Println()
	fmt.Println(successStyle.Render("✓ Configuration saved"))
	fmt.Println(pathStyle.Render("  " + configPath))
	fmt.Println()

	return true
}

func validateAdminID(s string) error {
	if s == "" {
		return errors.New("user ID is required")
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return errors.New("must be a number")
	}
	return nil
}

// validateTelegramToken validates a Telegram bot token by calling the getMe API.
func validateTelegramToken(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description,omitempty"`
	}
	_, err := resty.New().R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&result).
		Get(fmt.Sprintf("%s/bot%s/getMe", telegramAPIBase, token))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.New("connection timed out - check your internet")
		}
		return errors.New("connection failed - check your internet")
	}

	if !result.OK {
		if result.Description != "" {
			return errors.New(result.Description)
		}
		return errors.New("token rejected by Telegram")
	}
	return nil
}

// validateGeminiKey validates a Gemini API key with the lightweight models
// list endpoint.
func validateGeminiKey(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	resp, err := resty.New().R().
		SetContext(ctx).
		SetQueryParam("key", key).
		SetError(&apiErr).
		Get(geminiAPIBase + "/v1beta/models")
	if err != nil {
		return errors.New("connection failed - check your internet")
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		if apiErr.Error.Message != "" {
			return errors.New(apiErr.Error.Message)
		}
		return fmt.Errorf("API key rejected (HTTP %d)", resp.StatusCode())
	default:
		return fmt.Errorf("unexpected response (HTTP %d)", resp.StatusCode())
	}
}

// WriteEnvFile writes values to config.env in the config directory with
// 0600 permissions. Returns the path written.
func WriteEnvFile(values map[string]string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	configPath := filepath.Join(dir, EnvFileName)

	f, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	for _, key := range envFileOrder {
		if val, ok := values[key]; ok {
			if _, err := fmt.Fprintf(f, "%s=%q\n", key, val); err != nil {
				return "", fmt.Errorf("failed to write %s: %w", key, err)
			}
		}
	}
	return configPath, nil
}

// WaitOnWindows pauses so users can read errors before the console closes.
func WaitOnWindows() {
	if runtime.GOOS == "windows" {
		fmt.Println()
		fmt.Println("Press Enter to exit...")
		fmt.Scanln()
	}
}

// FatalWithWait logs a fatal error and waits on Windows before exiting.
func FatalWithWait(format string, args ...any) {
	log.Error().Msg(fmt.Sprintf(format, args...))
	WaitOnWindows()
	os.Exit(1)
}
