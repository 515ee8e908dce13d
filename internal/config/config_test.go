package config

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config dir at a temp dir and clears env overrides
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, k := range []string{
		EnvPrefix + "_CONFIG", EnvMockMode, EnvGeminiAPIKey, EnvTelegramBotToken, EnvTelegramAdminID,
		EnvPrefix + "_SERVICE_TIMEOUT", EnvPrefix + "_GEMINI_API_KEY", EnvPrefix + "_LOG_LEVEL",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	c, err := Load()
	require.NoError(t, err)

	assert.True(t, c.MockMode)
	assert.Equal(t, 60*time.Second, c.ServiceTimeout)
	assert.Equal(t, 3*time.Second, c.Mock.EstimateDelay)
	assert.Equal(t, 5*time.Second, c.Mock.RenderDelay)
	assert.Equal(t, "gemini-3-flash-preview", c.Gemini.EstimateModel)
	assert.Equal(t, "gemini-2.5-flash-image", c.Gemini.ImageModel)
	assert.Empty(t, c.Cache.Path)
	assert.Equal(t, "info", c.Log.Level)
	assert.NoError(t, c.Validate(false))
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvMockMode, "false")
	t.Setenv(EnvPrefix+"_SERVICE_TIMEOUT", "15s")
	t.Setenv(EnvPrefix+"_GEMINI_API_KEY", "key-123")
	t.Setenv(EnvTelegramAdminID, "42")

	c, err := Load()
	require.NoError(t, err)

	assert.False(t, c.MockMode)
	assert.Equal(t, 15*time.Second, c.ServiceTimeout)
	assert.Equal(t, "key-123", c.Gemini.APIKey)
	assert.Equal(t, int64(42), c.Telegram.AdminID)
}

func TestLoad_GeminiKeyFallback(t *testing.T) {
	isolate(t)
	t.Setenv(EnvGeminiAPIKey, "plain-key")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "plain-key", c.Gemini.APIKey)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mock_mode = false
service_timeout = "2m"

[gemini]
api_key = "from-file"

[cache]
path = "/tmp/estimates.db"

[capture]
source = "/photos/site.jpg"
`), 0600))
	t.Setenv(EnvPrefix+"_CONFIG", path)

	c, err := Load()
	require.NoError(t, err)

	assert.False(t, c.MockMode)
	assert.Equal(t, 2*time.Minute, c.ServiceTimeout)
	assert.Equal(t, "from-file", c.Gemini.APIKey)
	assert.Equal(t, "/tmp/estimates.db", c.Cache.Path)
	assert.Equal(t, "/photos/site.jpg", c.Capture.Source)
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv(EnvPrefix+"_CONFIG", filepath.Join(dir, "nope.toml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		forBot  bool
		missing []string
		wantErr bool
	}{
		{"mock mode needs nothing", Config{MockMode: true}, false, nil, false},
		{"real mode needs gemini key", Config{}, false, []string{"GEMINI_API_KEY"}, true},
		{"real mode with key", Config{Gemini: GeminiConfig{APIKey: "k"}}, false, nil, false},
		{"bot needs token and admin", Config{MockMode: true}, true, []string{EnvTelegramBotToken, EnvTelegramAdminID}, true},
		{"bot configured", Config{MockMode: true, Telegram: TelegramConfig{BotToken: "t", AdminID: 1}}, true, nil, false},
		{"negative timeout", Config{MockMode: true, ServiceTimeout: -time.Second}, false, nil, true},
		{"bad log level", Config{MockMode: true, Log: LogConfig{Level: "loud"}}, false, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.missing, tt.cfg.Missing(tt.forBot))
			if tt.wantErr {
				assert.Error(t, tt.cfg.Validate(tt.forBot))
			} else {
				assert.NoError(t, tt.cfg.Validate(tt.forBot))
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, Config{Log: LogConfig{Level: "debug"}}.LogLevel())
	assert.Equal(t, zerolog.InfoLevel, Config{}.LogLevel())
	assert.Equal(t, zerolog.InfoLevel, Config{Log: LogConfig{Level: "bogus"}}.LogLevel())
}

func TestWriteEnvFile_RoundTrip(t *testing.T) {
	isolate(t)

	path, err := WriteEnvFile(map[string]string{
		EnvMockMode:     "false",
		EnvGeminiAPIKey: `key with "quotes"`,
	})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	values, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "false", values[EnvMockMode])
	assert.Equal(t, `key with "quotes"`, values[EnvGeminiAPIKey])

	LoadEnvFile()
	c, err := Load()
	require.NoError(t, err)
	assert.False(t, c.MockMode)
}

func TestValidateAdminID(t *testing.T) {
	assert.NoError(t, validateAdminID("12345"))
	assert.Error(t, validateAdminID(""))
	assert.Error(t, validateAdminID("abc"))
}

func TestValidateTelegramToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/botgood/getMe" {
			w.Write([]byte(`{"ok":true}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	orig := telegramAPIBase
	telegramAPIBase = server.URL
	defer func() { telegramAPIBase = orig }()

	assert.NoError(t, validateTelegramToken("good"))
	assert.EqualError(t, validateTelegramToken("bad"), "Unauthorized")
}

func TestValidateGeminiKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("key") {
		case "good":
			w.Write([]byte(`{"models":[]}`))
		case "bad":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	orig := geminiAPIBase
	geminiAPIBase = server.URL
	defer func() { geminiAPIBase = orig }()

	assert.NoError(t, validateGeminiKey("good"))
	assert.EqualError(t, validateGeminiKey("bad"), "API key not valid")
	assert.EqualError(t, validateGeminiKey("other"), "unexpected response (HTTP 500)")
}
