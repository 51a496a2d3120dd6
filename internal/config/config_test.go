package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mamadbah2/chatguru/pkg/clients/chatguru"
)

var configKeys = []string{
	"APP_PORT", "LOG_LEVEL", "CHATGURU_API_TOKEN", "CHATGURU_API_ENDPOINT",
	"CHATGURU_ACCOUNT_ID", "CHATGURU_PHONE_ID", "CHATGURU_CONFIRMATION_TEXT",
	"CHATGURU_ANNOTATE_EVENTS", "MONGODB_URI", "MONGODB_DB_NAME",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHATGURU_API_TOKEN", "tok")
	t.Setenv("CHATGURU_ACCOUNT_ID", "acc")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %s", cfg.Server.Port)
	}
	if cfg.ChatGuru.APIEndpoint != chatguru.DefaultEndpoint {
		t.Errorf("APIEndpoint = %s", cfg.ChatGuru.APIEndpoint)
	}
	if cfg.ChatGuru.PhoneID != chatguru.DefaultPhoneID {
		t.Errorf("PhoneID = %s", cfg.ChatGuru.PhoneID)
	}
	if cfg.Relay.AnnotateEvents || cfg.Relay.ConfirmationText != "" {
		t.Errorf("Relay = %+v, want disabled", cfg.Relay)
	}
	if cfg.MongoDB.URI != "" || cfg.MongoDB.DBName != "chatguru" {
		t.Errorf("MongoDB = %+v", cfg.MongoDB)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	for _, k := range configKeys {
		// godotenv never overrides variables that are already set, even empty ones.
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("unsetenv %s: %v", k, err)
		}
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "CHATGURU_API_TOKEN=file-token\nCHATGURU_ACCOUNT_ID=file-acc\nCHATGURU_ANNOTATE_EVENTS=true\nCHATGURU_CONFIRMATION_TEXT=Recebido\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		for _, k := range configKeys {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ChatGuru.APIToken != "file-token" || cfg.ChatGuru.AccountID != "file-acc" {
		t.Errorf("ChatGuru = %+v", cfg.ChatGuru)
	}
	if !cfg.Relay.AnnotateEvents || cfg.Relay.ConfirmationText != "Recebido" {
		t.Errorf("Relay = %+v", cfg.Relay)
	}
}

func TestLoadRequiresCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHATGURU_ACCOUNT_ID", "acc")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error without CHATGURU_API_TOKEN")
	}
}

func TestLoadRejectsBadBool(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHATGURU_API_TOKEN", "tok")
	t.Setenv("CHATGURU_ACCOUNT_ID", "acc")
	t.Setenv("CHATGURU_ANNOTATE_EVENTS", "sometimes")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for invalid boolean")
	}
}

func TestClientConfig(t *testing.T) {
	got := ChatGuruConfig{APIToken: "t", APIEndpoint: "e", AccountID: "a", PhoneID: "p"}.ClientConfig()
	want := chatguru.Config{APIToken: "t", APIEndpoint: "e", AccountID: "a", PhoneID: "p"}
	if got != want {
		t.Errorf("ClientConfig() = %+v, want %+v", got, want)
	}
}
