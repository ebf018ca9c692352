package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_BACKEND", "EXPO_PUSH_URL", "EXPO_HTTP_TIMEOUT", "DEEP_LINK_SCHEME", "CHALLENGE_REQUIRE_EXPO_TOKENS", "POSTGRES_CONN_STR"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.StoreBackend != BackendFirestore {
		t.Errorf("StoreBackend = %q", cfg.StoreBackend)
	}
	if cfg.ExpoPushURL != "https://exp.host/--/api/v2/push/send" {
		t.Errorf("ExpoPushURL = %q", cfg.ExpoPushURL)
	}
	if cfg.ExpoHTTPTimeout != 15*time.Second {
		t.Errorf("ExpoHTTPTimeout = %v", cfg.ExpoHTTPTimeout)
	}
	if cfg.DeepLinkScheme != "henstagrammobile" || cfg.RequireExpoTokens {
		t.Errorf("challenge settings = %q %v", cfg.DeepLinkScheme, cfg.RequireExpoTokens)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", BackendMongo)
	t.Setenv("EXPO_HTTP_TIMEOUT", "3s")
	t.Setenv("CHALLENGE_REQUIRE_EXPO_TOKENS", "true")
	t.Setenv("DEEP_LINK_SCHEME", "henstagram-dev")
	cfg := Load()

	if cfg.StoreBackend != BackendMongo {
		t.Errorf("StoreBackend = %q", cfg.StoreBackend)
	}
	if cfg.ExpoHTTPTimeout != 3*time.Second {
		t.Errorf("ExpoHTTPTimeout = %v", cfg.ExpoHTTPTimeout)
	}
	if !cfg.RequireExpoTokens {
		t.Error("RequireExpoTokens = false")
	}
	if cfg.DeepLinkScheme != "henstagram-dev" {
		t.Errorf("DeepLinkScheme = %q", cfg.DeepLinkScheme)
	}
}

func TestLoadInvalidTimeoutFallsBack(t *testing.T) {
	t.Setenv("EXPO_HTTP_TIMEOUT", "soon")
	if got := Load().ExpoHTTPTimeout; got != 15*time.Second {
		t.Errorf("ExpoHTTPTimeout = %v, want 15s", got)
	}
}
