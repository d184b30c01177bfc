package google

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearCredEnv(t *testing.T) {
	for _, key := range []string{
		"GOOGLE_SERVICE_ACCOUNT_JSON",
		"GOOGLE_SERVICE_ACCOUNT_JSON_FILE",
		"GOOGLE_APPLICATION_CREDENTIALS",
	} {
		t.Setenv(key, "")
	}
}

func TestCredentialsFromEnv_JSONFile(t *testing.T) {
	clearCredEnv(t)

	path := filepath.Join(t.TempDir(), "creds.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON_FILE", path)

	got, err := credentialsFromEnv()
	if err != nil {
		t.Fatalf("credentialsFromEnv() error: %v", err)
	}
	if string(got) != `{"type":"service_account"}` {
		t.Errorf("credentials = %q", got)
	}
}

func TestCredentialsFromEnv_InlinePrecedence(t *testing.T) {
	clearCredEnv(t)

	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"inline":true}`)
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON_FILE", "/nonexistent/creds.json")

	got, err := credentialsFromEnv()
	if err != nil {
		t.Fatalf("credentialsFromEnv() error: %v", err)
	}
	if string(got) != `{"inline":true}` {
		t.Errorf("inline JSON must win over file path, got %q", got)
	}
}

func TestCredentialsFromEnv_ApplicationCredentialsFallback(t *testing.T) {
	clearCredEnv(t)

	path := filepath.Join(t.TempDir(), "adc.json")
	if err := os.WriteFile(path, []byte(`{"adc":true}`), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)

	got, err := credentialsFromEnv()
	if err != nil {
		t.Fatalf("credentialsFromEnv() error: %v", err)
	}
	if string(got) != `{"adc":true}` {
		t.Errorf("credentials = %q", got)
	}
}

func TestCredentialsFromEnv_Missing(t *testing.T) {
	clearCredEnv(t)

	if _, err := credentialsFromEnv(); err == nil {
		t.Fatal("expected error without any credential source")
	} else if !strings.Contains(err.Error(), "GOOGLE_SERVICE_ACCOUNT_JSON_FILE") {
		t.Errorf("error should name the supported keys, got %q", err)
	}
}

func TestCredentialsFromEnv_UnreadableFile(t *testing.T) {
	clearCredEnv(t)
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON_FILE", filepath.Join(t.TempDir(), "missing.json"))

	if _, err := credentialsFromEnv(); err == nil {
		t.Fatal("expected error for unreadable credentials file")
	}
}
