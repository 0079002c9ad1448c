// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"testing"
)

func TestParseFlags_EnvVars(t *testing.T) {
	// Set env vars
	os.Setenv("PORT", "9000")
	os.Setenv("DATABASE_URL", "postgres://test")
	os.Setenv("ADMIN_KEY_SALT", "test-salt")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	os.Setenv("PORT", "9000")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-admin-salt", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
}

func TestParseFlags_MissingDatabaseURL(t *testing.T) {
	os.Clearenv()

	_, err := ParseFlags([]string{"-admin-salt", "s1"})
	if err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestParseFlags_DefaultDatabaseType(t *testing.T) {
	os.Clearenv()

	cfg, err := ParseFlags([]string{"-d", "file:test.db", "-admin-salt", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected default database type sqlite, got %q", cfg.DatabaseType)
	}
}

func TestParseFlags_VerifyModeSkipsSalt(t *testing.T) {
	os.Clearenv()

	// The offline verifier is read-only and must not require serving secrets
	cfg, err := ParseFlags([]string{"-d", "file:copy.db", "-verify-election", "e1", "-verify-category", "council"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.VerifyElection != "e1" || cfg.VerifyCategory != "council" {
		t.Errorf("verify flags not parsed: %+v", cfg)
	}
}

func TestParseFlags_VerifyRequiresCategory(t *testing.T) {
	os.Clearenv()

	_, err := ParseFlags([]string{"-d", "file:copy.db", "-verify-election", "e1"})
	if err == nil {
		t.Error("expected error when -verify-category is missing")
	}
}
