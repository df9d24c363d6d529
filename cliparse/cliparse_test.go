package cliparse

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "DATABASE_URL", "DATABASE_TYPE", "UNITS_FILE", "AGENDA_FILE", "ADMIN_PASSWORD"} {
		t.Setenv(key, "")
	}
}

func TestParseFlagsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{"-admin-password", "secret"})
	if err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	if cfg.Port != 4580 {
		t.Errorf("Expected default port 4580, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("Expected default type sqlite, got %s", cfg.DatabaseType)
	}
	if cfg.DatabaseURL != "data/assembly.db" {
		t.Errorf("Expected default sqlite path, got %s", cfg.DatabaseURL)
	}
	if cfg.UnitsFile != "data/units.json" {
		t.Errorf("Expected default units file, got %s", cfg.UnitsFile)
	}
	if cfg.AgendaFile != "data/assembly_items.json" {
		t.Errorf("Expected default agenda file, got %s", cfg.AgendaFile)
	}
}

func TestParseFlagsExplicit(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{
		"-p", "9000",
		"-t", "postgres",
		"-d", "postgres://localhost/assembly",
		"-units", "/tmp/roster.json",
		"-agenda", "/tmp/agenda.json",
		"-admin-password", "secret",
	})
	if err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	if cfg.Port != 9000 || cfg.DatabaseType != "postgres" {
		t.Errorf("Flags not applied: %+v", cfg)
	}
	if cfg.UnitsFile != "/tmp/roster.json" || cfg.AgendaFile != "/tmp/agenda.json" {
		t.Errorf("Data file flags not applied: %+v", cfg)
	}
}

func TestParseFlagsEnvFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8123")
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("DATABASE_URL", "/tmp/env.db")
	t.Setenv("ADMIN_PASSWORD", "env-secret")

	cfg, err := ParseFlags(nil)
	if err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}

	if cfg.Port != 8123 || cfg.DatabaseURL != "/tmp/env.db" || cfg.AdminPassword != "env-secret" {
		t.Errorf("Env fallback not applied: %+v", cfg)
	}
}

func TestParseFlagsRequiresAdminPassword(t *testing.T) {
	clearEnv(t)

	if _, err := ParseFlags(nil); err == nil {
		t.Error("Expected error when ADMIN_PASSWORD is missing")
	}
}

func TestParseFlagsRejectsUnknownDatabaseType(t *testing.T) {
	clearEnv(t)

	if _, err := ParseFlags([]string{"-t", "mysql", "-admin-password", "x"}); err == nil {
		t.Error("Expected error for unsupported database type")
	}
}

func TestParseFlagsPostgresRequiresURL(t *testing.T) {
	clearEnv(t)

	if _, err := ParseFlags([]string{"-t", "postgres", "-admin-password", "x"}); err == nil {
		t.Error("Expected error for postgres without a database URL")
	}
}

func TestParseFlagsRejectsBadPortEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-number")
	t.Setenv("ADMIN_PASSWORD", "x")

	if _, err := ParseFlags(nil); err == nil {
		t.Error("Expected error for non-numeric PORT")
	}
}
