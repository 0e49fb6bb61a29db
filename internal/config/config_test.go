package config

import (
	"strings"
	"testing"
)

func TestPostgresConnectionStrings(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db",
		Port:     "5432",
		User:     "linkhive",
		Password: "secret",
		DbName:   "bookmarks",
	}

	want := "postgres://linkhive:secret@db:5432/bookmarks?sslmode=disable"
	if got := cfg.PgConnectionString(); got != want {
		t.Errorf("PgConnectionString() = %q, want %q", got, want)
	}
	if got := cfg.String(); !strings.Contains(got, "sslmode=disable") {
		t.Errorf("String() missing default ssl mode: %q", got)
	}

	cfg.SslMode = "require"
	if got := cfg.PgConnectionString(); !strings.Contains(got, "sslmode=require") {
		t.Errorf("PgConnectionString() ignores SslMode: %q", got)
	}
	if got := cfg.String(); !strings.Contains(got, "sslmode=require") {
		t.Errorf("String() ignores SslMode: %q", got)
	}
}

func TestGetEnvWithDefault(t *testing.T) {
	t.Setenv("LINKHIVE_TEST_ENV", "set")
	if got := GetEnvWithDefault("LINKHIVE_TEST_ENV", "fallback"); got != "set" {
		t.Errorf("got %q, want set value", got)
	}
	if got := GetEnvWithDefault("LINKHIVE_TEST_ENV_MISSING", "fallback"); got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}
}
