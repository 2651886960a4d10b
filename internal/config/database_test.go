package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestResolveDatabase_URLWins(t *testing.T) {
	env := Env{
		"DATABASE_URL": "postgres://u:p@h:5432/db",
		"DB_HOST":      "other-host",
		"DB_NAME":      "other-db",
		"DB_PORT":      "not-even-a-port",
	}
	d, err := ResolveDatabase(env)
	if err != nil {
		t.Fatalf("ResolveDatabase: %v", err)
	}
	want := Database{
		Engine:     EnginePostgres,
		Name:       "db",
		User:       "u",
		Password:   "p",
		Host:       "h",
		Port:       5432,
		RequireTLS: true,
		ConnMaxAge: 600 * time.Second,
	}
	if d != want {
		t.Fatalf("descriptor = %+v, want %+v", d, want)
	}
}

func TestResolveDatabase_LocalDefaults(t *testing.T) {
	d, err := ResolveDatabase(Env{})
	if err != nil {
		t.Fatalf("ResolveDatabase: %v", err)
	}
	if d.Engine != EnginePostgres || d.Host != "localhost" || d.Port != 5432 || d.Name != "talentlink" {
		t.Fatalf("descriptor = %+v", d)
	}
	if d.User != "postgres" || d.RequireTLS || d.ConnMaxAge != 0 {
		t.Fatalf("descriptor = %+v", d)
	}
}

func TestResolveDatabase_Discrete(t *testing.T) {
	d, err := ResolveDatabase(Env{"DB_HOST": "db.internal", "DB_PORT": "6543", "DB_NAME": "tl"})
	if err != nil {
		t.Fatalf("ResolveDatabase: %v", err)
	}
	if d.Host != "db.internal" || d.Port != 6543 || d.Name != "tl" {
		t.Fatalf("descriptor = %+v", d)
	}
}

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Database
	}{
		{
			name: "postgresql scheme, default port",
			raw:  "postgresql://app@db.example.com/talent",
			want: Database{Engine: EnginePostgres, Host: "db.example.com", Port: 5432, Name: "talent", User: "app", RequireTLS: true, ConnMaxAge: urlConnMaxAge},
		},
		{
			name: "escaped password",
			raw:  "postgres://app:p%40ss%2Fw@h:6000/db",
			want: Database{Engine: EnginePostgres, Host: "h", Port: 6000, Name: "db", User: "app", Password: "p@ss/w", RequireTLS: true, ConnMaxAge: urlConnMaxAge},
		},
		{
			name: "sslmode disable",
			raw:  "postgres://u:p@localhost:5432/db?sslmode=disable",
			want: Database{Engine: EnginePostgres, Host: "localhost", Port: 5432, Name: "db", User: "u", Password: "p", ConnMaxAge: urlConnMaxAge},
		},
		{
			name: "sqlite relative",
			raw:  "sqlite:///talentlink.db",
			want: Database{Engine: EngineSQLite, Name: "talentlink.db"},
		},
		{
			name: "sqlite absolute",
			raw:  "sqlite:////var/lib/tl.db",
			want: Database{Engine: EngineSQLite, Name: "/var/lib/tl.db"},
		},
		{
			name: "sqlite memory",
			raw:  "sqlite://",
			want: Database{Engine: EngineSQLite, Name: ":memory:"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDatabaseURL(tt.raw)
			if err != nil {
				t.Fatalf("ParseDatabaseURL(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseDatabaseURL_Malformed(t *testing.T) {
	for _, raw := range []string{
		"mysql://u:p@h/db",
		"postgres://u:p@h:99999/db",
		"postgres://u:p@h:port/db",
		"postgres:///db",
		"postgres://u:p@h:5432/",
		"://nope",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseDatabaseURL(raw)
			var ce *ConfigError
			if !errors.As(err, &ce) || ce.Key != "DATABASE_URL" {
				t.Fatalf("ParseDatabaseURL(%q) error = %v, want DATABASE_URL ConfigError", raw, err)
			}
		})
	}
}

func TestDatabase_DSN(t *testing.T) {
	d := Database{Engine: EnginePostgres, Host: "h", Port: 5432, Name: "db", User: "u", Password: "p@ss", RequireTLS: true}
	if got, want := d.DSN(), "postgres://u:p%40ss@h:5432/db?sslmode=require"; got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
	if d.DriverName() != "pgx" {
		t.Errorf("DriverName = %q", d.DriverName())
	}

	d.RequireTLS = false
	if !strings.HasSuffix(d.DSN(), "sslmode=disable") {
		t.Errorf("DSN = %q", d.DSN())
	}

	s := Database{Engine: EngineSQLite, Name: "/tmp/x.db"}
	if s.DriverName() != "sqlite" || !strings.HasPrefix(s.DSN(), "file:/tmp/x.db?") {
		t.Errorf("sqlite DSN = %q (%s)", s.DSN(), s.DriverName())
	}
}

func TestDatabase_StringMasksPassword(t *testing.T) {
	d := Database{Engine: EnginePostgres, Host: "h", Port: 5432, Name: "db", User: "u", Password: "hunter2"}
	if strings.Contains(d.String(), "hunter2") {
		t.Fatalf("String leaks password: %s", d)
	}
}
