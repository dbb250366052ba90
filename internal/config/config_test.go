package config

import (
	"strings"
	"testing"
	"time"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	c := Load()

	if c.AppPort != "8080" || c.DBDriver != "mysql" || c.MySQLDB != "fanders" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.JWTTTL != 24*time.Hour || c.IdempotencyTTL() != 5*time.Minute {
		t.Fatalf("ttl defaults: jwt=%v idemp=%v", c.JWTTTL, c.IdempotencyTTL())
	}
	l := c.LoanLimits()
	if l.MinPrincipal.String() != "5000" || l.MaxPrincipal.String() != "50000" || l.MinTermWeeks != 4 || l.MaxTermWeeks != 52 {
		t.Fatalf("limits: %+v", l)
	}
	if c.AlertThreshold.String() != "1000" || c.BlotterCron != "*/15 * * * *" {
		t.Fatalf("blotter defaults: %s %q", c.AlertThreshold, c.BlotterCron)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if !strings.Contains(c.DSN(), "@tcp(mysql:3306)/fanders?") {
		t.Fatalf("dsn = %s", c.DSN())
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://f:f@db:5432/fanders?sslmode=disable")
	t.Setenv("LOAN_MIN_PRINCIPAL", "1000")
	t.Setenv("LOAN_MAX_TERM_WEEKS", "26")
	t.Setenv("JWT_TTL_HOURS", "8")
	t.Setenv("IDEMPOTENCY_TTL_SECONDS", "60")
	c := Load()

	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.DSN() != "postgres://f:f@db:5432/fanders?sslmode=disable" {
		t.Fatalf("dsn = %s", c.DSN())
	}
	if c.LoanLimits().MinPrincipal.String() != "1000" || c.LoanLimits().MaxTermWeeks != 26 {
		t.Fatalf("limits: %+v", c.LoanLimits())
	}
	if c.JWTTTL != 8*time.Hour || c.IdempotencyTTL() != time.Minute {
		t.Fatalf("ttls: %v %v", c.JWTTTL, c.IdempotencyTTL())
	}
}

func TestLoad_SQLite(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/fanders-dev.db")
	t.Setenv("DB_MAX_OPEN_CONNS", "12")
	c := Load()

	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	o := c.DBOptions()
	if o.Driver != "sqlite" || o.DSN != "/tmp/fanders-dev.db" || o.Pool.MaxOpen != 12 || o.Pool.MaxIdle != 10 {
		t.Fatalf("options = %+v", o)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "JWT_SECRET"},
		{"bad port", map[string]string{"MYSQL_PORT": "not-a-port"}, "MYSQL_PORT"},
		{"unknown driver", map[string]string{"DB_DRIVER": "oracle"}, "unsupported DB_DRIVER"},
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres"}, "DATABASE_URL"},
		{"malformed int", map[string]string{"REDIS_DB": "two"}, "REDIS_DB"},
		{"malformed decimal", map[string]string{"ALERT_THRESHOLD": "lots"}, "ALERT_THRESHOLD"},
		{"inverted principal", map[string]string{"LOAN_MIN_PRINCIPAL": "60000"}, "LOAN_MAX_PRINCIPAL"},
		{"inverted term", map[string]string{"LOAN_MIN_TERM_WEEKS": "60"}, "term bounds"},
		{"empty pool", map[string]string{"DB_MAX_OPEN_CONNS": "0"}, "DB_MAX_OPEN_CONNS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", secret)
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			err := Load().Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
