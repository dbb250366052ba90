package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"fanders-backend/internal/domain/loan/calculator"
	"fanders-backend/internal/infrastructure/db"
)

type Config struct {
	AppPort string
	AppEnv  string

	DBDriver string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	// PostgresDSN is used as is when DB_DRIVER=postgres.
	PostgresDSN string
	SQLitePath  string

	DBMaxOpenConns int
	DBMaxIdleConns int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	IdempTTLSecs int

	JWTSecret string
	JWTTTL    time.Duration

	LoanMinPrincipal decimal.Decimal
	LoanMaxPrincipal decimal.Decimal
	LoanMinTerm      int
	LoanMaxTerm      int

	StorageDir     string
	BlotterCron    string
	AlertThreshold decimal.Decimal

	LogLevel  string
	LogFormat string

	AdminUsername string
	AdminPassword string

	// parse errors of set-but-malformed variables, reported by Validate
	errs []error
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func (c *Config) getInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s: %q is not an integer", k, v))
		return d
	}
	return n
}

func (c *Config) getDecimal(k string, d decimal.Decimal) decimal.Decimal {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := decimal.NewFromString(v)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("%s: %q is not a number", k, v))
		return d
	}
	return n
}

// Load reads the environment. A .env file in the working directory is applied first
// when present; variables already set win.
func Load() *Config {
	_ = godotenv.Load()

	limits := calculator.DefaultLimits()
	c := &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		AppEnv:    getenv("APP_ENV", "development"),
		DBDriver:  strings.ToLower(getenv("DB_DRIVER", db.DriverMySQL)),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "fanders"),
		MySQLUser: getenv("MYSQL_USER", "fanders"),
		MySQLPass: getenv("MYSQL_PASS", "fanders"),

		PostgresDSN: os.Getenv("DATABASE_URL"),
		SQLitePath:  getenv("SQLITE_PATH", "fanders.db"),

		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		StorageDir:  getenv("STORAGE_DIR", "storage/slr"),
		BlotterCron: getenv("BLOTTER_CRON", "*/15 * * * *"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),

		AdminUsername: getenv("ADMIN_USERNAME", "admin"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
	c.RedisDB = c.getInt("REDIS_DB", 0)
	c.DBMaxOpenConns = c.getInt("DB_MAX_OPEN_CONNS", db.DefaultPool().MaxOpen)
	c.DBMaxIdleConns = c.getInt("DB_MAX_IDLE_CONNS", db.DefaultPool().MaxIdle)
	c.IdempTTLSecs = c.getInt("IDEMPOTENCY_TTL_SECONDS", 300)
	c.JWTTTL = time.Duration(c.getInt("JWT_TTL_HOURS", 24)) * time.Hour
	c.LoanMinPrincipal = c.getDecimal("LOAN_MIN_PRINCIPAL", limits.MinPrincipal)
	c.LoanMaxPrincipal = c.getDecimal("LOAN_MAX_PRINCIPAL", limits.MaxPrincipal)
	c.LoanMinTerm = c.getInt("LOAN_MIN_TERM_WEEKS", limits.MinTermWeeks)
	c.LoanMaxTerm = c.getInt("LOAN_MAX_TERM_WEEKS", limits.MaxTermWeeks)
	c.AlertThreshold = c.getDecimal("ALERT_THRESHOLD", decimal.NewFromInt(1000))
	return c
}

func (c *Config) Validate() error {
	if len(c.errs) > 0 {
		return errors.Join(c.errs...)
	}
	switch c.DBDriver {
	case db.DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case db.DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("missing DATABASE_URL for DB_DRIVER=postgres")
		}
	case db.DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH for DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBMaxOpenConns <= 0 || c.DBMaxIdleConns < 0 {
		return errors.New("DB_MAX_OPEN_CONNS must be positive and DB_MAX_IDLE_CONNS not negative")
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL_HOURS must be positive")
	}
	if !c.LoanMinPrincipal.IsPositive() {
		return errors.New("LOAN_MIN_PRINCIPAL must be positive")
	}
	if c.LoanMaxPrincipal.IsPositive() && c.LoanMaxPrincipal.LessThan(c.LoanMinPrincipal) {
		return errors.New("LOAN_MAX_PRINCIPAL must not be below LOAN_MIN_PRINCIPAL")
	}
	if c.LoanMinTerm <= 0 || c.LoanMaxTerm < c.LoanMinTerm {
		return fmt.Errorf("invalid loan term bounds %d..%d", c.LoanMinTerm, c.LoanMaxTerm)
	}
	if c.IdempTTLSecs <= 0 {
		return errors.New("IDEMPOTENCY_TTL_SECONDS must be positive")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN is the connection string for the selected driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case db.DriverPostgres:
		return c.PostgresDSN
	case db.DriverSQLite:
		return c.SQLitePath
	}
	return c.MySQLDSN()
}

func (c *Config) DBOptions() db.Options {
	return db.Options{
		Driver: c.DBDriver,
		DSN:    c.DSN(),
		Pool:   db.Pool{MaxOpen: c.DBMaxOpenConns, MaxIdle: c.DBMaxIdleConns},
	}
}

func (c *Config) LoanLimits() calculator.Limits {
	return calculator.Limits{
		MinPrincipal: c.LoanMinPrincipal,
		MaxPrincipal: c.LoanMaxPrincipal,
		MinTermWeeks: c.LoanMinTerm,
		MaxTermWeeks: c.LoanMaxTerm,
	}
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}
