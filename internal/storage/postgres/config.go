package postgres

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	defaultPort           = 5432
	defaultSSLMode        = "verify-full"
	defaultConnectTimeout = 5 * time.Second
	// maintenanceDatabase: база, к которой подключается bootstrap, пока целевой ещё нет.
	maintenanceDatabase = "postgres"
)

// sslModes перечисляет допустимые режимы, соединение без TLS не разрешено.
var sslModes = map[string]struct{}{
	"require":     {},
	"verify-ca":   {},
	"verify-full": {},
}

// Config описывает параметры подключения к PostgreSQL.
// Собирается один раз при старте процесса и передаётся в NewStore.
type Config struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	SSLMode        string
	SSLRootCert    string
	ConnectTimeout time.Duration
}

// DefaultConfig возвращает конфигурацию с безопасными значениями по умолчанию.
func DefaultConfig() Config {
	return Config{
		Port:           defaultPort,
		SSLMode:        defaultSSLMode,
		ConnectTimeout: defaultConnectTimeout,
	}
}

// Validate проверяет обязательные поля и запрещает подключение без TLS.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is out of range", c.Port))
	}
	if strings.TrimSpace(c.User) == "" {
		errs = append(errs, errors.New("user is required"))
	}
	if strings.TrimSpace(c.Database) == "" {
		errs = append(errs, errors.New("database name is required"))
	}
	if _, ok := sslModes[c.SSLMode]; !ok {
		errs = append(errs, fmt.Errorf("sslmode %q is not allowed, use require, verify-ca or verify-full", c.SSLMode))
	}
	if c.ConnectTimeout < 0 {
		errs = append(errs, errors.New("connect timeout must be non-negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid postgres config: %w", errors.Join(errs...))
	}
	return nil
}

// WithCredentials возвращает копию конфига с другой учётной записью и базой.
func (c Config) WithCredentials(user, password, database string) Config {
	c.User = user
	c.Password = password
	c.Database = database
	return c
}

// connString собирает URL подключения; пароль экранируется.
func (c Config) connString() string {
	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	if c.SSLRootCert != "" {
		query.Set("sslrootcert", c.SSLRootCert)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// pgxConfig валидирует конфиг и разбирает его в pgx.ConnConfig.
func (c Config) pgxConfig() (*pgx.ConnConfig, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	connCfg, err := pgx.ParseConfig(c.connString())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if connCfg.TLSConfig == nil {
		return nil, errors.New("postgres config resolved without TLS")
	}
	// без fallback на plaintext
	connCfg.Fallbacks = nil
	if c.ConnectTimeout > 0 {
		connCfg.ConnectTimeout = c.ConnectTimeout
	}
	return connCfg, nil
}
