package keystore

import (
	"fmt"
	"net/url"
	"strings"
)

// Config selects the keystore backend.
//
// For sqlite only Name matters; an empty Name keeps the store in memory for
// the lifetime of the process. Postgres needs the connection fields, or a URL
// which takes precedence over them.
type Config struct {
	URL      string `env:"SNAPDEMO_KEYSTORE_URL" env-default:""`
	Driver   string `env:"SNAPDEMO_KEYSTORE_DRIVER" env-default:"sqlite" validate:"oneof=sqlite postgres"`
	Name     string `env:"SNAPDEMO_KEYSTORE_NAME" env-default:"snapdemo.db"`
	Schema   string `env:"SNAPDEMO_KEYSTORE_SCHEMA" env-default:""`
	Username string `env:"SNAPDEMO_KEYSTORE_USERNAME" env-default:"postgres"`
	Password string `env:"SNAPDEMO_KEYSTORE_PASSWORD" env-default:""`
	Host     string `env:"SNAPDEMO_KEYSTORE_HOST" env-default:"localhost"`
	Port     string `env:"SNAPDEMO_KEYSTORE_PORT" env-default:"5432"`
}

// ParseConnectionString turns "file:<path>" or a postgres URL into a Config.
func ParseConnectionString(connStr string) (Config, error) {
	if strings.HasPrefix(connStr, "file:") {
		path, _, _ := strings.Cut(connStr[len("file:"):], "?")
		return Config{Driver: "sqlite", Name: path}, nil
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid connection string: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return Config{}, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	cnf := Config{
		Driver: "postgres",
		Name:   strings.TrimPrefix(u.Path, "/"),
		Schema: u.Query().Get("search_path"),
		Host:   u.Hostname(),
		Port:   u.Port(),
	}
	if cnf.Port == "" {
		cnf.Port = "5432"
	}
	if u.User != nil {
		cnf.Username = u.User.Username()
		cnf.Password, _ = u.User.Password()
	}
	return cnf, nil
}

func (c Config) postgresDSN() string {
	dsn := fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		quoteDSN(c.Username), quoteDSN(c.Password), c.Host, c.Port, quoteDSN(c.Name),
	)
	if c.Schema != "" {
		dsn = fmt.Sprintf("%s search_path=%s", dsn, c.Schema)
	}
	return dsn
}

func (c Config) sqliteDSN() string {
	if c.Name == "" || c.Name == ":memory:" {
		return "file::memory:?cache=shared"
	}
	return fmt.Sprintf("file:%s?cache=shared", c.Name)
}

// quoteDSN quotes a key/value connection string value.
func quoteDSN(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
