package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backends de almacén remoto soportados.
const (
	BackendPostgres = "postgres"
	BackendSupabase = "supabase"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	Remote   RemoteConfig
	DB       DBConfig
	Supabase SupabaseConfig
	Local    LocalConfig
	Sync     SyncConfig
	Export   ExportConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RemoteConfig almacén remoto autoritativo.
type RemoteConfig struct {
	Backend string // postgres | supabase
	Table   string
	Channel string        // canal LISTEN/NOTIFY (backend postgres)
	Timeout time.Duration // por llamada remota
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo (ej. DATABASE_URL de Supabase).
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string con la contraseña escapada.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// SupabaseConfig acceso REST + Realtime del proyecto Supabase.
type SupabaseConfig struct {
	URL    string
	APIKey string
}

// LocalConfig registro local de envíos (SQLite).
type LocalConfig struct {
	SQLitePath string
}

// SyncConfig reintentos de sincronización. RetrySchedule vacío = solo bajo demanda.
type SyncConfig struct {
	RetrySchedule string
}

// ExportConfig exportación PDF del registro local.
type ExportConfig struct {
	DefaultName string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, REMOTE_BACKEND, DATABASE_URL, SUPABASE_URL, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // opcional

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // opcional

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "enrolement-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Remote: RemoteConfig{
			Backend: strings.ToLower(getString(v, "REMOTE_BACKEND", BackendPostgres)),
			Table:   getString(v, "REMOTE_TABLE", "enrolements"),
			Channel: getString(v, "REMOTE_CHANNEL", "enrolements_changes"),
			Timeout: getDuration(v, "REMOTE_TIMEOUT", 10*time.Second),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "enrolements"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		Supabase: SupabaseConfig{
			URL:    getString(v, "SUPABASE_URL", ""),
			APIKey: getString(v, "SUPABASE_KEY", ""),
		},
		Local: LocalConfig{
			SQLitePath: getString(v, "LOCAL_SQLITE_PATH", "./data/local_enrolements.db"),
		},
		Sync: SyncConfig{
			RetrySchedule: getString(v, "SYNC_RETRY_SCHEDULE", ""),
		},
		Export: ExportConfig{
			DefaultName: getString(v, "EXPORT_DEFAULT_NAME", "MesEnrolements"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate comprueba la coherencia de la configuración y reporta todos los problemas juntos.
func (c *Config) Validate() error {
	var errs []error
	switch c.Remote.Backend {
	case BackendPostgres:
	case BackendSupabase:
		if c.Supabase.URL == "" {
			errs = append(errs, errors.New("SUPABASE_URL es obligatorio con REMOTE_BACKEND=supabase"))
		}
		if c.Supabase.APIKey == "" {
			errs = append(errs, errors.New("SUPABASE_KEY es obligatorio con REMOTE_BACKEND=supabase"))
		}
	default:
		errs = append(errs, fmt.Errorf("REMOTE_BACKEND desconocido: %q", c.Remote.Backend))
	}
	if c.Remote.Table == "" {
		errs = append(errs, errors.New("REMOTE_TABLE no puede estar vacío"))
	}
	if c.Remote.Timeout <= 0 {
		errs = append(errs, errors.New("REMOTE_TIMEOUT debe ser positivo"))
	}
	if c.Local.SQLitePath == "" {
		errs = append(errs, errors.New("LOCAL_SQLITE_PATH no puede estar vacío"))
	}
	if c.HTTP.Port <= 0 {
		errs = append(errs, errors.New("HTTP_PORT debe ser positivo"))
	}
	return errors.Join(errs...)
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

// getDuration acepta "10s", "1m" o un entero en segundos.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	raw := strings.TrimSpace(v.GetString(key))
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
