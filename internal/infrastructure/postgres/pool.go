package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Enrolement-api/pkg/config"
	"github.com/jhoicas/Enrolement-api/pkg/logger"
)

// pingTimeout límite de la comprobación inicial; no bloquea el arranque.
const pingTimeout = 5 * time.Second

// NewPool crea el pool hacia el almacén remoto. Con DATABASE_URL se usa tal cual (forzando IPv4
// si el host resuelve); si no, se arma el DSN desde DB_HOST, DB_PORT, etc.
// La escucha LISTEN retiene una conexión del pool mientras haya vistas abiertas.
// El pool se conecta bajo demanda: si el servidor no responde al arrancar solo se
// registra un aviso y las operaciones fallan después como errores de red.
func NewPool(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	dsn := cfg.DSN()
	if cfg.DatabaseURL != "" {
		dsn = withIPv4Host(cfg.DatabaseURL)
	} else if ip, err := lookupIPv4(ctx, cfg.Host); err == nil {
		withIP := cfg
		withIP.Host = ip
		dsn = withIP.DSN()
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	// Contenedores sin IPv6: se marca tcp4 cuando hay A record.
	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		var d net.Dialer
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		if ip, err := lookupIPv4(ctx, host); err == nil {
			return d.DialContext(ctx, "tcp4", net.JoinHostPort(ip, port))
		}
		return d.DialContext(ctx, network, addr)
	}

	poolConfig.ConnConfig.ConnectTimeout = pingTimeout
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 0
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Msg("PostgreSQL no responde; los envíos quedarán solo en local hasta reconectar")
	}
	return pool, nil
}

// lookupIPv4 devuelve la primera IPv4 del host. Un literal IPv4 se devuelve tal cual.
func lookupIPv4(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return host, nil
		}
		return "", errors.New("literal IPv6")
	}
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", errors.New("sin registros A")
	}
	return ips[0].String(), nil
}

// withIPv4Host sustituye el hostname de la URL por su IPv4; si no resuelve, la URL queda igual.
func withIPv4Host(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return databaseURL
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	ip, err := lookupIPv4(context.Background(), u.Hostname())
	if err != nil {
		return databaseURL
	}
	u.Host = net.JoinHostPort(ip, port)
	return u.String()
}
