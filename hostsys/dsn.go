package hostsys

import (
	"fmt"
	"strings"
)

// dsn is a parsed "driver:params" connection string, modeled on the PDO
// DSN convention: mysql:host=...;port=...;dbname=...;user=...;password=...,
// pgsql: the same, sqlite: a bare file path.
type dsn struct {
	Driver   string
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func parseDSN(s string) (*dsn, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid dsn %q: missing driver prefix", s)
	}
	d := &dsn{Driver: parts[0]}
	if d.Driver == "sqlite" {
		d.Database = parts[1]
		return d, nil
	}
	for _, pair := range strings.Split(parts[1], ";") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key, val := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		switch key {
		case "host", "hostname":
			d.Host = val
		case "port":
			d.Port = val
		case "dbname", "database":
			d.Database = val
		case "user", "username":
			d.User = val
		case "password", "pass":
			d.Password = val
		}
	}
	return d, nil
}

// driverAndConnString maps a parsed dsn to the database/sql driver name
// and connection string registered for it.
func driverAndConnString(d *dsn) (driverName, connStr string, err error) {
	switch d.Driver {
	case "sqlite":
		return "sqlite", d.Database, nil
	case "mysql":
		port := d.Port
		if port == "" {
			port = "3306"
		}
		var cred strings.Builder
		if d.User != "" {
			cred.WriteString(d.User)
			if d.Password != "" {
				cred.WriteString(":" + d.Password)
			}
			cred.WriteString("@")
		}
		return "mysql", fmt.Sprintf("%stcp(%s:%s)/%s", cred.String(), hostOrDefault(d.Host), port, d.Database), nil
	case "pgsql", "postgres":
		port := d.Port
		if port == "" {
			port = "5432"
		}
		return "postgres", fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
			hostOrDefault(d.Host), port, d.Database, d.User, d.Password), nil
	default:
		return "", "", fmt.Errorf("unsupported dsn driver %q", d.Driver)
	}
}

func hostOrDefault(h string) string {
	if h == "" {
		return "localhost"
	}
	return h
}
