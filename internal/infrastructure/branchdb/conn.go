// Package branchdb administra las conexiones a las bases ERP de cada sucursal (MySQL, solo lectura):
// registro de pools con monitoreo de salud, ejecución de consultas por sucursal o en abanico,
// y consultas tipadas de catálogo/existencias sobre las dos variantes de esquema conocidas.
package branchdb

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/ACasillas1999/Inventarios-sub001/internal/domain/entity"
)

// Row fila genérica devuelta por una sucursal, indexada por nombre (alias) de columna.
type Row map[string]any

// String devuelve la columna como texto recortado ("" si es NULL).
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(decodeText(v))
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Int devuelve la columna como entero (0 si es NULL o no numérica).
func (r Row) Int(col string) int {
	switch v := r[col].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		n, _ := strconv.Atoi(r.String(col))
		return n
	}
}

// Decimal devuelve la columna como decimal (cero si es NULL o no numérica).
func (r Row) Decimal(col string) decimal.Decimal {
	switch v := r[col].(type) {
	case nil:
		return decimal.Zero
	case int64:
		return decimal.NewFromInt(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case float64:
		return decimal.NewFromFloat(v)
	case decimal.Decimal:
		return v
	default:
		d, err := decimal.NewFromString(r.String(col))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
}

// Conn pool de conexiones hacia la base de una sucursal.
type Conn interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	Close() error
}

// Opener crea el pool de una sucursal. No debe quedar bloqueado más allá del contexto.
type Opener func(ctx context.Context, branch entity.Branch) (Conn, error)

// MySQLOptions parámetros de pool comunes a todas las sucursales.
type MySQLOptions struct {
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
	MaxOpenConns   int
}

// NewMySQLOpener devuelve un Opener sobre database/sql + go-sql-driver/mysql.
func NewMySQLOpener(opts MySQLOptions) Opener {
	return func(_ context.Context, b entity.Branch) (Conn, error) {
		charset := b.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		port := b.Port
		if port == 0 {
			port = 3306
		}
		cfg := mysql.NewConfig()
		cfg.User = b.User
		cfg.Passwd = b.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(b.Host, strconv.Itoa(port))
		cfg.DBName = b.Database
		cfg.Timeout = opts.ConnectTimeout
		cfg.ReadTimeout = opts.QueryTimeout
		cfg.Params = map[string]string{"charset": charset}

		db, err := sql.Open("mysql", cfg.FormatDSN())
		if err != nil {
			return nil, fmt.Errorf("abrir pool sucursal %s: %w", b.Code, err)
		}
		maxOpen := opts.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = 10
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen / 2)
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetConnMaxIdleTime(5 * time.Minute)
		return &sqlConn{db: db}, nil
	}
}

// sqlConn adapta *sql.DB a Conn escaneando a filas genéricas.
type sqlConn struct {
	db *sql.DB
}

func (c *sqlConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *sqlConn) Close() error {
	return c.db.Close()
}

func (c *sqlConn) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = decodeText(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// decodeText interpreta bytes de ERPs antiguos: UTF-8 si es válido, Windows-1252 si no.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}
