// Package extdb reads tables from the external data warehouse over database/sql.
//
// The driver is chosen by Config.Type: PostgreSQL through the pgx stdlib driver and
// SQLite through go-sqlite3. Column names are lower-cased and text values are decoded
// from the configured source character set, so callers see the same row shape
// whatever the warehouse engine is.
package extdb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/language"

	"github.com/agentstation/assessmentsync/pkg/assessments"
	"github.com/agentstation/assessmentsync/pkg/constants"
	"github.com/agentstation/assessmentsync/pkg/errors"
)

// Dialect is the SQL flavour of a source.
type Dialect string

const (
	// Postgres uses $n placeholders.
	Postgres Dialect = "postgres"
	// SQLite uses ? placeholders.
	SQLite Dialect = "sqlite"
)

// Config holds the external connection settings.
type Config struct {
	Type     string `mapstructure:"type" yaml:"type"`           // pgx, postgres, postgresql, sqlite, sqlite3
	Host     string `mapstructure:"host" yaml:"host"`           // host[:port]
	User     string `mapstructure:"user" yaml:"user"`           // login name
	Password string `mapstructure:"password" yaml:"password"`   // login password
	Name     string `mapstructure:"name" yaml:"name"`           // database name, or file path for sqlite
	Encoding string `mapstructure:"encoding" yaml:"encoding"`   // source charset, utf-8 when empty
	SetupSQL string `mapstructure:"setup_sql" yaml:"setup_sql"` // statement run after connecting
	DSN      string `mapstructure:"dsn" yaml:"dsn"`             // overrides Host/User/Password/Name
}

// driver resolves the database/sql driver name and dialect for the configured type.
func (c Config) driver() (string, Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(c.Type)) {
	case "pgx", "postgres", "postgresql":
		return "pgx", Postgres, nil
	case "sqlite", "sqlite3":
		return "sqlite3", SQLite, nil
	case "":
		return "", "", errors.NewConfigurationMissingError("external.type")
	default:
		return "", "", errors.NewConfigError("external", fmt.Sprintf("unsupported database type %q", c.Type), nil)
	}
}

// dsn builds the connection string for the driver.
func (c Config) dsn(dialect Dialect) string {
	if c.DSN != "" {
		return c.DSN
	}
	if dialect == SQLite {
		return c.Name
	}
	u := url.URL{Scheme: "postgres", Host: c.Host, Path: "/" + c.Name}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	return u.String()
}

// Source is an open connection to the warehouse.
type Source struct {
	db      *sql.DB
	dialect Dialect
	decoder *encoding.Decoder
	lower   cases.Caser
}

// Open connects to the warehouse, verifies the connection and runs the setup
// statement. Any failure is reported as a SourceUnavailableError and leaves no
// connection open.
func Open(ctx context.Context, cfg Config) (*Source, error) {
	driverName, dialect, err := cfg.driver()
	if err != nil {
		return nil, err
	}

	decoder, err := decoderFor(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, cfg.dsn(dialect))
	if err != nil {
		return nil, errors.NewSourceUnavailableError(driverName, cfg.Host, err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, constants.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(connectCtx); err != nil {
		_ = db.Close()
		return nil, errors.NewSourceUnavailableError(driverName, cfg.Host, err)
	}

	if setup := strings.TrimSpace(cfg.SetupSQL); setup != "" {
		if _, err := db.ExecContext(connectCtx, setup); err != nil {
			_ = db.Close()
			return nil, errors.NewSourceUnavailableError(driverName, cfg.Host, fmt.Errorf("setup statement: %w", err))
		}
	}

	return &Source{
		db:      db,
		dialect: dialect,
		decoder: decoder,
		lower:   cases.Lower(language.Und),
	}, nil
}

// decoderFor returns nil for UTF-8, which needs no decoding.
func decoderFor(name string) (*encoding.Decoder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errors.NewConfigError("external", fmt.Sprintf("unknown encoding %q", name), err)
	}
	if canonical, _ := htmlindex.Name(enc); canonical == constants.DefaultSourceEncoding {
		return nil, nil
	}
	return enc.NewDecoder(), nil
}

// Dialect returns the SQL flavour of the source.
func (s *Source) Dialect() Dialect { return s.dialect }

// Query describes a read of one table. The zero value of every field but Table
// reads the whole table unconditionally.
type Query struct {
	Table      string
	Conditions map[string]any // column = value, ANDed
	Sort       []string       // column, optionally followed by ASC or DESC
	Distinct   bool
}

var (
	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
	sortPattern  = regexp.MustCompile(`(?i)^\s*([A-Za-z_][A-Za-z0-9_]*)(\s+(ASC|DESC))?\s*$`)
)

// build renders the query for the source dialect.
func (q Query) build(dialect Dialect) (string, []any, error) {
	if !identPattern.MatchString(q.Table) {
		return "", nil, errors.NewValidationError("table", q.Table, "invalid identifier")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString("* FROM ")
	b.WriteString(quote(q.Table))

	var args []any
	if len(q.Conditions) > 0 {
		columns := make([]string, 0, len(q.Conditions))
		for col := range q.Conditions {
			columns = append(columns, col)
		}
		slices.Sort(columns)

		parts := make([]string, 0, len(columns))
		for _, col := range columns {
			if !identPattern.MatchString(col) {
				return "", nil, errors.NewValidationError("condition", col, "invalid identifier")
			}
			value := q.Conditions[col]
			if value == nil {
				parts = append(parts, quote(col)+" IS NULL")
				continue
			}
			args = append(args, value)
			parts = append(parts, quote(col)+" = "+placeholder(dialect, len(args)))
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(parts, " AND "))
	}

	if len(q.Sort) > 0 {
		parts := make([]string, 0, len(q.Sort))
		for _, s := range q.Sort {
			m := sortPattern.FindStringSubmatch(s)
			if m == nil {
				return "", nil, errors.NewValidationError("sort", s, "invalid sort column")
			}
			part := quote(m[1])
			if m[3] != "" {
				part += " " + strings.ToUpper(m[3])
			}
			parts = append(parts, part)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}

	return b.String(), args, nil
}

// ReadAll runs the query and returns every row in result order. A failing query is
// reported as a ReadError; an empty table is an empty, successful result.
func (s *Source) ReadAll(ctx context.Context, q Query) ([]assessments.Row, error) {
	query, args, err := q.build(s.dialect)
	if err != nil {
		return nil, errors.NewReadError(q.Table, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewReadError(q.Table, err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.NewReadError(q.Table, err)
	}
	keys := make([]string, len(columns))
	for i, c := range columns {
		keys[i] = s.lower.String(c)
	}

	out := []assessments.Row{}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.NewReadError(q.Table, err)
		}
		row := make(assessments.Row, len(columns))
		for i, v := range values {
			row[keys[i]] = s.decode(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewReadError(q.Table, err)
	}
	return out, nil
}

// decode converts text values from the source charset. Values that fail to decode
// are returned unchanged.
func (s *Source) decode(v any) any {
	switch t := v.(type) {
	case []byte:
		return s.decodeString(string(t))
	case string:
		return s.decodeString(t)
	default:
		return v
	}
}

func (s *Source) decodeString(in string) string {
	if s.decoder == nil {
		return in
	}
	out, err := s.decoder.String(in)
	if err != nil {
		return in
	}
	return out
}

// Close releases the connection. It is safe to call more than once.
func (s *Source) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func quote(ident string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = `"` + p + `"`
	}
	return strings.Join(parts, ".")
}

func placeholder(dialect Dialect, n int) string {
	if dialect == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
