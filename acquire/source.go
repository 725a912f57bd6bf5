package acquire

import (
	"context"
	"database/sql"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/YuminosukeSato/zillowkit/config"
	"github.com/YuminosukeSato/zillowkit/pkg/errors"
)

// ZillowQuery selects the single family residential properties of 2017.
const ZillowQuery = `SELECT bedroomcnt, bathroomcnt, calculatedfinishedsquarefeet, taxvaluedollarcnt, yearbuilt, taxamount, fips
FROM properties_2017
WHERE propertylandusetypeid = 261`

// Source is the remote relational source of raw property rows.
type Source interface {
	Fetch(ctx context.Context) (dataframe.DataFrame, error)
}

// SQLSource runs ZillowQuery against a database/sql connection. Every selected
// column becomes a Float column; SQL NULL becomes NaN.
type SQLSource struct {
	db    *sql.DB
	query string
}

// NewSQLSource returns a source reading from db.
func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{db: db, query: ZillowQuery}
}

// Fetch implements Source.
func (s *SQLSource) Fetch(ctx context.Context) (dataframe.DataFrame, error) {
	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrap(err, "SQLSource.Fetch: query")
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrap(err, "SQLSource.Fetch: columns")
	}

	values := make([][]float64, len(names))
	for i := range values {
		values[i] = make([]float64, 0)
	}
	scanned := make([]sql.NullFloat64, len(names))
	dest := make([]any, len(names))
	for i := range scanned {
		dest[i] = &scanned[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return dataframe.DataFrame{}, errors.Wrapf(err, "SQLSource.Fetch: scanning row %d", len(values[0]))
		}
		for i, v := range scanned {
			if v.Valid {
				values[i] = append(values[i], v.Float64)
			} else {
				values[i] = append(values[i], math.NaN())
			}
		}
	}
	if err := rows.Err(); err != nil {
		return dataframe.DataFrame{}, errors.Wrap(err, "SQLSource.Fetch: rows")
	}

	cols := make([]series.Series, len(names))
	for i, name := range names {
		cols[i] = series.New(values[i], series.Float, name)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return dataframe.DataFrame{}, errors.Wrap(df.Err, "SQLSource.Fetch: building table")
	}
	return df, nil
}

// ConfigSource opens a connection from its configuration for each Fetch and
// closes it afterwards, so a warm cache never touches the database.
type ConfigSource struct {
	cfg config.DatabaseConfig
}

// NewConfigSource returns a source connecting with cfg.
func NewConfigSource(cfg config.DatabaseConfig) *ConfigSource {
	return &ConfigSource{cfg: cfg}
}

// Fetch implements Source.
func (s *ConfigSource) Fetch(ctx context.Context) (dataframe.DataFrame, error) {
	db, err := OpenDB(ctx, s.cfg)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer db.Close()
	return NewSQLSource(db).Fetch(ctx)
}

// DSN returns the data source name for cfg. For mysql it is assembled by the
// driver from the user, password, host and database name.
func DSN(cfg config.DatabaseConfig) string {
	if cfg.Driver == config.DriverSQLite {
		return cfg.Path
	}
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Host
	mc.DBName = cfg.Name
	return mc.FormatDSN()
}

// OpenDB validates cfg, opens the database and checks the connection.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, DSN(cfg))
	if err != nil {
		return nil, errors.Wrapf(err, "OpenDB: %s", cfg.Driver)
	}
	if cfg.Driver == config.DriverSQLite {
		// every sqlite connection to ":memory:" is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "OpenDB: connecting to %s", cfg.Driver)
	}
	return db, nil
}
