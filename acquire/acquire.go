// Package acquire loads the raw Zillow property table, from a local cache file
// when one exists and from the relational source otherwise.
//
// The cache is written once, after the first successful fetch, and is never
// refreshed. Two processes racing on a cold cache both fetch; the rename in
// WriteCache makes the last writer win with a complete file.
package acquire

import (
	"context"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/YuminosukeSato/zillowkit/pkg/errors"
	"github.com/YuminosukeSato/zillowkit/pkg/log"
)

// Default cache locations.
const (
	DefaultCachePath    = "zillow.csv"
	DefaultPreparedPath = "zillow_prepared.csv"
)

// Acquirer resolves the raw table from its cache or its source.
type Acquirer struct {
	cachePath    string
	preparedPath string
	source       Source
	logger       log.Logger
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithCachePath sets the raw cache file.
func WithCachePath(path string) Option {
	return func(a *Acquirer) { a.cachePath = path }
}

// WithPreparedPath sets the file SavePrepared writes to.
func WithPreparedPath(path string) Option {
	return func(a *Acquirer) { a.preparedPath = path }
}

// WithSource sets the source used on a cache miss.
func WithSource(s Source) Option {
	return func(a *Acquirer) { a.source = s }
}

// WithLogger replaces the component logger.
func WithLogger(l log.Logger) Option {
	return func(a *Acquirer) { a.logger = l }
}

// New returns an Acquirer with the default cache paths and no source.
func New(opts ...Option) *Acquirer {
	a := &Acquirer{
		cachePath:    DefaultCachePath,
		preparedPath: DefaultPreparedPath,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.GetLoggerWithName("acquire")
	}
	return a
}

// CachePath returns the raw cache file.
func (a *Acquirer) CachePath() string { return a.cachePath }

// PreparedPath returns the prepared cache file.
func (a *Acquirer) PreparedPath() string { return a.preparedPath }

// GetZillowData returns the raw table. A present cache is loaded; otherwise
// the source is queried and its result written to the cache before returning.
func (a *Acquirer) GetZillowData(ctx context.Context) (dataframe.DataFrame, error) {
	const op = "GetZillowData"

	ok, err := CacheExists(a.cachePath)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if ok {
		return a.readCache(op)
	}

	if a.source == nil {
		err := errors.NewValueError(op, "cache "+a.cachePath+" is absent and no source is configured")
		return dataframe.DataFrame{}, errors.Mark(err, errors.ErrNoSource)
	}

	a.logger.Debug("cache miss, fetching from source",
		log.OperationKey, log.OperationFetch,
		log.CachePathKey, a.cachePath,
		log.CacheHitKey, false,
	)
	start := time.Now()
	df, err := a.source.Fetch(ctx)
	if err != nil {
		a.logger.Error("fetch failed", err, log.OperationKey, log.OperationFetch)
		return dataframe.DataFrame{}, errors.Wrap(err, op)
	}
	a.logger.Info("fetched from source",
		log.OperationKey, log.OperationFetch,
		log.SamplesKey, df.Nrow(),
		log.FeaturesKey, df.Ncol(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	if err := WriteCache(a.cachePath, df); err != nil {
		return dataframe.DataFrame{}, err
	}
	a.logger.Debug("cache written",
		log.OperationKey, log.OperationWriteCache,
		log.CachePathKey, a.cachePath,
	)
	return df, nil
}

// AcquireZillow checks the cache itself before delegating to GetZillowData.
// Calling it repeatedly returns equal tables.
func (a *Acquirer) AcquireZillow(ctx context.Context) (dataframe.DataFrame, error) {
	ok, err := CacheExists(a.cachePath)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if ok {
		return a.readCache("AcquireZillow")
	}
	return a.GetZillowData(ctx)
}

// SavePrepared writes a prepared table to the prepared cache path. It refuses
// to write over the raw cache.
func (a *Acquirer) SavePrepared(df dataframe.DataFrame) error {
	if samePath(a.preparedPath, a.cachePath) {
		return errors.Wrapf(errors.ErrCacheOverwrite, "SavePrepared: %s", a.preparedPath)
	}
	if err := WriteCache(a.preparedPath, df); err != nil {
		return err
	}
	a.logger.Info("prepared table saved",
		log.OperationKey, log.OperationWriteCache,
		log.CachePathKey, a.preparedPath,
		log.SamplesKey, df.Nrow(),
		log.FeaturesKey, df.Ncol(),
	)
	return nil
}

func (a *Acquirer) readCache(op string) (dataframe.DataFrame, error) {
	df, err := ReadCache(a.cachePath)
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrap(err, op)
	}
	a.logger.Debug("cache hit",
		log.OperationKey, log.OperationReadCache,
		log.CachePathKey, a.cachePath,
		log.CacheHitKey, true,
		log.SamplesKey, df.Nrow(),
		log.FeaturesKey, df.Ncol(),
	)
	return df, nil
}
