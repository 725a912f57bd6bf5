package acquire

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/zillowkit/pkg/errors"
	"github.com/YuminosukeSato/zillowkit/pkg/log"
)

type countingSource struct {
	df    dataframe.DataFrame
	err   error
	calls int
}

func (s *countingSource) Fetch(context.Context) (dataframe.DataFrame, error) {
	s.calls++
	return s.df, s.err
}

func rawFrame() dataframe.DataFrame {
	return dataframe.New(
		series.New([]float64{3, 4}, series.Float, "bedroomcnt"),
		series.New([]float64{2, 2.5}, series.Float, "bathroomcnt"),
		series.New([]float64{6037, 6059}, series.Float, "fips"),
	)
}

func newTestAcquirer(t *testing.T, src Source) (*Acquirer, *log.TestLogger) {
	t.Helper()
	logger, _ := log.NewTestLogger(log.LevelDebug)
	dir := t.TempDir()
	opts := []Option{
		WithCachePath(filepath.Join(dir, "zillow.csv")),
		WithPreparedPath(filepath.Join(dir, "zillow_prepared.csv")),
		WithLogger(logger),
	}
	if src != nil {
		opts = append(opts, WithSource(src))
	}
	return New(opts...), logger
}

func TestGetZillowDataFetchesOnceThenUsesCache(t *testing.T) {
	src := &countingSource{df: rawFrame()}
	a, logger := newTestAcquirer(t, src)
	ctx := context.Background()

	first, err := a.GetZillowData(ctx)
	if err != nil {
		t.Fatalf("GetZillowData() error = %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("source calls = %d, want 1", src.calls)
	}
	if ok, _ := CacheExists(a.CachePath()); !ok {
		t.Fatal("cache not written after fetch")
	}
	if !logger.ContainsMessage("fetched from source") {
		t.Error("fetch not logged")
	}

	second, err := a.GetZillowData(ctx)
	if err != nil {
		t.Fatalf("GetZillowData() second call error = %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d after cached call, want 1", src.calls)
	}
	if !logger.ContainsMessage("cache hit") {
		t.Error("cache hit not logged")
	}
	assertFramesEqual(t, first, second)
}

func TestAcquireZillowIdempotent(t *testing.T) {
	src := &countingSource{df: rawFrame()}
	a, _ := newTestAcquirer(t, src)
	ctx := context.Background()

	first, err := a.AcquireZillow(ctx)
	if err != nil {
		t.Fatalf("AcquireZillow() error = %v", err)
	}
	second, err := a.AcquireZillow(ctx)
	if err != nil {
		t.Fatalf("AcquireZillow() error = %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
	assertFramesEqual(t, first, second)
}

func TestGetZillowDataCacheOnly(t *testing.T) {
	a, _ := newTestAcquirer(t, nil)
	if err := WriteCache(a.CachePath(), rawFrame()); err != nil {
		t.Fatal(err)
	}

	df, err := a.GetZillowData(context.Background())
	if err != nil {
		t.Fatalf("GetZillowData() error = %v", err)
	}
	if df.Nrow() != 2 || df.Ncol() != 3 {
		t.Errorf("dims = %dx%d, want 2x3", df.Nrow(), df.Ncol())
	}
}

func TestGetZillowDataErrors(t *testing.T) {
	t.Run("no cache and no source", func(t *testing.T) {
		a, _ := newTestAcquirer(t, nil)
		_, err := a.GetZillowData(context.Background())
		var ve *errors.ValueError
		if !errors.As(err, &ve) || !errors.Is(err, errors.ErrNoSource) {
			t.Errorf("error = %v, want ValueError marked ErrNoSource", err)
		}
	})

	t.Run("source failure propagates", func(t *testing.T) {
		cause := errors.New("connection refused")
		a, _ := newTestAcquirer(t, &countingSource{err: cause})
		_, err := a.GetZillowData(context.Background())
		if !errors.Is(err, cause) {
			t.Errorf("error = %v, want wrapped cause", err)
		}
		if ok, _ := CacheExists(a.CachePath()); ok {
			t.Error("cache written after failed fetch")
		}
	})

	t.Run("cache write failure propagates", func(t *testing.T) {
		logger, _ := log.NewTestLogger(log.LevelDebug)
		a := New(
			WithCachePath(filepath.Join(t.TempDir(), "missing-dir", "zillow.csv")),
			WithSource(&countingSource{df: rawFrame()}),
			WithLogger(logger),
		)
		if _, err := a.GetZillowData(context.Background()); err == nil {
			t.Error("expected error writing into a missing directory")
		}
	})
}

func TestSavePrepared(t *testing.T) {
	a, _ := newTestAcquirer(t, &countingSource{df: rawFrame()})
	if _, err := a.AcquireZillow(context.Background()); err != nil {
		t.Fatal(err)
	}
	rawBefore, err := os.ReadFile(a.CachePath())
	if err != nil {
		t.Fatal(err)
	}

	prepared := dataframe.New(series.New([]int{3, 4}, series.Int, "bedrooms"))
	if err := a.SavePrepared(prepared); err != nil {
		t.Fatalf("SavePrepared() error = %v", err)
	}

	rawAfter, err := os.ReadFile(a.CachePath())
	if err != nil {
		t.Fatal(err)
	}
	if string(rawBefore) != string(rawAfter) {
		t.Error("raw cache changed by SavePrepared")
	}
	got, err := ReadCache(a.PreparedPath())
	if err != nil {
		t.Fatal(err)
	}
	if got.Names()[0] != "bedrooms" {
		t.Errorf("prepared names = %v", got.Names())
	}
}

func TestSavePreparedRefusesRawPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zillow.csv")
	logger, _ := log.NewTestLogger(log.LevelDebug)
	a := New(WithCachePath(path), WithPreparedPath(path), WithLogger(logger))

	err := a.SavePrepared(rawFrame())
	if !errors.Is(err, errors.ErrCacheOverwrite) {
		t.Errorf("SavePrepared() error = %v, want ErrCacheOverwrite", err)
	}
	if ok, _ := CacheExists(path); ok {
		t.Error("file written despite refusal")
	}
}

func TestNewDefaults(t *testing.T) {
	a := New()
	if a.CachePath() != DefaultCachePath || a.PreparedPath() != DefaultPreparedPath {
		t.Errorf("paths = %q, %q", a.CachePath(), a.PreparedPath())
	}
}

func assertFramesEqual(t *testing.T, a, b dataframe.DataFrame) {
	t.Helper()
	if a.Nrow() != b.Nrow() || a.Ncol() != b.Ncol() {
		t.Fatalf("dims %dx%d != %dx%d", a.Nrow(), a.Ncol(), b.Nrow(), b.Ncol())
	}
	for j, name := range a.Names() {
		if b.Names()[j] != name {
			t.Fatalf("column %d: %s != %s", j, name, b.Names()[j])
		}
		av, bv := a.Col(name).Records(), b.Col(name).Records()
		for i := range av {
			if av[i] != bv[i] {
				t.Errorf("%s[%d]: %s != %s", name, i, av[i], bv[i])
			}
		}
	}
}
