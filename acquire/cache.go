package acquire

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/zillowkit/pkg/errors"
)

// cacheNaNValues are the cells read back as missing values.
var cacheNaNValues = []string{"", "NA", "NaN", "<nil>"}

// ReadCache loads a cache file written by WriteCache. The first column is the
// row index and is dropped; column types are detected from the text.
func ReadCache(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(err, "ReadCache: %s", path)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(cacheNaNValues),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(df.Err, "ReadCache: parsing %s", path)
	}
	if df.Ncol() == 0 {
		return dataframe.DataFrame{}, errors.NewValueError("ReadCache", path+" has no index column")
	}

	// The index header is empty and gota renames it, so drop it by position.
	df = df.Drop(0)
	if df.Err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(df.Err, "ReadCache: dropping index of %s", path)
	}
	return df, nil
}

// WriteCache writes df as comma separated text with a header row. The first
// column holds the row index 0..n-1 under an empty header, the rest follow in
// table order. Missing values are written as empty cells. Floats always carry
// a decimal point so that they are read back as floats.
//
// The file is written to a temporary sibling and renamed into place, so a
// concurrent reader sees either the old file or the complete new one.
func WriteCache(path string, df dataframe.DataFrame) (err error) {
	if df.Err != nil {
		return errors.Wrap(df.Err, "WriteCache")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "WriteCache: %s", path)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(append([]string{""}, df.Names()...)); err != nil {
		return errors.Wrapf(err, "WriteCache: header of %s", path)
	}

	cols := make([]series.Series, df.Ncol())
	for j := range cols {
		cols[j] = df.Col(df.Names()[j])
	}
	record := make([]string, len(cols)+1)
	for i := 0; i < df.Nrow(); i++ {
		record[0] = strconv.Itoa(i)
		for j, s := range cols {
			record[j+1] = formatCell(s, i)
		}
		if err = w.Write(record); err != nil {
			return errors.Wrapf(err, "WriteCache: row %d of %s", i, path)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return errors.Wrapf(err, "WriteCache: %s", path)
	}

	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "WriteCache: %s", path)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "WriteCache: %s", path)
	}
	return nil
}

// CacheExists reports whether a cache file is present at path.
func CacheExists(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if info.IsDir() {
			return false, errors.NewValueError("CacheExists", path+" is a directory")
		}
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, errors.Wrapf(err, "CacheExists: %s", path)
	}
}

func formatCell(s series.Series, i int) string {
	e := s.Elem(i)
	if e.IsNA() {
		return ""
	}
	if s.Type() == series.Float {
		return formatFloat(e.Float())
	}
	return e.String()
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsInf(v, 0) || strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}

// samePath reports whether a and b name the same file location.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
