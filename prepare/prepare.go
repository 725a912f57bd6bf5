// Package prepare cleans the raw Zillow table into a modelling table and
// encodes the county as indicator columns.
package prepare

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/zillowkit/core/parallel"
	"github.com/YuminosukeSato/zillowkit/pkg/errors"
	"github.com/YuminosukeSato/zillowkit/pkg/log"
)

// Raw source column → prepared column. yearbuilt and taxamount keep their names.
var renames = []struct{ from, to string }{
	{"bedroomcnt", "bedrooms"},
	{"bathroomcnt", "bathrooms"},
	{"calculatedfinishedsquarefeet", "area"},
	{"taxvaluedollarcnt", "taxvalue"},
	{"fips", "county"},
}

// RawColumns are the columns PrepZillow requires.
var RawColumns = []string{
	"bedroomcnt", "bathroomcnt", "calculatedfinishedsquarefeet",
	"taxvaluedollarcnt", "yearbuilt", "taxamount", "fips",
}

// IntColumns are coerced to integers after missing rows are dropped.
var IntColumns = []string{"bedrooms", "area", "taxvalue", "yearbuilt"}

// CountyColumn holds the county label after preparation.
const CountyColumn = "county"

// Counties maps FIPS codes to county labels.
var Counties = map[int]string{
	6037: "LA",
	6059: "Orange",
	6111: "Ventura",
}

// CountyLabels is the encoding vocabulary, in indicator column order.
var CountyLabels = []string{"LA", "Orange", "Ventura"}

// Acquirer supplies the raw table.
type Acquirer interface {
	AcquireZillow(ctx context.Context) (dataframe.DataFrame, error)
}

// PrepZillow renames the raw columns, drops every row with a missing value,
// coerces bedrooms, area, taxvalue and yearbuilt to integers and replaces the
// FIPS code by its county label. A code outside Counties becomes a missing
// label and its row is kept.
func PrepZillow(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	const op = "PrepZillow"
	logger := log.GetLoggerWithName("prepare")

	if df.Err != nil {
		return df, errors.Wrap(df.Err, op)
	}
	present := make(map[string]bool, df.Ncol())
	for _, n := range df.Names() {
		present[n] = true
	}
	for _, c := range RawColumns {
		if !present[c] {
			return df, errors.NewColumnError(op, c, "required column missing")
		}
	}
	logger.Debug("preparing",
		log.OperationKey, log.OperationPrepare,
		log.SamplesKey, df.Nrow(),
		log.FeaturesKey, df.Ncol(),
	)

	out := df.Copy()
	for _, r := range renames {
		out = out.Rename(r.to, r.from)
		if out.Err != nil {
			return df, errors.Wrapf(out.Err, "%s: renaming %s", op, r.from)
		}
	}

	kept := completeRows(out)
	dropped := out.Nrow() - len(kept)
	if dropped > 0 {
		out = out.Subset(kept)
		if out.Err != nil {
			return df, errors.Wrapf(out.Err, "%s: dropping missing rows", op)
		}
	}

	for _, c := range IntColumns {
		ints, err := toInts(c, out.Col(c), kept)
		if err != nil {
			return df, err
		}
		out = out.Mutate(series.New(ints, series.Int, c))
		if out.Err != nil {
			return df, errors.Wrapf(out.Err, "%s: coercing %s", op, c)
		}
	}

	labels, unknown := countyLabels(out.Col(CountyColumn).Float())
	out = out.Mutate(series.New(labels, series.String, CountyColumn))
	if out.Err != nil {
		return df, errors.Wrapf(out.Err, "%s: mapping county", op)
	}
	if unknown > 0 {
		logger.Warn("unmapped county codes",
			log.OperationKey, log.OperationPrepare,
			"county.unmapped", unknown,
		)
	}

	logger.Info("prepared",
		log.OperationKey, log.OperationPrepare,
		log.SamplesKey, out.Nrow(),
		log.RowsDroppedKey, dropped,
	)
	return out, nil
}

// WrangleZillow acquires the raw table and prepares it.
func WrangleZillow(ctx context.Context, a Acquirer) (dataframe.DataFrame, error) {
	raw, err := a.AcquireZillow(ctx)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return PrepZillow(raw)
}

// ZillowCountyDataAsInt replaces the county column by the indicator columns
// county_LA, county_Orange and county_Ventura (0 or 1), appended after the
// other columns. Each label of CountyLabels must appear at least once and no
// other label may appear. A row with a missing county gets 0 in every
// indicator and a warning is emitted.
func ZillowCountyDataAsInt(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	const op = "ZillowCountyDataAsInt"

	if df.Err != nil {
		return df, errors.Wrap(df.Err, op)
	}
	idx := -1
	for i, n := range df.Names() {
		if n == CountyColumn {
			idx = i
		}
	}
	if idx < 0 {
		return df, errors.NewColumnError(op, CountyColumn, "required column missing")
	}
	if typ := df.Types()[idx]; typ != series.String {
		return df, errors.NewColumnError(op, CountyColumn, "column is not a label column (type "+string(typ)+")")
	}

	pos := make(map[string]int, len(CountyLabels))
	for j, l := range CountyLabels {
		pos[l] = j
	}

	county := df.Col(CountyColumn)
	n := county.Len()
	indicators := make([][]int, len(CountyLabels))
	for j := range indicators {
		indicators[j] = make([]int, n)
	}
	seen := make(map[string]bool, len(CountyLabels))
	missing := 0
	for i := 0; i < n; i++ {
		e := county.Elem(i)
		if e.IsNA() {
			missing++
			continue
		}
		label := e.String()
		j, ok := pos[label]
		if !ok {
			return df, errors.NewSchemaError(op, CountyColumn, "unexpected label", CountyLabels, []string{label})
		}
		indicators[j][i] = 1
		seen[label] = true
	}
	if len(seen) != len(CountyLabels) {
		got := make([]string, 0, len(seen))
		for l := range seen {
			got = append(got, l)
		}
		sort.Strings(got)
		return df, errors.NewSchemaError(op, CountyColumn, "label never appears", CountyLabels, got)
	}

	out := df.Drop(CountyColumn)
	for j, l := range CountyLabels {
		out = out.Mutate(series.New(indicators[j], series.Int, CountyColumn+"_"+l))
		if out.Err != nil {
			return df, errors.Wrapf(out.Err, "%s: adding %s", op, l)
		}
	}

	if missing > 0 {
		errors.Warn(errors.NewDataConversionWarning(CountyColumn, "indicator columns",
			fmt.Sprintf("%d rows with missing county encoded as all zeros", missing)))
	}

	log.GetLoggerWithName("prepare").Debug("county encoded",
		log.OperationKey, log.OperationEncode,
		log.SamplesKey, n,
		log.ColumnsKey, CountyLabels,
	)
	return out, nil
}

// completeRows returns the positions of the rows without missing values.
func completeRows(df dataframe.DataFrame) []int {
	cols := make([]series.Series, df.Ncol())
	for j, n := range df.Names() {
		cols[j] = df.Col(n)
	}

	complete := make([]bool, df.Nrow())
	parallel.ParallelizeWithThreshold(df.Nrow(), parallel.DefaultThreshold, func(start, end int) {
	rows:
		for i := start; i < end; i++ {
			for _, s := range cols {
				if s.Elem(i).IsNA() {
					continue rows
				}
			}
			complete[i] = true
		}
	})

	kept := make([]int, 0, len(complete))
	for i, ok := range complete {
		if ok {
			kept = append(kept, i)
		}
	}
	return kept
}

// toInts converts s to integers. rows maps positions in s to row positions
// of the input table, for error reporting.
func toInts(column string, s series.Series, rows []int) ([]int, error) {
	vals := s.Float()
	out := make([]int, len(vals))
	for i, v := range vals {
		if !errors.IsIntegral(v) {
			return nil, errors.NewTypeConversionError(column, rows[i], v, "int")
		}
		out[i] = int(v)
	}
	return out, nil
}

// countyLabels maps FIPS codes to labels; codes outside Counties become
// missing ("NaN" is gota's missing string).
func countyLabels(codes []float64) ([]string, int) {
	out := make([]string, len(codes))
	unknown := 0
	for i, c := range codes {
		label, ok := "", false
		if errors.IsIntegral(c) {
			label, ok = Counties[int(c)]
		}
		if !ok {
			out[i] = "NaN"
			unknown++
			continue
		}
		out[i] = label
	}
	return out, unknown
}
