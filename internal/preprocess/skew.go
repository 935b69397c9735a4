package preprocess

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/staysense/cancelcast/internal/dataset"
	"github.com/staysense/cancelcast/pkg/errors"
	"github.com/staysense/cancelcast/pkg/log"
)

// Skewness returns the sample skewness of values.
func Skewness(values []float64) float64 {
	if len(values) < 3 {
		return 0
	}
	return stat.Skew(values, nil)
}

// correctSkew measures skewness of each candidate column on the training
// split and applies log1p to the columns above the threshold, in both
// splits. The column set is decided on train alone so test follows the same
// transformation. Returns the corrected column names.
func correctSkew(train, test *dataset.Table, columns []string, threshold float64) ([]string, error) {
	logger := log.GetLoggerWithName("preprocess.skew")
	corrected := make([]string, 0, len(columns))

	for _, col := range columns {
		values, err := train.NumericColumn(col)
		if err != nil {
			return nil, err
		}
		skew := Skewness(values)
		if skew <= threshold {
			continue
		}

		if err := applyLog1p(train, col); err != nil {
			return nil, err
		}
		if err := applyLog1p(test, col); err != nil {
			return nil, err
		}
		corrected = append(corrected, col)

		after, err := train.NumericColumn(col)
		if err != nil {
			return nil, err
		}
		logger.Info("skew corrected",
			"column", col,
			"skew_before", skew,
			"skew_after", Skewness(after))
	}
	return corrected, nil
}

// applyLog1p replaces a column with log(1+x). Values below -1 have no real
// logarithm and are a schema problem.
func applyLog1p(t *dataset.Table, column string) error {
	values, err := t.NumericColumn(column)
	if err != nil {
		return err
	}
	for i, v := range values {
		if v < -1 {
			return errors.NewSchemaError("applyLog1p", column, "value below -1, log1p undefined")
		}
		values[i] = math.Log1p(v)
	}
	return t.SetNumericColumn(column, values)
}
