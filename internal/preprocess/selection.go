package preprocess

import (
	"fmt"
	"sort"

	"github.com/staysense/cancelcast/internal/boost"
	"github.com/staysense/cancelcast/internal/dataset"
	"github.com/staysense/cancelcast/pkg/errors"
	"github.com/staysense/cancelcast/pkg/log"
)

// selectorParams is the fixed configuration of the auxiliary ranking model.
// It only has to order features, not generalize.
func selectorParams(seed int64) boost.Params {
	p := boost.DefaultParams()
	p.NumIterations = 50
	p.NumLeaves = 15
	p.MaxDepth = 5
	p.Seed = seed
	return p
}

// SelectFeatures fits an auxiliary gradient-boosting model on the balanced
// training table and returns the n columns with the highest gain importance,
// in descending importance order. Ties keep the original column order.
func SelectFeatures(train *dataset.Table, labelColumn string, n int, seed int64) ([]string, error) {
	available := train.NumCols() - 1
	if n < 1 || n > available {
		return nil, errors.NewValueError("SelectFeatures",
			fmt.Sprintf("feature count %d outside [1, %d]", n, available))
	}

	x, y, featureNames, err := train.SplitFeaturesLabel(labelColumn)
	if err != nil {
		return nil, err
	}

	clf := boost.NewClassifier(selectorParams(seed))
	if err := clf.Fit(x, y); err != nil {
		return nil, errors.Wrap(err, "SelectFeatures: ranking fit")
	}
	importance, err := clf.FeatureImportance(boost.ImportanceGain)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(featureNames))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return importance[order[a]] > importance[order[b]]
	})

	selected := make([]string, n)
	logger := log.GetLoggerWithName("preprocess.selection")
	for i := 0; i < n; i++ {
		selected[i] = featureNames[order[i]]
		logger.Debug("feature ranked",
			"rank", i,
			"column", selected[i],
			"gain_importance", importance[order[i]])
	}
	return selected, nil
}
