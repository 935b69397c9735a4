package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/staysense/cancelcast/internal/boost"
	"github.com/staysense/cancelcast/internal/preprocess"
	"github.com/staysense/cancelcast/pkg/errors"
)

// writeArtifacts trains a tiny model whose positive class follows lead_time
// and persists it together with a matching encoder artifact.
func writeArtifacts(t *testing.T) (modelPath, artifactPath string) {
	t.Helper()
	dir := t.TempDir()

	n := 200
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		leadTime := float64(i) / float64(n) * 300
		X.Set(i, 0, leadTime)
		X.Set(i, 1, float64(i%3)) // encoded market_segment
		X.Set(i, 2, float64(1+i%6))
		if leadTime > 150 {
			y.Set(i, 0, 1)
		}
	}

	trainer := boost.NewTrainer(boost.Params{
		NumIterations:   15,
		NumLeaves:       7,
		MaxDepth:        3,
		MinChildSamples: 5,
		Seed:            1,
	})
	require.NoError(t, trainer.Fit(X, y))
	model := trainer.Model()
	model.FeatureNames = []string{"lead_time", "market_segment", "total_nights"}

	modelPath = filepath.Join(dir, "models", "model.json")
	require.NoError(t, model.Save(modelPath))

	enc := preprocess.NewLabelEncoder("market_segment")
	require.NoError(t, enc.Fit([]string{"corporate", "direct", "online"}))
	artifact := &preprocess.Artifact{
		LabelColumn:    "booking_status",
		Encoders:       []*preprocess.LabelEncoder{enc},
		FeatureColumns: []string{"lead_time", "market_segment", "total_nights"},
	}
	artifactPath = filepath.Join(dir, "processed", "encoders.json")
	require.NoError(t, artifact.Save(artifactPath))
	return modelPath, artifactPath
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	modelPath, artifactPath := writeArtifacts(t)
	svc, err := NewService(modelPath, artifactPath)
	require.NoError(t, err)
	return svc
}

func postForm(t *testing.T, svc *Service, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)
	return rec
}

func TestServiceFailFastOnMissingModel(t *testing.T) {
	_, artifactPath := writeArtifacts(t)
	_, err := NewService(filepath.Join(t.TempDir(), "missing.json"), artifactPath)
	var ae *errors.ArtifactError
	require.ErrorAs(t, err, &ae)
}

func TestServiceFailFastOnMissingEncoders(t *testing.T) {
	modelPath, _ := writeArtifacts(t)
	_, err := NewService(modelPath, filepath.Join(t.TempDir(), "missing.json"))
	var ae *errors.ArtifactError
	require.ErrorAs(t, err, &ae)
}

func TestFormRendersAllFields(t *testing.T) {
	svc := newTestService(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, field := range []string{"lead_time", "market_segment", "total_nights"} {
		assert.Contains(t, body, field)
	}
	// Categorical field renders its known classes.
	assert.Contains(t, body, "corporate")
	assert.Contains(t, body, "online")
}

func TestPredictCancellation(t *testing.T) {
	svc := newTestService(t)

	rec := postForm(t, svc, url.Values{
		"lead_time":      {"280"},
		"market_segment": {"online"},
		"total_nights":   {"2"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), labelCancel)
}

func TestPredictHonoredBooking(t *testing.T) {
	svc := newTestService(t)

	rec := postForm(t, svc, url.Values{
		"lead_time":      {"5"},
		"market_segment": {"corporate"},
		"total_nights":   {"3"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), labelHonor)
}

func TestPredictUnseenCategoryStillAnswers(t *testing.T) {
	svc := newTestService(t)

	rec := postForm(t, svc, url.Values{
		"lead_time":      {"10"},
		"market_segment": {"aviation"},
		"total_nights":   {"1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, labelCancel) || strings.Contains(body, labelHonor))
}

func TestPredictRejectsMissingField(t *testing.T) {
	svc := newTestService(t)

	rec := postForm(t, svc, url.Values{
		"lead_time":      {"10"},
		"market_segment": {"online"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictRejectsNonNumericValue(t *testing.T) {
	svc := newTestService(t)

	rec := postForm(t, svc, url.Values{
		"lead_time":      {"soon"},
		"market_segment": {"online"},
		"total_nights":   {"2"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "lead_time")
}

func TestPredictRejectsMalformedBody(t *testing.T) {
	svc := newTestService(t)

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	svc.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
