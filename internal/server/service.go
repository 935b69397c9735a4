// Package server implements the inference HTTP service: a booking form and
// a prediction endpoint backed by the persisted model and encoders.
package server

import (
	"embed"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/staysense/cancelcast/internal/boost"
	"github.com/staysense/cancelcast/internal/preprocess"
	"github.com/staysense/cancelcast/pkg/errors"
	"github.com/staysense/cancelcast/pkg/log"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	labelCancel = "likely to cancel"
	labelHonor  = "likely to honor the booking"
)

// Field describes one form input derived from the persisted feature schema.
// Categorical fields carry the encoder's known classes as options.
type Field struct {
	Name    string
	Options []string
}

// Service owns the model and preprocessing artifact for the lifetime of the
// process. Both are loaded exactly once at construction; requests only read
// them, so no locking is needed.
type Service struct {
	model    *boost.Model
	artifact *preprocess.Artifact
	fields   []Field
	tmpl     *template.Template
	validate *validator.Validate
	logger   log.Logger
}

// NewService loads the model and encoder artifacts. A missing or corrupt
// artifact fails construction so the process never serves without a model.
func NewService(modelPath, artifactPath string) (*Service, error) {
	model, err := boost.LoadModel(modelPath)
	if err != nil {
		return nil, err
	}
	artifact, err := preprocess.LoadArtifact(artifactPath)
	if err != nil {
		return nil, err
	}
	if model.NumFeatures != len(artifact.FeatureColumns) {
		return nil, errors.NewArtifactError("NewService", artifactPath,
			errors.NewDimensionError("NewService", model.NumFeatures, len(artifact.FeatureColumns), 1))
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "server: parse templates")
	}

	fields := make([]Field, 0, len(artifact.FeatureColumns))
	for _, col := range artifact.FeatureColumns {
		f := Field{Name: col}
		if enc, ok := artifact.Encoder(col); ok {
			f.Options = enc.Classes
		}
		fields = append(fields, f)
	}

	logger := log.GetLoggerWithName("server")
	logger.Info("service ready",
		"model", modelPath,
		"encoders", artifactPath,
		log.FeaturesKey, model.NumFeatures)
	return &Service{
		model:    model,
		artifact: artifact,
		fields:   fields,
		tmpl:     tmpl,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}, nil
}

// Router builds the HTTP routes.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/", s.handleForm)
	r.Post("/predict", s.handlePredict)
	return r
}

type formPage struct {
	Fields      []Field
	Result      string
	Probability string
	Error       string
}

func (s *Service) handleForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, formPage{Fields: s.fields})
}

type predictRequest struct {
	Fields map[string]string `validate:"required,dive,required"`
}

func (s *Service) handlePredict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, formPage{Fields: s.fields, Error: "malformed form data"})
		return
	}

	req := predictRequest{Fields: make(map[string]string, len(s.fields))}
	for _, f := range s.fields {
		if v := r.PostFormValue(f.Name); v != "" {
			req.Fields[f.Name] = v
		}
	}
	if err := s.validate.Struct(req); err != nil || len(req.Fields) != len(s.fields) {
		s.render(w, http.StatusBadRequest, formPage{Fields: s.fields, Error: "all booking fields are required"})
		return
	}

	vector, err := s.featureVector(req.Fields)
	if err != nil {
		s.logger.Warn("rejected prediction request", log.ErrKey, err)
		s.render(w, http.StatusBadRequest, formPage{Fields: s.fields, Error: err.Error()})
		return
	}

	prob, err := s.model.PredictSingle(vector)
	if err != nil {
		s.logger.Error("prediction failed", log.ErrKey, err)
		http.Error(w, "prediction failed", http.StatusInternalServerError)
		return
	}

	result := labelHonor
	if prob >= 0.5 {
		result = labelCancel
	}
	s.logger.Info("prediction served",
		"result", result,
		"probability", prob)
	s.render(w, http.StatusOK, formPage{
		Fields:      s.fields,
		Result:      result,
		Probability: strconv.FormatFloat(prob, 'f', 3, 64),
	})
}

// featureVector applies the persisted encoders and transformations to the
// submitted values, in the model's column order.
func (s *Service) featureVector(fields map[string]string) ([]float64, error) {
	vector := make([]float64, len(s.artifact.FeatureColumns))
	for i, col := range s.artifact.FeatureColumns {
		raw := fields[col]

		if enc, ok := s.artifact.Encoder(col); ok {
			code, seen := enc.Encode(raw)
			if !seen {
				s.logger.Warn("unseen category mapped to unknown bucket",
					"column", col,
					"value", raw)
			}
			vector[i] = float64(code)
			continue
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.NewValueError("featureVector", col+" must be numeric")
		}
		if s.artifact.IsSkewCorrected(col) {
			if v < -1 {
				return nil, errors.NewValueError("featureVector", col+" is out of range")
			}
			v = math.Log1p(v)
		}
		vector[i] = v
	}
	return vector, nil
}

func (s *Service) render(w http.ResponseWriter, status int, page formPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", page); err != nil {
		s.logger.Error("template render failed", log.ErrKey, err)
	}
}
