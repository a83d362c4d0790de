package predictor

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Kind selects the model family stored in an artifact.
type Kind string

const (
	KindLinear Kind = "linear"
	KindMLP    Kind = "mlp"
)

// Layer is a fully-connected layer, weights stored [out][in].
type Layer struct {
	Weights [][]float64 `json:"weights"`
	Biases  []float64   `json:"biases"`
}

// Normalization holds optional z-score parameters for inputs and output.
type Normalization struct {
	FeatureMean []float64 `json:"feature_mean,omitempty"`
	FeatureStd  []float64 `json:"feature_std,omitempty"`
	OutputMean  float64   `json:"output_mean"`
	OutputStd   float64   `json:"output_std"`
}

// SavedModel is the JSON-serializable model artifact.
type SavedModel struct {
	Schema        Schema         `json:"schema"`
	Kind          Kind           `json:"kind"`
	Intercept     float64        `json:"intercept,omitempty"`
	Coefficients  []float64      `json:"coefficients,omitempty"`
	Layers        []Layer        `json:"layers,omitempty"`
	Normalization *Normalization `json:"normalization,omitempty"`
}

//go:embed default_model.json
var defaultModel []byte

type dense struct {
	w *mat.Dense
	b *mat.VecDense
}

// Model is an immutable, loaded irradiance model. It is safe for concurrent
// use.
type Model struct {
	schema    Schema
	kind      Kind
	intercept float64
	coef      *mat.VecDense
	layers    []dense

	inMean, inStd       []float64
	outMean, outStd     float64
	hasOutputScaling    bool
	hasInputNormalizing bool
}

// Load reads a model artifact from disk.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model artifact: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return m, nil
}

// Default returns the model bundled with the binary.
func Default() (*Model, error) {
	return Parse(defaultModel)
}

// Parse decodes and validates a JSON model artifact.
func Parse(data []byte) (*Model, error) {
	var saved SavedModel
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("decoding model artifact: %w", err)
	}
	return FromSaved(saved)
}

// FromSaved validates an artifact against its schema and builds the model.
func FromSaved(saved SavedModel) (*Model, error) {
	if err := saved.Schema.Validate(); err != nil {
		return nil, err
	}
	n := len(saved.Schema.Features)

	m := &Model{
		schema:    saved.Schema,
		kind:      saved.Kind,
		intercept: saved.Intercept,
	}

	switch saved.Kind {
	case KindLinear:
		if len(saved.Coefficients) != n {
			return nil, fmt.Errorf("linear model has %d coefficients for %d features", len(saved.Coefficients), n)
		}
		m.coef = mat.NewVecDense(n, append([]float64(nil), saved.Coefficients...))

	case KindMLP:
		layers, err := buildLayers(saved.Layers, n)
		if err != nil {
			return nil, err
		}
		m.layers = layers

	default:
		return nil, fmt.Errorf("unsupported model kind %q", saved.Kind)
	}

	if norm := saved.Normalization; norm != nil {
		if len(norm.FeatureMean) > 0 || len(norm.FeatureStd) > 0 {
			if len(norm.FeatureMean) != n || len(norm.FeatureStd) != n {
				return nil, fmt.Errorf("normalization needs %d means and stds", n)
			}
			m.inMean = append([]float64(nil), norm.FeatureMean...)
			m.inStd = append([]float64(nil), norm.FeatureStd...)
			m.hasInputNormalizing = true
		}
		if norm.OutputStd != 0 {
			m.outMean = norm.OutputMean
			m.outStd = norm.OutputStd
			m.hasOutputScaling = true
		}
	}

	return m, nil
}

func buildLayers(layers []Layer, inputs int) ([]dense, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("mlp model has no layers")
	}

	out := make([]dense, len(layers))
	in := inputs
	for i, l := range layers {
		rows := len(l.Weights)
		if rows == 0 || len(l.Biases) != rows {
			return nil, fmt.Errorf("layer %d: %d weight rows, %d biases", i, rows, len(l.Biases))
		}
		flat := make([]float64, 0, rows*in)
		for r, row := range l.Weights {
			if len(row) != in {
				return nil, fmt.Errorf("layer %d row %d: expected %d inputs, got %d", i, r, in, len(row))
			}
			flat = append(flat, row...)
		}
		out[i] = dense{
			w: mat.NewDense(rows, in, flat),
			b: mat.NewVecDense(rows, append([]float64(nil), l.Biases...)),
		}
		in = rows
	}
	if in != 1 {
		return nil, fmt.Errorf("output layer must have a single unit, has %d", in)
	}
	return out, nil
}

func (m *Model) Schema() Schema {
	return m.schema
}

func (m *Model) Kind() Kind {
	return m.kind
}

// Predict runs the model on one feature vector. Negative regression output is
// floored at zero irradiance.
func (m *Model) Predict(features []float64) (float64, error) {
	if err := checkLength(m.schema, features); err != nil {
		return 0, err
	}

	x := mat.NewVecDense(len(features), m.normalize(features))

	var y float64
	switch m.kind {
	case KindLinear:
		y = mat.Dot(m.coef, x) + m.intercept
	case KindMLP:
		y = m.forward(x)
	default:
		return 0, fmt.Errorf("%w: unsupported model kind %q", ErrPrediction, m.kind)
	}

	if m.hasOutputScaling {
		y = y*m.outStd + m.outMean
	}

	y, err := checkFinite(y)
	if err != nil {
		return 0, err
	}
	if y < 0 {
		slog.Debug("negative irradiance prediction floored at zero",
			slog.String("schema", m.schema.Version),
			slog.Float64("prediction", y))
		return 0, nil
	}
	return y, nil
}

// forward applies ReLU on hidden layers and a linear output.
func (m *Model) forward(x *mat.VecDense) float64 {
	cur := x
	last := len(m.layers) - 1
	for i, l := range m.layers {
		rows, _ := l.w.Dims()
		next := mat.NewVecDense(rows, nil)
		next.MulVec(l.w, cur)
		next.AddVec(next, l.b)
		if i < last {
			for j := 0; j < rows; j++ {
				if next.AtVec(j) < 0 {
					next.SetVec(j, 0)
				}
			}
		}
		cur = next
	}
	return cur.AtVec(0)
}

func (m *Model) normalize(features []float64) []float64 {
	out := append([]float64(nil), features...)
	if !m.hasInputNormalizing {
		return out
	}
	for i := range out {
		std := m.inStd[i]
		if std == 0 {
			std = 1
		}
		out[i] = (out[i] - m.inMean[i]) / std
	}
	return out
}
