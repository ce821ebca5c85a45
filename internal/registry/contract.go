package registry

import (
	"fmt"
	"maps"
	"strings"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/dtype"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/schema"
)

const (
	signatureName = "predict"
	// MetadataOriginalName records the model name before normalization.
	MetadataOriginalName = "original_model_name"
)

// Dim is one named dimension of a feature shape.
type Dim struct {
	Size int64  `json:"size"`
	Name string `json:"name"`
}

// Shape is a feature shape. No dimensions means scalar.
type Shape struct {
	Dim         []Dim `json:"dim"`
	UnknownRank bool  `json:"unknownRank"`
}

// Feature is one contract input or output.
type Feature struct {
	Name    string `json:"name"`
	Dtype   string `json:"dtype"`
	Profile string `json:"profile"`
	Shape   Shape  `json:"shape"`
}

// Signature is the single predict signature of an external model.
type Signature struct {
	SignatureName string    `json:"signatureName"`
	Inputs        []Feature `json:"inputs"`
	Outputs       []Feature `json:"outputs"`
}

// Contract is the registered model interface.
type Contract struct {
	ModelName string    `json:"modelName"`
	Predict   Signature `json:"predict"`
}

// RegistrationRequest is the body of an external model registration.
type RegistrationRequest struct {
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
	Contract Contract          `json:"contract"`
}

// NormalizeName converts a model name into the form the registry accepts.
func NormalizeName(name string) string {
	return strings.ToLower(name)
}

// BuildRegistration derives a registration body from a schema. The
// registered name is normalized and the original name is kept in metadata.
// metadata is not modified.
func BuildRegistration(name string, s *schema.Schema, metadata map[string]string) (*RegistrationRequest, error) {
	inputs, err := features(s.Inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := features(s.Outputs)
	if err != nil {
		return nil, err
	}

	md := make(map[string]string, len(metadata)+1)
	maps.Copy(md, metadata)
	md[MetadataOriginalName] = name

	normalized := NormalizeName(name)
	return &RegistrationRequest{
		Name:     normalized,
		Metadata: md,
		Contract: Contract{
			ModelName: normalized,
			Predict: Signature{
				SignatureName: signatureName,
				Inputs:        inputs,
				Outputs:       outputs,
			},
		},
	}, nil
}

func features(cols []*schema.Column) ([]Feature, error) {
	out := make([]Feature, 0, len(cols))
	for _, col := range cols {
		if col.WireType == "" {
			return nil, fmt.Errorf("%w: column %q has no wire type for %q",
				ErrModelRegistrationFailed, col.Name, col.NativeType)
		}
		profile, ok := dtype.Profile(col.NativeType)
		if !ok {
			profile = dtype.ProfileNone
		}
		dims := make([]Dim, 0, len(col.Shape))
		for i, size := range col.Shape {
			dims = append(dims, Dim{Size: int64(size), Name: fmt.Sprintf("%s_%d", col.Name, i)})
		}
		out = append(out, Feature{
			Name:    col.Name,
			Dtype:   col.WireType,
			Profile: profile,
			Shape:   Shape{Dim: dims, UnknownRank: false},
		})
	}
	return out, nil
}
