// Package schema infers a typed input/output description from one capture
// sample and recovers human-readable column names from a reference dataset.
package schema

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/capture"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/dtype"
)

// ErrUnsupportedEncoding is returned when a capture sample is not CSV.
var ErrUnsupportedEncoding = errors.New("unsupported capture encoding")

const (
	inputPrefix  = "input"
	outputPrefix = "output"
)

// Column describes one input or output column.
type Column struct {
	Name       string `json:"name" yaml:"name"`
	NativeType string `json:"nativeType" yaml:"nativeType"`
	// WireType is empty when NativeType has no wire mapping.
	WireType string `json:"wireType,omitempty" yaml:"wireType,omitempty"`
	// Shape is empty for scalars.
	Shape []int `json:"shape" yaml:"shape,flow"`
}

// Schema is the ordered list of input and output columns. Order is
// significant: values and header labels bind by position.
type Schema struct {
	Inputs  []*Column `json:"inputs" yaml:"inputs"`
	Outputs []*Column `json:"outputs" yaml:"outputs"`
}

// Infer builds a schema from a capture sample. When header is non-nil the
// synthetic names are replaced by Reconcile.
func Infer(sample *capture.Record, header []string) (*Schema, error) {
	in, out := sample.Sample()
	if in.Encoding != capture.EncodingCSV {
		return nil, fmt.Errorf("%w: input is %q", ErrUnsupportedEncoding, in.Encoding)
	}
	if out.Encoding != capture.EncodingCSV {
		return nil, fmt.Errorf("%w: output is %q", ErrUnsupportedEncoding, out.Encoding)
	}

	s := &Schema{
		Inputs:  InferColumns(inputPrefix, in.Data),
		Outputs: InferColumns(outputPrefix, out.Data),
	}
	if header != nil {
		Reconcile(s, header)
	}
	return s, nil
}

// InferColumns reads row as a single headerless CSV record and types every
// field. Names are {prefix}_{index}.
func InferColumns(prefix, row string) []*Column {
	fields := splitRow(row)
	cols := make([]*Column, 0, len(fields))
	for i, field := range fields {
		native := InferNativeType(field)
		wire, _ := dtype.WireType(native)
		cols = append(cols, &Column{
			Name:       fmt.Sprintf("%s_%d", prefix, i),
			NativeType: native,
			WireType:   wire,
		})
	}
	return cols
}

// InferNativeType picks the narrowest of int64, float64 and string that
// accepts value. A single sample is lossy: a float column whose sample
// happens to be whole is typed int64.
func InferNativeType(value string) string {
	v := strings.TrimSpace(value)
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return dtype.NativeInt64
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return dtype.NativeFloat64
	}
	return dtype.NativeString
}

// Reconcile renames columns from the reference header right to left: the
// concatenation inputs+outputs is walked from its end alongside the header
// from its end, so the last label names the last output. The shorter side
// bounds the walk and the remaining columns keep their synthetic names. It
// returns the number of renamed columns.
//
// This intentionally differs from the legacy integration, which walked
// reversed inputs before reversed outputs and so gave a trailing label to
// the last input rather than the last output.
func Reconcile(s *Schema, header []string) int {
	cols := make([]*Column, 0, len(s.Inputs)+len(s.Outputs))
	cols = append(cols, s.Inputs...)
	cols = append(cols, s.Outputs...)

	n := min(len(cols), len(header))
	for i := 1; i <= n; i++ {
		cols[len(cols)-i].Name = header[len(header)-i]
	}
	return n
}

// ParseHeader reads the first CSV record of a reference dataset.
func ParseHeader(line []byte) ([]string, error) {
	r := csv.NewReader(strings.NewReader(string(line)))
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("parse reference header: %w", err)
	}
	return header, nil
}

func splitRow(row string) []string {
	if strings.TrimSpace(row) == "" {
		return nil
	}
	r := csv.NewReader(strings.NewReader(row))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	fields, err := r.Read()
	if err != nil {
		return strings.Split(row, ",")
	}
	return fields
}
