package schema

import (
	"context"
	"fmt"
	"sync"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/capture"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/storage"
)

// Contract binds a capture file and an optional reference dataset to the
// schema inferred from them. The schema is computed on first access and
// cached, including a failure.
type Contract struct {
	store     storage.ObjectStore
	capture   storage.Location
	reference *storage.Location

	once   sync.Once
	schema *Schema
	err    error
}

// NewContract creates a contract. reference may be nil.
func NewContract(store storage.ObjectStore, captureFile storage.Location, reference *storage.Location) *Contract {
	return &Contract{store: store, capture: captureFile, reference: reference}
}

// Capture returns the capture file the contract was built from.
func (c *Contract) Capture() storage.Location { return c.capture }

// Reference returns the reference dataset, or nil.
func (c *Contract) Reference() *storage.Location { return c.reference }

// Schema returns the inferred schema.
func (c *Contract) Schema(ctx context.Context) (*Schema, error) {
	c.once.Do(func() {
		c.schema, c.err = c.infer(ctx)
	})
	return c.schema, c.err
}

func (c *Contract) infer(ctx context.Context) (*Schema, error) {
	line, err := storage.FirstLine(ctx, c.store, c.capture.Bucket, c.capture.Key)
	if err != nil {
		return nil, fmt.Errorf("read capture sample %s: %w", c.capture, err)
	}
	sample, err := capture.Decode(line)
	if err != nil {
		return nil, fmt.Errorf("decode capture sample %s: %w", c.capture, err)
	}

	var header []string
	if c.reference != nil {
		first, err := storage.FirstLine(ctx, c.store, c.reference.Bucket, c.reference.Key)
		if err != nil {
			return nil, fmt.Errorf("read reference header %s: %w", c.reference, err)
		}
		if header, err = ParseHeader(first); err != nil {
			return nil, err
		}
	}
	return Infer(sample, header)
}
