// Package reference locates the reference dataset of a model.
package reference

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/storage"
)

// ErrDataNotFound is returned when no CSV file exists for a model.
var ErrDataNotFound = errors.New("reference data not found")

// Lister lists objects under a prefix.
type Lister interface {
	ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error)
}

// Selector picks the largest CSV file under {prefix}/{model}.
type Selector struct {
	store  Lister
	logger logrus.FieldLogger
}

// NewSelector creates a Selector.
func NewSelector(store Lister, logger logrus.FieldLogger) *Selector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Selector{store: store, logger: logger}
}

// Select returns the s3:// URI of the largest .csv object. Ties keep the
// object listed first.
func (s *Selector) Select(ctx context.Context, bucket, prefix, model string) (string, error) {
	loc, err := s.SelectLocation(ctx, bucket, prefix, model)
	if err != nil {
		return "", err
	}
	return loc.URI(), nil
}

// SelectLocation is Select returning the bucket and key.
func (s *Selector) SelectLocation(ctx context.Context, bucket, prefix, model string) (storage.Location, error) {
	searchPath := strings.Join([]string{prefix, model}, "/")
	objects, err := s.store.ListObjects(ctx, bucket, searchPath)
	if err != nil {
		return storage.Location{}, fmt.Errorf("list s3://%s/%s: %w", bucket, searchPath, err)
	}

	var best *storage.ObjectInfo
	candidates := 0
	for i := range objects {
		obj := &objects[i]
		if !strings.EqualFold(path.Ext(obj.Key), ".csv") {
			continue
		}
		candidates++
		if best == nil || obj.Size > best.Size {
			best = obj
		}
	}
	if best == nil {
		return storage.Location{}, fmt.Errorf("%w: no .csv files under s3://%s/%s", ErrDataNotFound, bucket, searchPath)
	}

	s.logger.WithFields(logrus.Fields{
		"bucket":     bucket,
		"key":        best.Key,
		"size":       best.Size,
		"candidates": candidates,
	}).Debug("selected reference dataset")
	return storage.Location{Bucket: bucket, Key: best.Key}, nil
}
