// Package shadow replays captured endpoint traffic into the monitoring
// service: one capture file at a time, against a model registered with the
// schema inferred from that file and its reference dataset.
package shadow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/capture"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/config"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/ledger"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/monitoring"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/reference"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/registry"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/rejects"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/schema"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/storage"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/tensor"
)

// ErrRecordRejected wraps the first bad record under the abort policy.
var ErrRecordRejected = errors.New("capture record rejected")

// Notification announces one new capture object. Size is -1 when unknown.
type Notification struct {
	Bucket string
	Key    string
	Size   int64
}

// FileSummary reports the outcome of one capture file.
type FileSummary struct {
	Bucket      string  `json:"bucket"`
	Key         string  `json:"key"`
	Model       string  `json:"model,omitempty"`
	VersionID   int64   `json:"model_version_id,omitempty"`
	Reference   string  `json:"reference,omitempty"`
	Processed   int     `json:"processed"`
	Rejected    int     `json:"rejected"`
	RejectsURI  string  `json:"rejects_uri,omitempty"`
	Skipped     bool    `json:"skipped,omitempty"`
	DurationSec float64 `json:"duration_seconds"`
}

// Summary aggregates a batch of notifications.
type Summary struct {
	Files []*FileSummary `json:"files"`
}

// Processed is the number of records submitted over all files.
func (s *Summary) Processed() int {
	n := 0
	for _, f := range s.Files {
		n += f.Processed
	}
	return n
}

// Rejected is the number of records rejected over all files.
func (s *Summary) Rejected() int {
	n := 0
	for _, f := range s.Files {
		n += f.Rejected
	}
	return n
}

// Handler processes capture notifications.
type Handler struct {
	services *Services
	cfg      *config.Config
	logger   logrus.FieldLogger
}

// NewHandler creates a handler over services.
func NewHandler(services *Services) *Handler {
	return &Handler{
		services: services,
		cfg:      services.Config(),
		logger:   services.Logger(),
	}
}

// HandleNotifications processes each notification independently with at
// most SHADOW_CONCURRENCY files in flight. The first failure cancels the
// files not yet finished; summaries of completed files are still returned.
func (h *Handler) HandleNotifications(ctx context.Context, notifications []Notification) (*Summary, error) {
	summary := &Summary{Files: make([]*FileSummary, len(notifications))}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(h.cfg.Concurrency, 1))
	for i, n := range notifications {
		i, n := i, n
		h.logger.WithFields(logrus.Fields{
			"index": i,
			"total": len(notifications),
			"key":   n.Key,
		}).Debug("scanning notification")
		g.Go(func() error {
			fs, err := h.Process(ctx, n)
			summary.Files[i] = fs
			return err
		})
	}
	err := g.Wait()

	done := summary.Files[:0]
	for _, fs := range summary.Files {
		if fs != nil {
			done = append(done, fs)
		}
	}
	summary.Files = done
	return summary, err
}

// ProcessObject shadows a single capture object.
func (h *Handler) ProcessObject(ctx context.Context, bucket, key string) (*FileSummary, error) {
	return h.Process(ctx, Notification{Bucket: bucket, Key: key, Size: -1})
}

// Process shadows the capture file named by n.
func (h *Handler) Process(ctx context.Context, n Notification) (*FileSummary, error) {
	start := time.Now()
	fs := &FileSummary{Bucket: n.Bucket, Key: n.Key}
	log := h.logger.WithFields(logrus.Fields{"bucket": n.Bucket, "key": n.Key})

	store, err := h.services.Store(ctx)
	if err != nil {
		return nil, err
	}
	led, err := h.services.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	if n.Size < 0 {
		if n.Size, err = objectSize(ctx, store, n.Bucket, n.Key); err != nil {
			return nil, err
		}
	}
	seen, err := led.Seen(ctx, n.Bucket, n.Key, n.Size)
	if err != nil {
		return nil, err
	}
	if seen {
		log.Info("capture file already processed, skipping")
		fs.Skipped = true
		return fs, nil
	}

	fs.Model, err = storage.ParseModelName(h.cfg.CapturePrefix, n.Key)
	if err != nil {
		return nil, err
	}
	log = log.WithField("model", fs.Model)

	selector := reference.NewSelector(store, h.logger)
	ref, err := selector.SelectLocation(ctx, h.cfg.TrainingBucket, h.cfg.TrainingPrefix, fs.Model)
	if err != nil {
		return nil, err
	}
	fs.Reference = ref.URI()

	contract := schema.NewContract(store, storage.Location{Bucket: n.Bucket, Key: n.Key}, &ref)
	sch, err := contract.Schema(ctx)
	if err != nil {
		return nil, err
	}

	registered, err := h.resolveModel(ctx, fs.Model, sch, fs.Reference)
	if err != nil {
		return nil, err
	}
	fs.VersionID = registered.VersionID
	log = log.WithField("model_version_id", registered.VersionID)

	analyzer, err := h.services.Monitoring(ctx)
	if err != nil {
		return nil, err
	}
	model := monitoring.NewModel(registered, analyzer)

	sink := rejects.NewSink(store, h.cfg.RejectsBucket, h.cfg.RejectsPrefix)
	rejectKey := sink.ObjectKey(fs.Model, n.Key)

	if err := h.replay(ctx, store, n, sch, model, sink, rejectKey, fs, log); err != nil {
		return fs, err
	}

	if fs.RejectsURI, err = sink.Flush(ctx, rejectKey); err != nil {
		return fs, err
	}
	if err := led.Mark(ctx, ledger.Entry{
		Bucket:    n.Bucket,
		Key:       n.Key,
		Size:      n.Size,
		Model:     fs.Model,
		VersionID: fs.VersionID,
		Processed: fs.Processed,
		Rejected:  fs.Rejected,
	}); err != nil {
		return fs, err
	}

	fs.DurationSec = time.Since(start).Seconds()
	log.WithFields(logrus.Fields{
		"processed": fs.Processed,
		"rejected":  fs.Rejected,
	}).Info("capture file shadowed")
	return fs, nil
}

func (h *Handler) replay(
	ctx context.Context,
	store storage.ObjectStore,
	n Notification,
	sch *schema.Schema,
	model *monitoring.Model,
	sink *rejects.Sink,
	rejectKey string,
	fs *FileSummary,
	log logrus.FieldLogger,
) error {
	lines, err := store.ReadLines(ctx, n.Bucket, n.Key)
	if err != nil {
		return err
	}
	defer lines.Close()

	lineNo := 0
	for lines.Next() {
		lineNo++
		raw := lines.Line()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := capture.Decode(raw)
		var inputs, outputs tensor.Tensors
		if err == nil {
			inputs, outputs, err = tensor.Encode(rec, sch)
		}
		if err != nil {
			if h.cfg.RecordPolicy == config.RecordPolicyAbort {
				return fmt.Errorf("%w: %s line %d: %w", ErrRecordRejected, n.Key, lineNo, err)
			}
			fs.Rejected++
			log.WithError(err).WithField("line", lineNo).Warn("rejecting capture record")
			sink.Add(rejectKey, rejectRecord(lineNo, rec, raw, err))
			continue
		}

		log.WithField("line", lineNo).Debug("submitting capture record")
		if err := model.Analyze(ctx, rec, inputs, outputs); err != nil {
			return fmt.Errorf("%s line %d: %w", n.Key, lineNo, err)
		}
		fs.Processed++
	}
	return lines.Err()
}

// resolveModel runs its own lookup and polling loop for every file; files
// never share registration state.
func (h *Handler) resolveModel(ctx context.Context, name string, sch *schema.Schema, referenceURI string) (*registry.Model, error) {
	pool, err := h.services.Registry(ctx)
	if err != nil {
		return nil, err
	}
	return pool.GetOrCreate(ctx, name, sch, referenceURI, nil)
}

func rejectRecord(line int, rec *capture.Record, raw []byte, err error) rejects.Record {
	r := rejects.Record{Line: line, Error: err.Error(), Raw: string(raw)}
	if rec != nil {
		r.RequestID = rec.RequestID()
	}
	var encErr *tensor.EncodingError
	if errors.As(err, &encErr) {
		r.Column = encErr.Column
		r.Value = encErr.Value
	}
	return r
}

func objectSize(ctx context.Context, store storage.ObjectStore, bucket, key string) (int64, error) {
	objects, err := store.ListObjects(ctx, bucket, key)
	if err != nil {
		return 0, err
	}
	for _, o := range objects {
		if o.Key == key {
			return o.Size, nil
		}
	}
	return 0, &storage.Error{Code: storage.CodeObjectNotFound, Err: fmt.Errorf("s3://%s/%s not found", bucket, key)}
}
