package shadow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/config"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/ledger"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/reference"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/registry"
	"github.com/Hydrospheredata/hydro-serving-integrations/internal/storage"
	"github.com/Hydrospheredata/hydro-serving-integrations/pkg/monitoringpb"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeRegistry struct {
	mu         sync.Mutex
	models     []map[string]any
	registered []string
	uploads    []string
}

func (f *fakeRegistry) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/api/v2/model":
		_ = json.NewEncoder(w).Encode(append([]map[string]any{}, f.models...))
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/api/v2/model/version/"):
		name := strings.Split(strings.TrimPrefix(path, "/api/v2/model/version/"), "/")[0]
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 101, "modelVersion": 1, "model": map[string]any{"id": 9, "name": name},
		})
	case r.Method == http.MethodPost && path == "/api/v2/externalmodel":
		var req registry.RegistrationRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.registered = append(f.registered, req.Name)
		f.models = append(f.models, map[string]any{"id": 9, "name": req.Name})
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 101, "modelVersion": 1, "model": map[string]any{"id": 9, "name": req.Name},
		})
	case r.Method == http.MethodPost && strings.HasSuffix(path, "/s3"):
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.uploads = append(f.uploads, body["path"])
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/status"):
		_ = json.NewEncoder(w).Encode(map[string]string{"kind": "Success"})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeRegistry) registrations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.registered...)
}

type fakeAnalyzer struct {
	mu       sync.Mutex
	received []*monitoringpb.ExecutionInformation
}

func (a *fakeAnalyzer) Analyze(_ context.Context, info *monitoringpb.ExecutionInformation) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.received = append(a.received, info)
	return nil
}

func (a *fakeAnalyzer) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.received)
}

type noSleep struct{}

func (noSleep) Sleep(context.Context, time.Duration) error { return nil }

// =============================================================================
// FIXTURES
// =============================================================================

const (
	goodLine = `{"captureData":{"endpointInput":{"data":"42,3.5","encoding":"CSV"},"endpointOutput":{"data":"1","encoding":"CSV"}},"eventMetadata":{"eventId":"evt-%d","inferenceTime":"2020-06-29T12:16:27Z"}}`
	badValue = `{"captureData":{"endpointInput":{"data":"old,3.5","encoding":"CSV"},"endpointOutput":{"data":"1","encoding":"CSV"}},"eventMetadata":{"eventId":"evt-bad"}}`
)

func captureFile(lines ...string) []byte {
	return []byte(strings.Join(lines, "\n") + "\n")
}

type env struct {
	store    *storage.LocalStore
	registry *fakeRegistry
	analyzer *fakeAnalyzer
	ledger   *ledger.MemoryLedger
	cfg      *config.Config
	handler  *Handler
}

func newEnv(t *testing.T, mutate func(*config.Config)) *env {
	t.Helper()
	ctx := context.Background()

	store := storage.NewLocalStore(t.TempDir())
	require.NoError(t, store.PutObject(ctx, "training", "data/xgb/train.csv", []byte("age,income,label\n40,2.5,0\n")))
	require.NoError(t, store.PutObject(ctx, "training", "data/xgb/small.csv", []byte("a\n")))

	reg := &fakeRegistry{}
	srv := httptest.NewServer(reg)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		CaptureBucket:       "capture",
		CapturePrefix:       "sagemaker",
		TrainingBucket:      "training",
		TrainingPrefix:      "data",
		HydrosphereEndpoint: srv.URL,
		PollTimeout:         time.Second,
		PollInterval:        time.Millisecond,
		RetryLimit:          1,
		RetryInterval:       time.Millisecond,
		RecordPolicy:        config.RecordPolicySkip,
		Concurrency:         2,
		RejectsBucket:       "archive",
		RejectsPrefix:       "rejects",
	}
	if mutate != nil {
		mutate(cfg)
	}

	logger, _ := test.NewNullLogger()
	analyzer := &fakeAnalyzer{}
	led := ledger.NewMemoryLedger()
	services := NewServices(cfg, logger,
		WithObjectStore(store),
		WithAnalyzer(analyzer),
		WithLedger(led),
		WithPoolOptions(registry.WithSleeper(noSleep{})),
	)
	t.Cleanup(func() { _ = services.Close() })

	return &env{
		store:    store,
		registry: reg,
		analyzer: analyzer,
		ledger:   led,
		cfg:      cfg,
		handler:  NewHandler(services),
	}
}

// =============================================================================
// TESTS
// =============================================================================

func TestProcessObjectSkipsBadRecords(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	key := "sagemaker/xgb/AllTraffic/2020/06/29/12/capture-1.jsonl"
	require.NoError(t, e.store.PutObject(ctx, "capture", key, captureFile(
		strings.Replace(goodLine, "%d", "1", 1),
		`{not json`,
		badValue,
		"",
		strings.Replace(goodLine, "%d", "2", 1),
	)))

	fs, err := e.handler.ProcessObject(ctx, "capture", key)
	require.NoError(t, err)
	assert.Equal(t, "xgb", fs.Model)
	assert.Equal(t, int64(101), fs.VersionID)
	assert.Equal(t, "s3://training/data/xgb/train.csv", fs.Reference)
	assert.Equal(t, 2, fs.Processed)
	assert.Equal(t, 2, fs.Rejected)
	assert.Equal(t, "s3://archive/rejects/xgb/capture-1.rejects.parquet", fs.RejectsURI)

	assert.Equal(t, []string{"xgb"}, e.registry.registrations())
	assert.Equal(t, []string{"s3://training/data/xgb/train.csv"}, e.registry.uploads)

	require.Equal(t, 2, e.analyzer.count())
	first := e.analyzer.received[0]
	assert.Equal(t, "evt-1", first.Metadata.RequestId)
	assert.Equal(t, []int64{42}, first.Request.Inputs["age"].Int64Val)
	assert.Equal(t, []float64{3.5}, first.Request.Inputs["income"].DoubleVal)
	assert.Equal(t, []int64{1}, first.Response.Outputs["label"].Int64Val)

	archived, err := e.store.GetObject(ctx, "archive", "rejects/xgb/capture-1.rejects.parquet")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(archived), "PAR1"))

	entries := e.ledger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, key, entries[0].Key)
	assert.Equal(t, int64(101), entries[0].VersionID)

	// A redelivered notification is skipped.
	again, err := e.handler.ProcessObject(ctx, "capture", key)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Equal(t, 2, e.analyzer.count())
}

func TestProcessObjectAbortPolicy(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, func(c *config.Config) { c.RecordPolicy = config.RecordPolicyAbort })
	key := "sagemaker/xgb/AllTraffic/2020/06/29/12/capture-2.jsonl"
	require.NoError(t, e.store.PutObject(ctx, "capture", key, captureFile(
		strings.Replace(goodLine, "%d", "1", 1),
		badValue,
		strings.Replace(goodLine, "%d", "3", 1),
	)))

	fs, err := e.handler.ProcessObject(ctx, "capture", key)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecordRejected)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, 1, fs.Processed)
	assert.Empty(t, e.ledger.Entries())
}

func TestProcessObjectWithoutReference(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	key := "sagemaker/lgbm/AllTraffic/2020/06/29/12/capture-3.jsonl"
	require.NoError(t, e.store.PutObject(ctx, "capture", key, captureFile(strings.Replace(goodLine, "%d", "1", 1))))

	_, err := e.handler.ProcessObject(ctx, "capture", key)
	assert.ErrorIs(t, err, reference.ErrDataNotFound)
	assert.Empty(t, e.registry.registrations())
	assert.Zero(t, e.analyzer.count())
}

func TestProcessObjectMissingCapture(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.handler.ProcessObject(context.Background(), "capture", "sagemaker/xgb/AllTraffic/none.jsonl")
	assert.ErrorIs(t, err, &storage.Error{Code: storage.CodeObjectNotFound})
}

func TestHandleNotificationsRegistersOnce(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, func(c *config.Config) { c.Concurrency = 1 })

	var notifications []Notification
	for _, name := range []string{"a", "b", "c"} {
		key := "sagemaker/xgb/AllTraffic/2020/06/29/12/" + name + ".jsonl"
		data := captureFile(strings.Replace(goodLine, "%d", name, 1))
		require.NoError(t, e.store.PutObject(ctx, "capture", key, data))
		notifications = append(notifications, Notification{Bucket: "capture", Key: key, Size: int64(len(data))})
	}

	summary, err := e.handler.HandleNotifications(ctx, notifications)
	require.NoError(t, err)
	require.Len(t, summary.Files, 3)
	assert.Equal(t, 3, summary.Processed())
	assert.Equal(t, 0, summary.Rejected())
	assert.Equal(t, []string{"xgb"}, e.registry.registrations())
	assert.Equal(t, 3, e.analyzer.count())
}

func TestHandleNotificationsConcurrentModels(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, nil)
	require.NoError(t, e.store.PutObject(ctx, "training", "data/lgbm/train.csv", []byte("a,b,y\n1,2,3\n")))

	var notifications []Notification
	for _, model := range []string{"xgb", "lgbm"} {
		key := "sagemaker/" + model + "/AllTraffic/2020/06/29/12/f.jsonl"
		data := captureFile(strings.Replace(goodLine, "%d", model, 1), strings.Replace(goodLine, "%d", model+"2", 1))
		require.NoError(t, e.store.PutObject(ctx, "capture", key, data))
		notifications = append(notifications, Notification{Bucket: "capture", Key: key, Size: int64(len(data))})
	}

	summary, err := e.handler.HandleNotifications(ctx, notifications)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Processed())
	assert.ElementsMatch(t, []string{"xgb", "lgbm"}, e.registry.registrations())
	assert.Equal(t, "xgb", summary.Files[0].Model)
	assert.Equal(t, "lgbm", summary.Files[1].Model)
}

func TestHandleNotificationsReportsFailure(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, func(c *config.Config) { c.Concurrency = 1 })
	key := "sagemaker/xgb/AllTraffic/2020/06/29/12/ok.jsonl"
	data := captureFile(strings.Replace(goodLine, "%d", "1", 1))
	require.NoError(t, e.store.PutObject(ctx, "capture", key, data))

	summary, err := e.handler.HandleNotifications(ctx, []Notification{
		{Bucket: "capture", Key: key, Size: int64(len(data))},
		{Bucket: "capture", Key: "sagemaker/missing/AllTraffic/x.jsonl", Size: 10},
	})
	require.Error(t, err)
	require.Len(t, summary.Files, 1)
	assert.Equal(t, 1, summary.Processed())
}

func TestServicesMemoizeClients(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	cfg := &config.Config{HydrosphereEndpoint: "http://localhost:9090"}
	s := NewServices(cfg, logger)

	first, err := s.Registry(ctx)
	require.NoError(t, err)
	second, err := s.Registry(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)

	led, err := s.Ledger(ctx)
	require.NoError(t, err)
	assert.IsType(t, &ledger.MemoryLedger{}, led)

	_, err = s.get(ctx, "queue")
	assert.Error(t, err)
	assert.NoError(t, s.Close())
}
