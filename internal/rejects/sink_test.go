package rejects

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/storage"
)

func TestObjectKey(t *testing.T) {
	s := NewSink(nil, "archive", "/rejects/")
	assert.Equal(t, "rejects/xgb/capture-0001.rejects.parquet",
		s.ObjectKey("xgb", "sagemaker/capture/xgb/AllTraffic/2020/06/29/12/capture-0001.jsonl"))

	s = NewSink(nil, "archive", "")
	assert.Equal(t, "xgb/part.rejects.parquet", s.ObjectKey("xgb", "part"))
}

func TestFlushWritesParquet(t *testing.T) {
	ctx := context.Background()
	store := storage.NewLocalStore(t.TempDir())
	sink := NewSink(store, "archive", "rejects")
	key := sink.ObjectKey("xgb", "xgb/2020/06/29/12/a.jsonl")

	sink.Add(key, Record{Line: 3, RequestID: "evt-3", Column: "age", Value: "old", Error: "invalid syntax", Raw: "{}"})
	sink.Add(key, Record{Line: 7, Column: "label", Value: "x"})

	uri, err := sink.Flush(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "s3://archive/rejects/xgb/a.rejects.parquet", uri)

	data, err := store.GetObject(ctx, "archive", key)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.True(t, bytes.HasPrefix(data, []byte("PAR1")))
	assert.True(t, bytes.HasSuffix(data, []byte("PAR1")))

	// buffer is drained
	uri, err = sink.Flush(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, uri)
}

func TestDisabledSink(t *testing.T) {
	sink := NewSink(storage.NewLocalStore(t.TempDir()), "", "rejects")
	assert.False(t, sink.Enabled())
	sink.Add("k", Record{Line: 1})
	uri, err := sink.Flush(context.Background(), "k")
	require.NoError(t, err)
	assert.Empty(t, uri)

	var nilSink *Sink
	assert.False(t, nilSink.Enabled())
}

func TestEncodeEmpty(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PAR1")))
}
