// Package rejects archives capture records that could not be shadowed.
package rejects

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/Hydrospheredata/hydro-serving-integrations/internal/storage"
)

// Putter uploads a finished archive object.
type Putter interface {
	PutObject(ctx context.Context, bucket, key string, data []byte) error
}

// Record is one rejected capture line.
type Record struct {
	Line      int    `json:"line"`
	RequestID string `json:"request_id"`
	Column    string `json:"column"`
	Value     string `json:"value"`
	Error     string `json:"error"`
	Raw       string `json:"raw"`
}

var fields = []struct {
	name string
	typ  string
}{
	{"line", "INT64"},
	{"request_id", "BYTE_ARRAY"},
	{"column", "BYTE_ARRAY"},
	{"value", "BYTE_ARRAY"},
	{"error", "BYTE_ARRAY"},
	{"raw", "BYTE_ARRAY"},
}

// Sink collects rejected records per capture file and writes them as one
// Snappy compressed Parquet object. A Sink with an empty bucket discards
// everything.
type Sink struct {
	store  Putter
	bucket string
	prefix string

	mu      sync.Mutex
	pending map[string][]Record
}

// NewSink returns a sink writing under bucket/prefix.
func NewSink(store Putter, bucket, prefix string) *Sink {
	return &Sink{
		store:   store,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		pending: make(map[string][]Record),
	}
}

// Enabled reports whether rejected records are archived.
func (s *Sink) Enabled() bool {
	return s != nil && s.bucket != "" && s.store != nil
}

// ObjectKey is the archive key for a capture file of model.
func (s *Sink) ObjectKey(model, captureKey string) string {
	base := path.Base(captureKey)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return storage.JoinKey(s.prefix, model, base+".rejects.parquet")
}

// Add buffers a rejected record for the archive key.
func (s *Sink) Add(key string, rec Record) {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = append(s.pending[key], rec)
}

// Flush writes the buffered records for key and returns the object URI, or
// an empty string when there was nothing to write.
func (s *Sink) Flush(ctx context.Context, key string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	s.mu.Lock()
	records := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()
	if len(records) == 0 {
		return "", nil
	}

	data, err := Encode(records)
	if err != nil {
		return "", err
	}
	if err := s.store.PutObject(ctx, s.bucket, key, data); err != nil {
		return "", fmt.Errorf("upload rejects %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// Encode renders records as a Parquet file.
func Encode(records []Record) ([]byte, error) {
	buf := &bytes.Buffer{}
	pfw := writerfile.NewWriterFile(buf)
	pw, err := writer.NewJSONWriter(schemaJSON(), pfw, 4)
	if err != nil {
		return nil, fmt.Errorf("parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range records {
		row, err := json.Marshal(rec)
		if err != nil {
			_ = pw.WriteStop()
			_ = pfw.Close()
			return nil, err
		}
		if err := pw.Write(string(row)); err != nil {
			_ = pw.WriteStop()
			_ = pfw.Close()
			return nil, fmt.Errorf("write reject row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = pfw.Close()
		return nil, fmt.Errorf("finish parquet: %w", err)
	}
	_ = pfw.Close()
	return buf.Bytes(), nil
}

func schemaJSON() string {
	out := make([]map[string]string, 0, len(fields))
	for _, f := range fields {
		tag := fmt.Sprintf("name=%s, type=%s, repetitiontype=OPTIONAL", f.name, f.typ)
		if f.typ == "BYTE_ARRAY" {
			tag += ", convertedtype=UTF8"
		}
		out = append(out, map[string]string{"Tag": tag})
	}
	b, _ := json.Marshal(map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": out,
	})
	return string(b)
}
