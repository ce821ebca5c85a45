// Package storage provides the object storage collaborators used to read
// capture logs and reference datasets: an S3 client backed by minio-go and a
// filesystem store for local runs and tests.
package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// maxLineSize bounds a single capture line.
const maxLineSize = 1 << 20

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// LineReader iterates over the lines of one object. Line is only valid until
// the next call to Next.
type LineReader interface {
	Next() bool
	Line() []byte
	Err() error
	Close() error
}

// ObjectStore abstracts the object operations the pipeline needs.
// ReadLines always starts from the beginning of the object.
type ObjectStore interface {
	ReadLines(ctx context.Context, bucket, key string) (LineReader, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	PutObject(ctx context.Context, bucket, key string, data []byte) error
}

// FirstLine returns the first line of an object.
func FirstLine(ctx context.Context, store ObjectStore, bucket, key string) ([]byte, error) {
	lines, err := store.ReadLines(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer lines.Close()

	if !lines.Next() {
		if err := lines.Err(); err != nil {
			return nil, err
		}
		return nil, wrapError(CodeReadFailed, false, fmt.Errorf("s3://%s/%s is empty", bucket, key))
	}
	line := make([]byte, len(lines.Line()))
	copy(line, lines.Line())
	return line, nil
}

// scannerLines adapts any reader to LineReader.
type scannerLines struct {
	body     io.ReadCloser
	scanner  *bufio.Scanner
	classify func(error) *Error
}

func newScannerLines(body io.ReadCloser, classify func(error) *Error) *scannerLines {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &scannerLines{body: body, scanner: sc, classify: classify}
}

func (l *scannerLines) Next() bool   { return l.scanner.Scan() }
func (l *scannerLines) Line() []byte { return l.scanner.Bytes() }
func (l *scannerLines) Close() error { return l.body.Close() }

func (l *scannerLines) Err() error {
	if err := l.scanner.Err(); err != nil {
		return l.classify(err)
	}
	return nil
}
