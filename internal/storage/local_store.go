package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStore keeps objects on disk under root/<bucket>/<key>. It backs
// file:// endpoints and tests.
type LocalStore struct {
	root string
}

// NewLocalStore creates a store rooted at dir.
func NewLocalStore(root string) *LocalStore {
	if root == "" {
		root = filepath.Join(os.TempDir(), "shadow-store")
	}
	_ = os.MkdirAll(root, 0o755)
	return &LocalStore{root: root}
}

func (s *LocalStore) ReadLines(ctx context.Context, bucket, key string) (LineReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, classifyFSError(err)
	}
	return newScannerLines(f, classifyFSError), nil
}

func (s *LocalStore) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if bucket == "" {
		return nil, wrapError(CodeBucketNotFound, false, os.ErrNotExist)
	}
	bucketRoot := s.bucketPath(bucket)

	var objects []ObjectInfo
	err := filepath.WalkDir(bucketRoot, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(bucketRoot, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, ObjectInfo{Key: key, Size: info.Size()})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, wrapError(CodeReadFailed, true, err)
	}
	// S3 lists keys in lexicographic order.
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *LocalStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyFSError(err)
	}
	return data, nil
}

func (s *LocalStore) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return wrapError(CodePermissionDenied, false, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return wrapError(CodeWriteFailed, true, err)
	}
	return nil
}

func (s *LocalStore) objectPath(bucket, key string) (string, error) {
	if bucket == "" {
		return "", wrapError(CodeBucketNotFound, false, fmt.Errorf("bucket is required"))
	}
	if key == "" {
		return "", wrapError(CodeObjectNotFound, false, fmt.Errorf("object key is required"))
	}
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	return filepath.Join(s.bucketPath(bucket), clean), nil
}

func (s *LocalStore) bucketPath(bucket string) string {
	return filepath.Join(s.root, filepath.Base(bucket))
}

func classifyFSError(err error) *Error {
	switch {
	case os.IsNotExist(err):
		return wrapError(CodeObjectNotFound, false, err)
	case os.IsPermission(err):
		return wrapError(CodePermissionDenied, false, err)
	}
	return wrapError(CodeReadFailed, true, err)
}
