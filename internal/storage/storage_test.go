package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreReadLines(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.PutObject(ctx, "capture", "a/b.jsonl", []byte("one\r\ntwo\nthree")))

	// Each call starts from the top of the object.
	for i := 0; i < 2; i++ {
		lines, err := store.ReadLines(ctx, "capture", "a/b.jsonl")
		require.NoError(t, err)

		var got []string
		for lines.Next() {
			got = append(got, string(lines.Line()))
		}
		require.NoError(t, lines.Err())
		require.NoError(t, lines.Close())
		assert.Equal(t, []string{"one", "two", "three"}, got)
	}
}

func TestLocalStoreMissingObject(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	_, err := store.ReadLines(context.Background(), "capture", "missing.jsonl")
	require.Error(t, err)

	var serr *Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, CodeObjectNotFound, serr.Code)
	assert.ErrorIs(t, err, &Error{Code: CodeObjectNotFound})
}

func TestLocalStoreListObjects(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.PutObject(ctx, "train", "data/model/b.csv", []byte("12345")))
	require.NoError(t, store.PutObject(ctx, "train", "data/model/a.csv", []byte("1")))
	require.NoError(t, store.PutObject(ctx, "train", "data/other/c.csv", []byte("1")))

	objects, err := store.ListObjects(ctx, "train", "data/model")
	require.NoError(t, err)
	assert.Equal(t, []ObjectInfo{
		{Key: "data/model/a.csv", Size: 1},
		{Key: "data/model/b.csv", Size: 5},
	}, objects)

	objects, err = store.ListObjects(ctx, "empty", "data")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestFirstLine(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())
	require.NoError(t, store.PutObject(ctx, "b", "k.csv", []byte("a,b,c\n1,2,3\n")))
	require.NoError(t, store.PutObject(ctx, "b", "empty.csv", nil))

	line, err := FirstLine(ctx, store, "b", "k.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b,c", string(line))

	_, err = FirstLine(ctx, store, "b", "empty.csv")
	assert.ErrorIs(t, err, &Error{Code: CodeReadFailed})
}

func TestParseURI(t *testing.T) {
	loc, err := ParseURI("s3://training/data/model/train.csv")
	require.NoError(t, err)
	assert.Equal(t, Location{Bucket: "training", Key: "data/model/train.csv"}, loc)
	assert.Equal(t, "s3://training/data/model/train.csv", loc.URI())

	_, err = ParseURI("https://training/data.csv")
	assert.ErrorIs(t, err, &Error{Code: CodeInvalidURI})
}

func TestParseModelName(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		key     string
		want    string
		wantErr bool
	}{
		{"single segment prefix", "capture", "capture/Foo-Model/AllTraffic/2020/06/29/12/x.jsonl", "Foo-Model", false},
		{"nested prefix", "sagemaker/capture", "sagemaker/capture/xgb/AllTraffic/x.jsonl", "xgb", false},
		{"too short", "a/b/c", "a/b/c", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseModelName(tt.prefix, tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "rejects/model/file.parquet", JoinKey("rejects/", "", "/model", "file.parquet"))
}
