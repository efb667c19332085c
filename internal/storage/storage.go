package storage

import (
	"context"
	"fmt"
	"path"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage is the bucket surface used to pull run inputs and publish run outputs.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
}

// RunPrefix is the key prefix holding the published tables of one run.
func RunPrefix(outputPrefix string, runID int64) string {
	return path.Join(outputPrefix, fmt.Sprintf("run-%d", runID))
}
