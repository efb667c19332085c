package pipeline

import (
	"context"

	"github.com/andresuchdata/retail-signals/backend-go/internal/drive"
	"github.com/andresuchdata/retail-signals/backend-go/internal/storage"
)

// DriveSource pulls inputs from a Google Drive folder.
type DriveSource struct {
	Downloader *drive.Downloader
	FolderID   string
}

func (s *DriveSource) Name() string { return "drive" }

func (s *DriveSource) Fetch(ctx context.Context, dir string) ([]string, error) {
	return s.Downloader.DownloadFolderCSV(ctx, drive.DownloadOptions{
		FolderID:    s.FolderID,
		DownloadDir: dir,
		Stems:       InputStems,
	})
}

// StorageSource pulls inputs from an object storage prefix.
type StorageSource struct {
	Store  storage.ObjectStorage
	Prefix string
}

func (s *StorageSource) Name() string { return "s3" }

func (s *StorageSource) Fetch(ctx context.Context, dir string) ([]string, error) {
	return storage.DownloadInputs(ctx, s.Store, s.Prefix, dir, InputStems)
}
