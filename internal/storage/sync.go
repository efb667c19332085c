package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

const transferConcurrency = 4

// DownloadInputs fetches the objects directly under prefix whose base name
// (without extension) is in stems, into dir. It returns the local paths.
func DownloadInputs(ctx context.Context, store ObjectStorage, prefix, dir string, stems []string) ([]string, error) {
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(stems))
	for _, s := range stems {
		wanted[s] = struct{}{}
	}

	var keys []string
	for _, obj := range objects {
		base := path.Base(obj.Key)
		stem := strings.TrimSuffix(base, path.Ext(base))
		ext := strings.ToLower(path.Ext(base))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		if _, ok := wanted[stem]; ok {
			keys = append(keys, obj.Key)
		}
	}

	paths := make([]string, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(transferConcurrency)
	for i, key := range keys {
		dest := filepath.Join(dir, path.Base(key))
		paths[i] = dest
		g.Go(func() error {
			return store.DownloadObject(gctx, key, dest)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return paths, nil
}

// UploadFiles publishes local files under prefix and returns the object keys.
func UploadFiles(ctx context.Context, store ObjectStorage, prefix string, files []string) ([]string, error) {
	keys := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(transferConcurrency)
	for i, file := range files {
		key := path.Join(prefix, filepath.Base(file))
		keys[i] = key
		g.Go(func() error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
			return store.UploadObject(gctx, key, data)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return keys, nil
}
