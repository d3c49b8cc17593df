package resource

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileFetcher loads stylesheets from local file system.
type FileFetcher struct {
	// Root, when set, confines all reads to this directory.
	Root    string
	Decoder Decoder
	log     *zap.Logger
}

// NewFileFetcher creates local fetcher.
func NewFileFetcher(root string, dec Decoder, log *zap.Logger) *FileFetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileFetcher{Root: root, Decoder: dec, log: log.Named("file-fetcher")}
}

// Fetch implements Fetcher.
func (f *FileFetcher) Fetch(ctx context.Context, path string) (*Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path for %q: %w", path, err)
	}

	var data []byte
	if len(f.Root) > 0 {
		// os.DirFS refuses paths escaping the root, so "../" tricks in
		// stylesheets cannot reach outside of it.
		rel, err := filepath.Rel(f.Root, abs)
		if err != nil {
			return nil, fmt.Errorf("unable to locate %q under %q: %w", abs, f.Root, err)
		}
		data, err = fs.ReadFile(os.DirFS(f.Root), filepath.ToSlash(rel))
		if err != nil {
			return nil, fmt.Errorf("unable to read stylesheet: %w", err)
		}
	} else if data, err = os.ReadFile(abs); err != nil {
		return nil, fmt.Errorf("unable to read stylesheet: %w", err)
	}

	content, err := f.Decoder.Decode(data)
	if err != nil {
		return nil, err
	}

	f.log.Debug("Loaded stylesheet", zap.String("path", abs), zap.Int("bytes", len(data)))
	return &Resource{File: abs, Content: content}, nil
}
