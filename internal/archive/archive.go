// Package archive keeps a copy of uploaded audio after it has been
// transcribed. The destination is chosen by configuration: nowhere, a local
// directory, a Google Cloud Storage bucket or an Azure blob container.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"voicenote/internal/config"
)

// Archiver stores raw audio under name and returns where it went.
type Archiver interface {
	Store(ctx context.Context, name string, data []byte) (string, error)
	Close() error
}

// New builds the archiver selected by cfg.Kind.
func New(ctx context.Context, cfg config.ArchiveConfig) (Archiver, error) {
	switch cfg.Kind {
	case "", "none":
		return Nop{}, nil
	case "local":
		return NewLocal(cfg.Dir)
	case "gcs":
		return NewGCS(ctx, cfg.GCSBucket)
	case "azure":
		return NewAzure(cfg.AzureAccount, cfg.AzureAccountKey, cfg.AzureContainer)
	default:
		return nil, fmt.Errorf("unknown archive kind %q", cfg.Kind)
	}
}

// Nop discards audio.
type Nop struct{}

func (Nop) Store(context.Context, string, []byte) (string, error) { return "", nil }
func (Nop) Close() error { return nil }

// Local writes audio files into a directory.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("archive dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Store(_ context.Context, name string, data []byte) (string, error) {
	dest := filepath.Join(l.dir, filepath.Base(name))
	tmp := dest + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("rename %s: %w", tmp, err)
	}
	return dest, nil
}

func (l *Local) Close() error { return nil }
