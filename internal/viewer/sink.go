package viewer

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ontree-co/sitegen/internal/website"
)

// Sink is a destination for downloaded artifacts.
type Sink interface {
	// Name identifies the sink in logs and spans.
	Name() string
	// Open prepares the sink to receive the artifacts of one job.
	Open(ctx context.Context, id string) (Batch, error)
}

// Batch receives the artifacts of one job. Close finishes the batch and
// must be called even when a Put failed.
type Batch interface {
	// Put stores one artifact and returns where it ended up.
	Put(ctx context.Context, a website.Artifact) (string, error)
	Close() error
}

// DirSink writes each artifact as a separate file.
type DirSink struct {
	Dir string
	// PerJob places the files in a subdirectory named after the job id.
	PerJob bool
}

func (s *DirSink) Name() string { return "dir" }

func (s *DirSink) Open(ctx context.Context, id string) (Batch, error) {
	dir := s.Dir
	if s.PerJob {
		if err := website.ValidateID(id); err != nil {
			return nil, err
		}
		dir = filepath.Join(dir, id)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &dirBatch{dir: dir}, nil
}

type dirBatch struct {
	dir string
}

func (b *dirBatch) Put(ctx context.Context, a website.Artifact) (string, error) {
	path := filepath.Join(b.dir, a.FileName)
	if err := writeFileAtomic(path, []byte(a.Content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", a.FileName, err)
	}
	return path, nil
}

func (b *dirBatch) Close() error { return nil }

// ZipSink bundles all artifacts of a job into a single archive. The archive
// only appears at its final path once every entry was written.
type ZipSink struct {
	Dir string
	// FileName defaults to website-<id>.zip.
	FileName string
}

func (s *ZipSink) Name() string { return "zip" }

// ArchiveName returns the archive file name used for id.
func (s *ZipSink) ArchiveName(id string) string {
	if s.FileName != "" {
		return s.FileName
	}
	return "website-" + id + ".zip"
}

func (s *ZipSink) Open(ctx context.Context, id string) (Batch, error) {
	if s.FileName == "" {
		if err := website.ValidateID(id); err != nil {
			return nil, err
		}
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".sitegen-zip-")
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	return &zipBatch{
		path: filepath.Join(dir, s.ArchiveName(id)),
		tmp:  tmp,
		zw:   zip.NewWriter(tmp),
	}, nil
}

type zipBatch struct {
	path   string
	tmp    *os.File
	zw     *zip.Writer
	failed bool
}

func (b *zipBatch) Put(ctx context.Context, a website.Artifact) (string, error) {
	w, err := b.zw.CreateHeader(&zip.FileHeader{
		Name:     a.FileName,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		b.failed = true
		return "", fmt.Errorf("failed to add %s to archive: %w", a.FileName, err)
	}
	if _, err := w.Write([]byte(a.Content)); err != nil {
		b.failed = true
		return "", fmt.Errorf("failed to add %s to archive: %w", a.FileName, err)
	}
	return b.path + "#" + a.FileName, nil
}

// Close finalizes the archive. A batch with a failed entry is discarded.
func (b *zipBatch) Close() error {
	tmpPath := b.tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := b.zw.Close(); err != nil {
		_ = b.tmp.Close()
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := b.tmp.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if b.failed {
		return fmt.Errorf("archive %s was not written", filepath.Base(b.path))
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return err
	}
	_ = os.Remove(b.path)
	return os.Rename(tmpPath, b.path)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".sitegen-")
	if err != nil {
		return err
	}
	tmpPath := f.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(perm); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	// Ensure rename works even if the destination already exists.
	_ = os.Remove(path)
	return os.Rename(tmpPath, path)
}
