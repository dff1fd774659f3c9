package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrTooLarge = errors.New("blob exceeds size limit")

// LocalStore writes uploaded blobs to a local directory and hands back the
// public URL path they will be served under.
type LocalStore struct {
	dir      string
	basePath string
	maxBytes int64
}

func NewLocalStore(dir, basePath string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &LocalStore{dir: dir, basePath: basePath, maxBytes: maxBytes}, nil
}

// Save stores the blob under a random name, keeping only the extension of the
// client-supplied filename. Returns the serving URL path and the byte count.
func (s *LocalStore) Save(filename string, r io.Reader) (string, int64, error) {
	name := uuid.NewString() + safeExt(filename)
	dst := filepath.Join(s.dir, name)

	f, err := os.Create(dst)
	if err != nil {
		return "", 0, fmt.Errorf("create blob: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dst)
		if errors.Is(err, ErrTooLarge) {
			return "", 0, err
		}
		return "", 0, fmt.Errorf("write blob: %w", err)
	}

	return path.Join(s.basePath, name), n, nil
}

// Dir is the on-disk directory blobs are served from.
func (s *LocalStore) Dir() string { return s.dir }

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
