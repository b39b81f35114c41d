package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const DefaultDir = "./.cache/portfolio"

// FileStore grava uma entrada por arquivo em <dir>/<key>.json.
type FileStore struct {
	dir string
	now func() time.Time
}

func NewFileStore(dir string) *FileStore {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultDir
	}
	return &FileStore{dir: dir, now: time.Now}
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", errors.Errorf("cache: invalid key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileStore) Get(_ context.Context, key string, maxAge time.Duration) ([]byte, bool, error) {
	if maxAge <= 0 {
		return nil, false, nil
	}
	p, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	raw, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "read cache file %s", p)
	}

	e, err := parseEntry(raw)
	if err != nil {
		_ = os.Remove(p)
		return nil, false, errors.Wrapf(err, "cache file %s", p)
	}
	if expired(time.UnixMilli(e.Timestamp), s.now(), maxAge) {
		_ = os.Remove(p)
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set grava num arquivo temporário e renomeia, para que leitores nunca vejam
// uma entrada pela metade.
func (s *FileStore) Set(_ context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrap(err, "create cache dir")
	}
	raw, err := newEntry(data, s.now())
	if err != nil {
		return errors.Wrap(err, "encode cache entry")
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create cache temp file")
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write cache temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close cache temp file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), p), "commit cache file")
}
