package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/csvsentry/internal/utils"
)

const metaSuffix = ".meta.json"

type localMeta struct {
	ContentType string    `json:"contentType"`
	CreatedOn   time.Time `json:"createdOn"`
}

// Local stores objects as files under <root>/<container>. Content type and creation
// time live in a sidecar file next to each object.
type Local struct {
	dir string
	now func() time.Time
}

// NewLocal creates the container directory if needed.
func NewLocal(root, container string) (*Local, error) {
	if root == "" {
		return nil, errors.New("local storage: empty root directory")
	}
	if err := utils.CheckName(container); err != nil {
		return nil, fmt.Errorf("local storage container: %w", err)
	}
	dir := filepath.Join(root, container)
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	return &Local{dir: dir, now: time.Now}, nil
}

func (l *Local) path(name string) (string, error) {
	if err := utils.CheckName(name); err != nil {
		return "", err
	}
	if strings.HasSuffix(name, metaSuffix) || strings.HasSuffix(name, ".tmp") {
		return "", fmt.Errorf("%w: reserved suffix in %q", utils.ErrInvalidName, name)
	}
	return filepath.Join(l.dir, name), nil
}

func (l *Local) Fetch(_ context.Context, name string) ([]byte, error) {
	p, err := l.path(name)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}

func (l *Local) Put(_ context.Context, name string, data []byte, contentType string) (string, error) {
	p, err := l.path(name)
	if err != nil {
		return "", err
	}
	meta, err := json.Marshal(localMeta{ContentType: contentType, CreatedOn: l.now().UTC()})
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	if err := utils.SafeWriteFile(p, data); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := utils.SafeWriteFile(p+metaSuffix, meta); err != nil {
		return "", fmt.Errorf("write %s metadata: %w", name, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	return u.String(), nil
}

func (l *Local) Exists(_ context.Context, name string) (bool, error) {
	p, err := l.path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
	return true, nil
}

func (l *Local) List(_ context.Context) ([]BlobInfo, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", l.dir, err)
	}
	out := []BlobInfo{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasSuffix(name, metaSuffix) || strings.HasSuffix(name, ".tmp") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		bi := BlobInfo{
			Name:        name,
			ContentType: "application/octet-stream",
			Size:        info.Size(),
			CreatedOn:   info.ModTime().UTC(),
		}
		if b, err := os.ReadFile(filepath.Join(l.dir, name+metaSuffix)); err == nil {
			var m localMeta
			if json.Unmarshal(b, &m) == nil {
				if m.ContentType != "" {
					bi.ContentType = m.ContentType
				}
				if !m.CreatedOn.IsZero() {
					bi.CreatedOn = m.CreatedOn
				}
			}
		}
		out = append(out, bi)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedOn.Equal(out[j].CreatedOn) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedOn.Before(out[j].CreatedOn)
	})
	return out, nil
}
