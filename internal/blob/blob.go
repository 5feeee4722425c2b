// Package blob guarda archivos binarios y devuelve la URL pública
package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"door-catalog/internal/textutil"
)

var ErrEmptyBlob = errors.New("empty blob")

// Store es la primitiva de subida: guarda bytes y devuelve una URL
type Store interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

// LocalStore escribe en un directorio que el servidor publica bajo baseURL
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir es el directorio físico de los archivos
func (s *LocalStore) Dir() string {
	return s.dir
}

// Upload guarda el archivo con un nombre único y devuelve su URL
func (s *LocalStore) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyBlob
	}

	name := uuid.NewString() + "-" + safeName(filename)
	target := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return s.baseURL + "/" + name, nil
}

// safeName conserva la extensión y deja el resto como slug ASCII
func safeName(filename string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	ext := strings.ToLower(path.Ext(base))
	stem := textutil.Slugify(strings.TrimSuffix(base, path.Ext(base)))

	clean := make([]rune, 0, len(ext))
	for _, r := range ext {
		if r == '.' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			clean = append(clean, r)
		}
	}
	return stem + string(clean)
}
