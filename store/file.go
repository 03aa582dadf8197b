package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/etnz/forecast"
)

const planExt = ".json"

// FileStore stores every plan as <name>.json in a folder. It is the default
// store, plans files are meant to be read and versioned by hand.
type FileStore struct {
	dir string
}

// NewFileStore returns a store in the folder dir, created on first save.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store needs a folder")
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file of the plan name.
func (s *FileStore) Path(name string) string { return filepath.Join(s.dir, name+planExt) }

func (s *FileStore) Load(_ context.Context, name string) (*forecast.Plan, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	p, err := forecast.LoadPlan(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return p, err
}

func (s *FileStore) Save(_ context.Context, name string, p *forecast.Plan) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return forecast.SavePlan(s.Path(name), p)
}

func (s *FileStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	err := os.Remove(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return err
}

func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list plans in %s: %w", s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), planExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), planExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Close(context.Context) error { return nil }
