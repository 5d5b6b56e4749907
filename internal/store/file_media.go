// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// mediaFileStorage is the local file system implementation of
// [MediaStorage]. Files are written below root; returned paths are slash
// separated and relative to it, so they can be served under /media/.
type mediaFileStorage struct {
	root string
}

// NewMediaFileStorage constructs a [MediaStorage] rooted at dir, creating the
// directory if needed.
func NewMediaFileStorage(dir string) (MediaStorage, error) {
	if dir == "" {
		return nil, errors.New("media dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media dir: %w", err)
	}
	return &mediaFileStorage{root: dir}, nil
}

// Save writes r to name below the root. The file is written to a temporary
// name first and renamed, so readers never see a partial image.
func (m *mediaFileStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	rel, err := cleanMediaPath(name)
	if err != nil {
		return "", err
	}
	if err = ctx.Err(); err != nil {
		return "", err
	}

	full := filepath.Join(m.root, filepath.FromSlash(rel))
	if err = os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating media dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating media file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err = io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing media file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("writing media file: %w", err)
	}
	if err = os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("storing media file: %w", err)
	}

	return rel, nil
}

// Delete removes a file previously returned by Save.
func (m *mediaFileStorage) Delete(ctx context.Context, name string) error {
	rel, err := cleanMediaPath(name)
	if err != nil {
		return err
	}

	err = os.Remove(filepath.Join(m.root, filepath.FromSlash(rel)))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrMediaNotFound
	}
	return err
}

// cleanMediaPath rejects names that would escape the media root.
func cleanMediaPath(name string) (string, error) {
	rel := path.Clean("/" + strings.ReplaceAll(name, `\`, "/"))[1:]
	if rel == "" || !fs.ValidPath(rel) {
		return "", fmt.Errorf("invalid media path %q", name)
	}
	return rel, nil
}
