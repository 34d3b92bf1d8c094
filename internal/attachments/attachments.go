// Package attachments stores uploaded receipt files on the local
// filesystem under collision-resistant names.
package attachments

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
)

// Store persists receipt uploads under a single directory. Only PDF
// files are accepted, and writes are capped at maxBytes.
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates the upload directory if needed and returns a Store.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the directory files are stored under.
func (s *Store) Dir() string { return s.dir }

// Save validates and persists an uploaded receipt, returning the stored
// filename to record on the transaction.
func (s *Store) Save(file *multipart.FileHeader) (string, error) {
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		return "", apperrors.ErrInvalidAttachment
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && ct != "application/pdf" {
		return "", apperrors.ErrInvalidAttachment
	}
	if file.Size > s.maxBytes {
		return "", apperrors.ErrAttachmentTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer src.Close()

	name := uuid.New().String() + ".pdf"
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// LimitReader guards against a size lied about in the part header.
	written, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.Remove(name)
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if written > s.maxBytes {
		s.Remove(name)
		return "", apperrors.ErrAttachmentTooLarge
	}

	return name, nil
}

// Remove deletes a stored receipt. Cleanup is best effort: failures are
// logged, never returned, so a missing file can't fail a delete that
// already committed.
func (s *Store) Remove(name string) {
	if name == "" {
		return
	}
	// Refuse anything that could escape the upload directory.
	if name != filepath.Base(name) {
		logger.Get().Warnw("refusing to remove attachment outside upload dir", "name", name)
		return
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		logger.Get().Warnw("failed to remove attachment", "name", name, "error", err)
	}
}
