package rag

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperrors "smart-response/errors"

	"go.uber.org/zap"
)

// Document is one internal reference file.
type Document struct {
	Path string
	Text string

	words []string
}

func newDocument(path, text string) Document {
	return Document{Path: path, Text: text, words: distinctWords(text)}
}

// DocumentStore holds internal documents in load order. It is filled once at
// startup and read-only afterwards.
type DocumentStore struct {
	mu     sync.RWMutex
	docs   []Document
	index  map[string]int
	logger *zap.Logger
}

func NewDocumentStore(logger *zap.Logger) *DocumentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentStore{index: make(map[string]int), logger: logger}
}

// EnsureDirectories creates any missing source directories.
func EnsureDirectories(sources []string) error {
	for _, dir := range sources {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.WrapErrorf(err, "create resource directory %s", dir)
		}
	}
	return nil
}

// Load walks each source directory and reads every file beneath it. A source
// or file that cannot be read is logged and skipped; the returned error then
// wraps ErrPartialLoad while the readable documents stay loaded.
func (s *DocumentStore) Load(ctx context.Context, sources []string) error {
	var failures []error

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := filepath.WalkDir(source, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if path == source {
					return walkErr
				}
				s.logger.Error("Failed to read internal path", zap.String("path", path), zap.Error(walkErr))
				failures = append(failures, walkErr)
				return nil
			}
			if d.IsDir() {
				if path != source && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				return nil
			}

			text, err := s.readFile(path)
			if err != nil {
				s.logger.Error("Failed to read internal file", zap.String("path", path), zap.Error(err))
				failures = append(failures, apperrors.WrapErrorf(err, "read %s", path))
				return nil
			}
			s.add(newDocument(path, text))
			return ctx.Err()
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.logger.Error("Error loading internal data", zap.String("source", source), zap.Error(err))
			failures = append(failures, apperrors.WrapErrorf(err, "load source %s", source))
		}
	}

	s.logger.Info("Internal documents loaded",
		zap.Int("documents", s.Len()),
		zap.Int("failures", len(failures)))

	if len(failures) > 0 {
		return apperrors.Join(apperrors.ErrPartialLoad, errors.Join(failures...))
	}
	return nil
}

func (s *DocumentStore) readFile(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return extractPDFText(s.logger, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Add inserts or replaces a document by path. Replacing keeps the original
// position.
func (s *DocumentStore) Add(path, text string) {
	s.add(newDocument(path, text))
}

func (s *DocumentStore) add(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[doc.Path]; ok {
		s.docs[i] = doc
		return
	}
	s.index[doc.Path] = len(s.docs)
	s.docs = append(s.docs, doc)
}

// Get returns the text of a document by path.
func (s *DocumentStore) Get(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[path]
	if !ok {
		return "", false
	}
	return s.docs[i].Text, true
}

// Documents returns a snapshot in load order.
func (s *DocumentStore) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Len returns the number of loaded documents.
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
