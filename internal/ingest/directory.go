package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
)

type Scanner struct {
	logger     *slog.Logger
	exts       map[string]struct{}
	skipHidden bool
}

type ScanOption func(*Scanner)

// WithExtensions restricts matches; nil keeps the defaults.
func WithExtensions(exts map[string]struct{}) ScanOption {
	return func(s *Scanner) { s.exts = exts }
}

func WithSkipHidden(skip bool) ScanOption {
	return func(s *Scanner) { s.skipHidden = skip }
}

func NewScanner(logger *slog.Logger, opts ...ScanOption) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scanner{logger: logger, skipHidden: true}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scan walks root and hashes every matching file. Unreadable entries
// are reported in the results and do not stop the walk. Results come in
// lexical path order.
func (s *Scanner) Scan(ctx context.Context, root string) ([]FileRef, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var (
		results []FileRef
		stats   DirStats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			results = append(results, FileRef{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if s.skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path), s.exts) {
			return nil
		}
		stats.Matched++

		ref := FileRef{Path: path, Ext: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")}
		if info, err := d.Info(); err == nil {
			ref.Size = info.Size()
		}
		hash, err := HashFile(path)
		if err != nil {
			ref.Err = err.Error()
			results = append(results, ref)
			stats.Failed++
			s.logger.Warn("ingest.scan.hash_failed", "path", path, "error", err)
			return nil
		}
		ref.HashHex = hash
		results = append(results, ref)
		stats.Hashed++
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	s.logger.Info("ingest.scan.done", "root", root, "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)
	return results, stats, nil
}
