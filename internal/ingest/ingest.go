// Package ingest discovers documents on disk for batch imports.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/fiscal-extract/constants"
)

// FileRef is one discovered document.
type FileRef struct {
	Path    string
	Ext     string
	Size    int64
	HashHex string
	Err     string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Hashed  uint32
	Failed  uint32
}

// AllowedExt checks ext against exts, or the default pdf/txt/json set
// when exts is nil.
func AllowedExt(ext string, exts map[string]struct{}) bool {
	if exts == nil {
		exts = constants.AllowedExtensions
	}
	_, ok := exts[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return base != "." && base != ".." && strings.HasPrefix(base, ".")
}

// ExtSet builds a lookup set from user input like ".PDF" or "txt".
// An empty list returns nil.
func ExtSet(list []string) map[string]struct{} {
	var set map[string]struct{}
	for _, e := range list {
		e = constants.NormalizeExt(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if set == nil {
			set = map[string]struct{}{}
		}
		set[e] = struct{}{}
	}
	return set
}

// HashFile returns the hex sha256 of the file contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
