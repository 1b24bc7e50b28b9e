// Package ingest turns files on disk into pipeline document inputs.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/quote-optimizer/constants"
	"github.com/joseph-ayodele/quote-optimizer/internal/loader"
	"github.com/joseph-ayodele/quote-optimizer/internal/pipeline"
)

// MaxFileBytes bounds a single document read from disk.
const MaxFileBytes = 64 << 20

// FileResult is the per-file outcome of a directory read.
type FileResult struct {
	Path         string
	DocumentID   string
	Format       constants.Format
	HashHex      string
	Deduplicated bool
	Err          string
}

// Stats summarizes a directory read.
type Stats struct {
	Scanned      uint32
	Matched      uint32
	Read         uint32
	Deduplicated uint32
	Failed       uint32
	Files        []FileResult
}

// ReadFile reads one document. The document id is the file's base name and
// the format comes from its extension.
func ReadFile(path string) (pipeline.DocumentInput, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if ext == "" || !AllowedExt(ext) {
		return pipeline.DocumentInput{}, fmt.Errorf("unsupported or missing extension: %q", ext)
	}
	info, err := os.Stat(path)
	if err != nil {
		return pipeline.DocumentInput{}, err
	}
	if info.Size() > MaxFileBytes {
		return pipeline.DocumentInput{}, fmt.Errorf("%s: %d bytes exceeds the %d byte limit", path, info.Size(), MaxFileBytes)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return pipeline.DocumentInput{}, err
	}
	name := filepath.Base(path)
	return pipeline.DocumentInput{
		ID:           name,
		Format:       string(loader.FormatFromFilename(name)),
		Bytes:        b,
		FilenameHint: name,
	}, nil
}

// ReadDirectory walks root and reads every file with a supported extension.
// Document ids are slash-separated paths relative to root. Files whose
// content duplicates an earlier file are skipped. Unreadable files are
// counted in Stats and do not stop the walk.
func ReadDirectory(ctx context.Context, root string, skipHidden bool) ([]pipeline.DocumentInput, Stats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, Stats{}, errors.New("root path is required")
	}
	logger := slog.Default().With("root", root)

	var (
		docs  []pipeline.DocumentInput
		stats Stats
		seen  = map[string]string{}
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			stats.Files = append(stats.Files, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		in, err := ReadFile(path)
		if err != nil {
			logger.Warn("ingest.read.failed", "path", path, "error", err)
			stats.Files = append(stats.Files, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		in.ID = filepath.ToSlash(rel)

		sum := sha256.Sum256(in.Bytes)
		hexHash := hex.EncodeToString(sum[:])
		res := FileResult{Path: path, DocumentID: in.ID, Format: constants.Format(in.Format), HashHex: hexHash}
		if first, ok := seen[hexHash]; ok {
			logger.Info("ingest.read.duplicate", "path", path, "duplicate_of", first)
			res.Deduplicated = true
			stats.Files = append(stats.Files, res)
			stats.Deduplicated++
			return nil
		}
		seen[hexHash] = in.ID
		docs = append(docs, in)
		stats.Files = append(stats.Files, res)
		stats.Read++
		return nil
	})
	if err != nil {
		return docs, stats, fmt.Errorf("walk: %w", err)
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	logger.Info("ingest.read.done",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"read", stats.Read,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return docs, stats, nil
}

// AllowedExt reports whether ext is picked up by directory reads.
func AllowedExt(ext string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(ext)]
	return ok
}

// IsHidden reports whether a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
