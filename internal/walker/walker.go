package walker

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxFileSize is the maximum document size to ingest (50 MB).
const DefaultMaxFileSize int64 = 50 << 20

// ErrTooLarge marks files over the configured size limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// FileInfo holds metadata about a single document discovered during traversal.
// Err is set for files that matched the filters but could not be stat'ed,
// hashed or are over the size limit; such entries carry no ContentHash.
type FileInfo struct {
	Path        string // Absolute path on disk.
	RelPath     string // Path relative to the root directory.
	Size        int64  // File size in bytes.
	ContentHash string // SHA-256 hex digest of the file content.
	Err         error
}

// WalkerConfig controls the behaviour of the Walk function.
type WalkerConfig struct {
	RootDir     string   // Root directory to walk.
	Include     []string // Glob patterns, only matching files are included.
	Exclude     []string // Glob patterns, matching files are excluded.
	MaxFileSize int64    // Files larger than this are returned with ErrTooLarge (0 = use default).
}

// Walk traverses the directory tree rooted at config.RootDir and returns
// every regular file that passes filtering, in lexical path order. Files
// that cannot be read are returned with Err set rather than dropped. Binary
// files are not filtered here: PDF and DOCX documents are binary, and the
// loaders decide what they can parse.
func Walk(config WalkerConfig) ([]FileInfo, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	}

	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var files []FileInfo

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			files = append(files, failed(root, path, walkErr))
			return nil
		}

		name := d.Name()

		if d.IsDir() {
			if path != root && shouldExcludeDir(name) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || shouldExcludeFile(name) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if !MatchesInclude(relPath, config.Include) {
			return nil
		}
		if MatchesExclude(relPath, config.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			files = append(files, failed(root, path, err))
			return nil
		}
		if info.Size() > maxSize {
			f := failed(root, path, fmt.Errorf("%w: %d bytes > %d", ErrTooLarge, info.Size(), maxSize))
			f.Size = info.Size()
			files = append(files, f)
			return nil
		}

		hash, err := HashFile(path)
		if err != nil {
			files = append(files, failed(root, path, err))
			return nil
		}

		files = append(files, FileInfo{
			Path:        path,
			RelPath:     filepath.ToSlash(relPath),
			Size:        info.Size(),
			ContentHash: hash,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}

	return files, nil
}

func failed(root, path string, err error) FileInfo {
	rel, relErr := filepath.Rel(root, path)
	if relErr != nil {
		rel = path
	}
	return FileInfo{Path: path, RelPath: filepath.ToSlash(rel), Err: err}
}

// IsBinary reports whether data looks like binary content by checking the
// first 512 bytes for NUL bytes.
func IsBinary(data []byte) bool {
	if len(data) > 512 {
		data = data[:512]
	}
	for _, b := range data {
		if b == 0 {
			return true
		}
	}
	return false
}

// HashFile computes the SHA-256 digest of the given file.
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

// shouldExcludeFile skips editor and OS droppings.
func shouldExcludeFile(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") || strings.HasSuffix(name, "~")
}
