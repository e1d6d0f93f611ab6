package loader

import (
	"context"

	"github.com/ziadkadry99/docchat/internal/document"
	"github.com/ziadkadry99/docchat/internal/errs"
	"github.com/ziadkadry99/docchat/internal/walker"
)

// FileFailure records a file that could not be loaded.
type FileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Report summarises a directory load.
type Report struct {
	Loaded  []string      `json:"loaded"`
	Skipped []string      `json:"skipped"`
	Failed  []FileFailure `json:"failed"`
}

// DirOptions controls LoadDir.
type DirOptions struct {
	Include []string
	Exclude []string
	// MaxFileSize overrides walker.DefaultMaxFileSize when positive.
	MaxFileSize int64
	// Skip, when set, is consulted before a file is parsed. Skipped files
	// are listed in the report.
	Skip func(walker.FileInfo) bool
	// Strict aborts on the first file that fails to load instead of
	// recording it in the report.
	Strict bool
}

// LoadDir loads every file under dir in lexical path order. Unreadable or
// unparseable files are recorded in the report and skipped unless Strict is
// set. Only a failure to list the directory itself is returned as an error
// in the default mode.
func LoadDir(ctx context.Context, dir string, opts DirOptions) ([]document.RawDocument, Report, error) {
	var report Report

	files, err := walker.Walk(walker.WalkerConfig{
		RootDir:     dir,
		Include:     opts.Include,
		Exclude:     opts.Exclude,
		MaxFileSize: opts.MaxFileSize,
	})
	if err != nil {
		return nil, report, errs.E(errs.KindIngestion, dir, err)
	}

	var docs []document.RawDocument
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		if f.Err != nil {
			if opts.Strict {
				return nil, report, errs.E(errs.KindIngestion, f.Path, f.Err)
			}
			report.Failed = append(report.Failed, FileFailure{Path: f.Path, Error: f.Err.Error()})
			continue
		}
		if opts.Skip != nil && opts.Skip(f) {
			report.Skipped = append(report.Skipped, f.Path)
			continue
		}
		loaded, err := LoadFile(ctx, f.Path, f.ContentHash)
		if err != nil {
			if opts.Strict {
				return nil, report, err
			}
			report.Failed = append(report.Failed, FileFailure{Path: f.Path, Error: err.Error()})
			continue
		}
		report.Loaded = append(report.Loaded, f.Path)
		docs = append(docs, loaded...)
	}
	return docs, report, nil
}
