package library

import (
	"cmp"
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jscyril/hsm/api"
	"github.com/jscyril/hsm/internal/audio"
	playerrors "github.com/jscyril/hsm/pkg/errors"
)

// readFunc probes one file
type readFunc func(path string, info fs.FileInfo) (api.Track, error)

// Scanner expands a directory into tracks, probing files on a bounded pool
// of workers
type Scanner struct {
	workers int
	read    readFunc
}

// NewScanner creates a scanner running up to workers probes at once
func NewScanner(workers int, read readFunc) *Scanner {
	if workers <= 0 {
		workers = 4
	}
	return &Scanner{workers: workers, read: read}
}

type scanJob struct {
	path string
	info fs.FileInfo
}

// Scan walks root and returns its playable tracks sorted by URI. Files that
// fail to probe are returned as skipped rather than failing the scan; an
// unreadable root or a cancelled ctx does fail it.
func (s *Scanner) Scan(ctx context.Context, root string) (found []api.Track, skipped []error, err error) {
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan scanJob)

	var mu sync.Mutex
	skip := func(path string, err error) {
		mu.Lock()
		skipped = append(skipped, &playerrors.ScanError{Path: path, Err: err})
		mu.Unlock()
	}

	g.Go(func() error {
		defer close(jobs)
		return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if p == root {
					return err
				}
				skip(p, err)
				return nil
			}
			if d.IsDir() || !audio.IsSupported(p) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				skip(p, err)
				return nil
			}
			select {
			case jobs <- scanJob{path: p, info: info}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	for range s.workers {
		g.Go(func() error {
			for job := range jobs {
				if gctx.Err() != nil {
					continue
				}
				track, err := s.read(job.path, job.info)
				if err != nil {
					skip(job.path, err)
					continue
				}
				mu.Lock()
				found = append(found, track)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, skipped, err
	}
	slices.SortFunc(found, func(a, b api.Track) int {
		return cmp.Compare(a.URI, b.URI)
	})
	return found, skipped, nil
}
