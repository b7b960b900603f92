package library

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jscyril/hsm/api"
	"github.com/jscyril/hsm/internal/audio"
	playerrors "github.com/jscyril/hsm/pkg/errors"
)

type cacheEntry struct {
	track   api.Track
	modTime time.Time
	size    int64
}

// Library resolves URIs into playable tracks. Probed metadata is cached by
// path and reused until the file changes.
type Library struct {
	cache   map[string]cacheEntry
	mu      sync.RWMutex
	reader  *MetadataReader
	scanner *Scanner
	logger  zerolog.Logger
}

// NewLibrary creates a new empty library
func NewLibrary(workers int, logger zerolog.Logger) *Library {
	l := &Library{
		cache:  make(map[string]cacheEntry),
		reader: NewMetadataReader(),
		logger: logger.With().Str("component", "library").Logger(),
	}
	l.scanner = NewScanner(workers, l.read)
	return l
}

// PathFromURI accepts an absolute path or a file:// URI
func PathFromURI(uri string) (string, error) {
	if strings.Contains(uri, "://") {
		u, err := url.Parse(uri)
		if err != nil {
			return "", fmt.Errorf("parse uri: %w", err)
		}
		if u.Scheme != "file" {
			return "", fmt.Errorf("%w: %s", playerrors.ErrUnsupportedURI, u.Scheme)
		}
		if u.Host != "" && u.Host != "localhost" {
			return "", fmt.Errorf("%w: remote host %s", playerrors.ErrUnsupportedURI, u.Host)
		}
		return filepath.Clean(u.Path), nil
	}
	if !filepath.IsAbs(uri) {
		return "", fmt.Errorf("path must be absolute: %s", uri)
	}
	return filepath.Clean(uri), nil
}

// Resolve turns every URI into one or more tracks. Directories expand to
// the supported files beneath them in path order. The whole call fails if
// any URI cannot be resolved, so a command never half-applies.
func (l *Library) Resolve(ctx context.Context, uris []string) ([]api.Track, error) {
	var result []api.Track
	for _, uri := range uris {
		tracks, err := l.resolveOne(ctx, uri)
		if err != nil {
			return nil, playerrors.NewPlayerError(playerrors.KindCommand, "resolve", uri, err)
		}
		result = append(result, tracks...)
	}

	for i := range result {
		result[i].ID = newTrackID()
	}
	return result, nil
}

func (l *Library) resolveOne(ctx context.Context, uri string) ([]api.Track, error) {
	path, err := PathFromURI(uri)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, playerrors.ErrTrackNotFound
		}
		return nil, err
	}

	if info.IsDir() {
		return l.scanDir(ctx, path)
	}
	if !audio.IsSupported(path) {
		return nil, fmt.Errorf("%w: %s", playerrors.ErrInvalidFormat, filepath.Ext(path))
	}

	track, err := l.read(path, info)
	if err != nil {
		return nil, err
	}
	return []api.Track{track}, nil
}

// read returns cached metadata for path, probing the file on a miss
func (l *Library) read(path string, info os.FileInfo) (api.Track, error) {
	l.mu.RLock()
	entry, ok := l.cache[path]
	l.mu.RUnlock()
	if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.track, nil
	}

	track, err := l.reader.Read(path)
	if err != nil {
		return api.Track{}, err
	}
	l.store(path, track, info)
	return track, nil
}

func (l *Library) store(path string, track api.Track, info os.FileInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[path] = cacheEntry{track: track, modTime: info.ModTime(), size: info.Size()}
}

// scanDir expands a directory with the worker pool
func (l *Library) scanDir(ctx context.Context, dir string) ([]api.Track, error) {
	found, skipped, err := l.scanner.Scan(ctx, dir)
	for _, err := range skipped {
		l.logger.Warn().Err(err).Str("dir", dir).Msg("skipping unreadable file")
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: no playable files in %s", playerrors.ErrTrackNotFound, dir)
	}
	return found, nil
}

// Len returns the number of cached tracks
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.cache)
}

// newTrackID returns an identifier usable as a D-Bus object path element
func newTrackID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
