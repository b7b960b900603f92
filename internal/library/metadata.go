package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/jscyril/hsm/api"
	"github.com/jscyril/hsm/internal/audio"
)

// MetadataReader extracts metadata from audio files
type MetadataReader struct{}

// NewMetadataReader creates a new metadata reader
func NewMetadataReader() *MetadataReader {
	return &MetadataReader{}
}

// Read probes an audio file and returns a Track without an ID. A file
// that cannot be decoded is an error; missing tags are not.
func (r *MetadataReader) Read(filePath string) (api.Track, error) {
	duration, err := audio.Probe(filePath)
	if err != nil {
		return api.Track{}, err
	}

	track := api.Track{
		URI:      api.FileURI(filePath),
		Title:    baseTitle(filePath),
		Duration: duration,
	}

	file, err := os.Open(filePath)
	if err != nil {
		return api.Track{}, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	// Try to read metadata tags
	metadata, err := tag.ReadFrom(file)
	if err != nil {
		return track, nil
	}

	track.Title = getOrDefault(metadata.Title(), track.Title)
	track.Artist = metadata.Artist()
	if track.Artist == "" {
		track.Artist = metadata.AlbumArtist()
	}
	track.Album = metadata.Album()
	track.Genre = metadata.Genre()
	track.Year = metadata.Year()
	track.TrackNum, _ = metadata.Track()

	return track, nil
}

// baseTitle derives a display title from the file name
func baseTitle(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// getOrDefault returns the value if non-empty, otherwise returns the default
func getOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
