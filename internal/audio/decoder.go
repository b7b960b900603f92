package audio

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	playerrors "github.com/jscyril/hsm/pkg/errors"
)

// SupportedFormats returns list of supported audio formats
func SupportedFormats() []string {
	return []string{".mp3", ".wav", ".flac", ".ogg"}
}

// SupportedMimeTypes lists the MIME types matching SupportedFormats
func SupportedMimeTypes() []string {
	return []string{"audio/mpeg", "audio/wav", "audio/x-wav", "audio/flac", "audio/ogg"}
}

// IsSupported checks if a file format is supported
func IsSupported(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// DecodeAudio decodes an audio file based on its extension
func DecodeAudio(r io.ReadSeekCloser, filePath string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".mp3":
		return mp3.Decode(r)
	case ".wav":
		return wav.Decode(r)
	case ".flac":
		return flac.Decode(r)
	case ".ogg":
		return vorbis.Decode(r)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", playerrors.ErrInvalidFormat, ext)
	}
}

// Probe decodes the file header and returns the track length
func Probe(filePath string) (time.Duration, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}

	streamer, format, err := DecodeAudio(file, filePath)
	if err != nil {
		file.Close()
		return 0, fmt.Errorf("decode: %w", err)
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}

// gain maps a linear 0..1 level onto effects.Volume with Base 2
func gain(level float64) (volume float64, silent bool) {
	if level <= 0 {
		return 0, true
	}
	if level > 1 {
		level = 1
	}
	return math.Log2(level), false
}
