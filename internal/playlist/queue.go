package playlist

import (
	"errors"

	"github.com/jscyril/hsm/api"
)

// Queue is the ordered playback queue with a cursor. Insertion order is
// playback order. A cursor of -1 means nothing is selected, which is the
// case whenever the player is stopped.
//
// Queue is not safe for concurrent use; the player loop owns it.
type Queue struct {
	tracks   []api.Track
	index    int
	loopMode api.LoopMode
}

// NewQueue creates a new empty queue
func NewQueue() *Queue {
	return &Queue{
		tracks:   make([]api.Track, 0),
		index:    -1,
		loopMode: api.LoopNone,
	}
}

// Add adds tracks to the end of the queue
func (q *Queue) Add(tracks ...api.Track) {
	q.tracks = append(q.tracks, tracks...)
}

// Insert places tracks according to pos, keeping the cursor on the same track
func (q *Queue) Insert(pos api.InsertPosition, tracks ...api.Track) {
	switch pos {
	case api.InsertReplace:
		q.Set(tracks)
	case api.InsertStart:
		q.insertAt(0, tracks)
		if q.index >= 0 {
			q.index += len(tracks)
		}
	case api.InsertNext:
		q.insertAt(q.index+1, tracks)
	default:
		q.Add(tracks...)
	}
}

func (q *Queue) insertAt(at int, tracks []api.Track) {
	merged := make([]api.Track, 0, len(q.tracks)+len(tracks))
	merged = append(merged, q.tracks[:at]...)
	merged = append(merged, tracks...)
	merged = append(merged, q.tracks[at:]...)
	q.tracks = merged
}

// Set replaces the entire queue with new tracks and clears the cursor
func (q *Queue) Set(tracks []api.Track) {
	q.tracks = make([]api.Track, len(tracks))
	copy(q.tracks, tracks)
	q.index = -1
}

// Clear removes all tracks from the queue
func (q *Queue) Clear() {
	q.tracks = make([]api.Track, 0)
	q.index = -1
}

// Start selects the head of the queue. It reports false if the queue is empty.
func (q *Queue) Start() bool {
	if len(q.tracks) == 0 {
		return false
	}
	q.index = 0
	return true
}

// Reset clears the cursor so the next Start begins at the head
func (q *Queue) Reset() {
	q.index = -1
}

// Current returns the selected track
func (q *Queue) Current() (api.Track, bool) {
	if q.index < 0 || q.index >= len(q.tracks) {
		return api.Track{}, false
	}
	return q.tracks[q.index], true
}

// Next moves the cursor forward honoring the loop mode. It reports false when
// the end of the queue is reached with LoopNone; the cursor is left unchanged.
func (q *Queue) Next() bool {
	if len(q.tracks) == 0 || q.index < 0 {
		return false
	}

	switch q.loopMode {
	case api.LoopTrack:
		// Stay on current track
		return true
	case api.LoopQueue:
		q.index = (q.index + 1) % len(q.tracks)
	default:
		if q.index >= len(q.tracks)-1 {
			return false
		}
		q.index++
	}
	return true
}

// Previous moves the cursor back honoring the loop mode. It reports false at
// the head of the queue with LoopNone.
func (q *Queue) Previous() bool {
	if len(q.tracks) == 0 || q.index < 0 {
		return false
	}

	switch q.loopMode {
	case api.LoopTrack:
		return true
	case api.LoopQueue:
		q.index--
		if q.index < 0 {
			q.index = len(q.tracks) - 1
		}
	default:
		if q.index == 0 {
			return false
		}
		q.index--
	}
	return true
}

// Remove removes a track at the specified index. Removing the selected
// track moves the cursor onto its successor, or clears it if there is none.
func (q *Queue) Remove(index int) error {
	if index < 0 || index >= len(q.tracks) {
		return errors.New("index out of bounds")
	}

	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)

	// Adjust current index if needed
	if q.index > index {
		q.index--
	} else if q.index == index && q.index >= len(q.tracks) {
		q.index = -1
	}
	return nil
}

// SetLoopMode sets the loop mode
func (q *Queue) SetLoopMode(mode api.LoopMode) {
	q.loopMode = mode
}

// LoopMode returns the current loop mode
func (q *Queue) LoopMode() api.LoopMode {
	return q.loopMode
}

// Tracks returns a copy of all tracks in the queue
func (q *Queue) Tracks() []api.Track {
	result := make([]api.Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// Len returns the number of tracks in the queue
func (q *Queue) Len() int {
	return len(q.tracks)
}

// Index returns the cursor, or -1 when nothing is selected
func (q *Queue) Index() int {
	return q.index
}

// HasNext returns true if Next would move to a track
func (q *Queue) HasNext() bool {
	if q.loopMode == api.LoopQueue || q.loopMode == api.LoopTrack {
		return len(q.tracks) > 0
	}
	return q.index >= 0 && q.index < len(q.tracks)-1
}

// HasPrevious returns true if Previous would move to a track
func (q *Queue) HasPrevious() bool {
	if q.loopMode == api.LoopQueue || q.loopMode == api.LoopTrack {
		return len(q.tracks) > 0
	}
	return q.index > 0
}
