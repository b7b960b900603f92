package api

import "time"

// CommandKind identifies a player command
type CommandKind int

const (
	CmdPlayPause CommandKind = iota
	CmdPlay
	CmdPause
	CmdStop
	CmdNext
	CmdPrevious
	CmdSeek
	CmdSeekTo
	CmdSetVolume
	CmdSetLoopMode
	CmdEnqueue
	CmdClear
	CmdStatus
	CmdShutdown
)

var commandNames = map[CommandKind]string{
	CmdPlayPause:   "play-pause",
	CmdPlay:        "play",
	CmdPause:       "pause",
	CmdStop:        "stop",
	CmdNext:        "next",
	CmdPrevious:    "previous",
	CmdSeek:        "seek",
	CmdSeekTo:      "seek-to",
	CmdSetVolume:   "set-volume",
	CmdSetLoopMode: "set-loop",
	CmdEnqueue:     "enqueue",
	CmdClear:       "clear",
	CmdStatus:      "status",
	CmdShutdown:    "shutdown",
}

func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "unknown"
}

// CommandKindByName looks up a command by its wire name
func CommandKindByName(name string) (CommandKind, bool) {
	for k, n := range commandNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// InsertPosition says where enqueued tracks go
type InsertPosition int

const (
	InsertEnd InsertPosition = iota
	InsertNext
	InsertStart
	InsertReplace
)

func (p InsertPosition) String() string {
	switch p {
	case InsertNext:
		return "next"
	case InsertStart:
		return "start"
	case InsertReplace:
		return "replace"
	default:
		return "end"
	}
}

// Command is a producer-agnostic player command. Only the fields relevant to
// Kind are read.
type Command struct {
	Kind     CommandKind
	Offset   time.Duration  // Seek
	Position time.Duration  // SeekTo
	TrackID  string         // SeekTo: apply only while this track is current
	Volume   float64        // SetVolume
	Loop     LoopMode       // SetLoopMode
	Tracks   []Track        // Enqueue
	Insert   InsertPosition // Enqueue
	Soft     bool           // Previous
}

func Play() Command { return Command{Kind: CmdPlay} }
func Pause() Command { return Command{Kind: CmdPause} }
func PlayPause() Command { return Command{Kind: CmdPlayPause} }
func Stop() Command { return Command{Kind: CmdStop} }
func Next() Command { return Command{Kind: CmdNext} }
func Clear() Command { return Command{Kind: CmdClear} }
func Status() Command { return Command{Kind: CmdStatus} }
func Shutdown() Command { return Command{Kind: CmdShutdown} }

// Previous goes back one track. A soft previous restarts the current track
// instead when it has played for a while.
func Previous(soft bool) Command { return Command{Kind: CmdPrevious, Soft: soft} }

// Seek moves the position by a signed offset
func Seek(offset time.Duration) Command { return Command{Kind: CmdSeek, Offset: offset} }

// SeekTo moves the position to an absolute point in the current track
func SeekTo(pos time.Duration) Command { return Command{Kind: CmdSeekTo, Position: pos} }

func SetVolume(v float64) Command { return Command{Kind: CmdSetVolume, Volume: v} }
func SetLoopMode(m LoopMode) Command { return Command{Kind: CmdSetLoopMode, Loop: m} }

// Enqueue inserts tracks into the queue at pos
func Enqueue(pos InsertPosition, tracks ...Track) Command {
	return Command{Kind: CmdEnqueue, Insert: pos, Tracks: tracks}
}
