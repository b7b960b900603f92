package mpris

import (
	"reflect"

	"github.com/rs/zerolog"

	"github.com/jscyril/hsm/api"
)

// propertyStore is the subset of *prop.Properties the notifier uses
type propertyStore interface {
	GetMust(iface, property string) interface{}
	SetMust(iface, property string, v interface{})
}

// emitFunc sends a signal on the player object
type emitFunc func(name string, values ...interface{}) error

// notifier mirrors snapshots into bus properties. A property is only
// written when its value changes, and prop.Properties emits
// PropertiesChanged for each write, so notifications are edge-triggered.
type notifier struct {
	store  propertyStore
	emit   emitFunc
	logger zerolog.Logger

	// track is the ID of the track in the previous snapshot
	track string
}

func (n *notifier) apply(snap api.Snapshot) {
	n.update("PlaybackStatus", playbackStatus(snap.Status))
	n.update("LoopStatus", loopStatus(snap.Loop))
	n.update("Volume", snap.Volume)
	n.update("Metadata", metadata(snap.Current))
	n.update("CanGoNext", snap.CanNext)
	n.update("CanGoPrevious", snap.CanPrevious)
	// A client may have written Rate 0 to pause
	n.update("Rate", 1.0)
	// Position is declared without change signals
	n.update("Position", micros(snap.Position))

	prev := n.track
	n.track = ""
	if snap.Current != nil {
		n.track = snap.Current.ID
	}

	// A seek that ran off the end is a track change, not a jump
	seek := snap.Cause == api.CmdSeek.String() || snap.Cause == api.CmdSeekTo.String()
	if seek && n.track != "" && n.track == prev {
		if err := n.emit(playerIface+".Seeked", micros(snap.Position)); err != nil {
			n.logger.Warn().Err(err).Msg("failed to emit Seeked")
		}
	}
}

func (n *notifier) update(property string, v interface{}) bool {
	if reflect.DeepEqual(n.store.GetMust(playerIface, property), v) {
		return false
	}
	n.store.SetMust(playerIface, property, v)
	return true
}
