package proc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/disgoorg/snowflake/v2"

	"github.com/RobertIonutF/rmusico/track"
)

var (
	ErrNoVolumeControl = errors.New("stream does not support volume control")
	ErrNotConnected    = errors.New("not connected to voice")
)

// Transport plays records into one guild's voice connection.
type Transport interface {
	Connect(ctx context.Context, channelID snowflake.ID) error
	// Play starts rec at volume percent. The returned stream reports its end
	// on Done exactly once.
	Play(ctx context.Context, rec track.Record, volume int) (*Stream, error)
	Pause()
	Resume()
	Stop()
	Close(ctx context.Context)
}

// Stream is one playing record.
type Stream struct {
	Record track.Record

	done   chan error
	once   sync.Once
	cancel context.CancelFunc
	volume *atomic.Int32
}

// NewStream wraps a running playback. volume is nil when the pipeline cannot
// scale samples.
func NewStream(rec track.Record, cancel context.CancelFunc, volume *atomic.Int32) *Stream {
	return &Stream{Record: rec, done: make(chan error, 1), cancel: cancel, volume: volume}
}

func (s *Stream) Done() <-chan error { return s.done }

// Finish reports the end of playback. Later calls are ignored.
func (s *Stream) Finish(err error) {
	s.once.Do(func() { s.done <- err })
}

// Stop cancels playback. Done still fires.
func (s *Stream) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Stream) SupportsVolumeControl() bool { return s.volume != nil }

func (s *Stream) SetVolume(pct int) error {
	if s.volume == nil {
		return ErrNoVolumeControl
	}
	s.volume.Store(int32(clampVolume(pct)))
	return nil
}

func clampVolume(pct int) int {
	return max(0, min(pct, 100))
}
