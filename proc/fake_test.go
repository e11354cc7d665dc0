package proc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/RobertIonutF/rmusico/track"
)

type fakeTransport struct {
	mu       sync.Mutex
	played   []string
	streams  []*Stream
	fail     map[string]bool
	panics   map[string]bool
	noVolume bool
	delay    time.Duration
	connects []snowflake.ID
	paused   int
	resumed  int
	stopped  int
	closed   bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{fail: map[string]bool{}, panics: map[string]bool{}}
}

func (f *fakeTransport) Connect(_ context.Context, channelID snowflake.ID) error {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects = append(f.connects, channelID)
	return nil
}

func (f *fakeTransport) Play(_ context.Context, rec track.Record, volume int) (*Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, rec.ID)
	if f.panics[rec.ID] {
		panic("decoder blew up on " + rec.ID)
	}
	if f.fail[rec.ID] {
		return nil, errors.New("cannot open")
	}
	var vol *atomic.Int32
	if !f.noVolume {
		vol = &atomic.Int32{}
		vol.Store(int32(volume))
	}
	var st *Stream
	st = NewStream(rec, func() { st.Finish(context.Canceled) }, vol)
	f.streams = append(f.streams, st)
	return st, nil
}

func (f *fakeTransport) Pause()  { f.mu.Lock(); f.paused++; f.mu.Unlock() }
func (f *fakeTransport) Resume() { f.mu.Lock(); f.resumed++; f.mu.Unlock() }
func (f *fakeTransport) Stop()   { f.mu.Lock(); f.stopped++; f.mu.Unlock() }

func (f *fakeTransport) Close(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeTransport) playedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.played...)
}

// finishCurrent ends the most recent stream as if it ran out.
func (f *fakeTransport) finishCurrent() {
	f.mu.Lock()
	st := f.streams[len(f.streams)-1]
	f.mu.Unlock()
	st.Finish(nil)
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func playable(id string) track.Record {
	r := track.New(id, "title "+id, "up")
	r.StreamURL = "https://stream.example/" + id
	r.Strategy = track.StrategyPersona
	return r
}

// eventually polls cond for up to a second.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
