package proc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/mo"

	"github.com/RobertIonutF/rmusico/queue"
	"github.com/RobertIonutF/rmusico/sys"
	"github.com/RobertIonutF/rmusico/track"
)

var ErrSessionClosed = errors.New("session closed")

type finished struct {
	gen uint64
	err error
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	Current   mo.Option[track.Record]
	Pending   []track.Record
	Size      int
	Loop      bool
	Paused    bool
	Volume    int
	Playing   bool
}

// Session owns one guild's queue and transport. Every queue mutation runs on
// the run goroutine.
type Session struct {
	GuildID snowflake.ID

	transport Transport
	queue     *queue.Queue
	cmds      chan func()
	events    chan finished
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}

	// owned by run
	channelID snowflake.ID
	stream    *Stream
	gen       uint64
	paused    bool
	volume    int

	idleMu sync.Mutex
	idle   *time.Timer
}

func newSession(guildID, channelID snowflake.ID, t Transport, volume int) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		GuildID:   guildID,
		transport: t,
		queue:     queue.New(),
		cmds:      make(chan func()),
		events:    make(chan finished, 1),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		channelID: channelID,
		volume:    clampVolume(volume),
	}
	go s.run()
	return s
}

func (s *Session) run() {
	defer close(s.done)
	defer s.cancel()
	defer func() {
		if r := recover(); r != nil {
			sys.LogError(sys.MsgSessionPanic, s.GuildID, r)
		}
	}()
	for {
		select {
		case <-s.ctx.Done():
			s.stopCurrent()
			return
		case fn := <-s.cmds:
			fn()
		case ev := <-s.events:
			if ev.gen != s.gen || s.stream == nil {
				continue
			}
			sys.LogVoice(sys.MsgVoiceFinished, s.GuildID, s.stream.Record.Title, ev.err)
			s.stream = nil
			s.advance(false)
		}
	}
}

// Do runs fn on the session goroutine and waits for it.
func (s *Session) Do(fn func()) error {
	ran := make(chan struct{})
	select {
	case s.cmds <- func() { fn(); close(ran) }:
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
	select {
	case <-ran:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) advance(skip bool) {
	var next mo.Option[track.Record]
	if skip {
		next = s.queue.Skip()
	} else {
		next = s.queue.Next()
	}
	for {
		rec, ok := next.Get()
		if !ok {
			sys.LogQueue(sys.MsgQueueDrained, s.GuildID)
			return
		}
		if err := s.start(rec); err == nil {
			sys.LogQueue(sys.MsgQueueNext, s.GuildID, rec.Title)
			return
		}
		next = s.queue.Skip()
	}
}

func (s *Session) start(rec track.Record) error {
	s.gen++
	gen := s.gen
	stream, err := s.transport.Play(s.ctx, rec, s.volume)
	if err != nil {
		sys.LogVoice(sys.MsgVoicePlayFailed, s.GuildID, rec.Title, err)
		return err
	}
	s.stream = stream
	s.paused = false
	sys.LogVoice(sys.MsgVoicePlaying, s.GuildID, rec.Title)

	go func() {
		select {
		case err := <-stream.Done():
			select {
			case s.events <- finished{gen: gen, err: err}:
			case <-s.ctx.Done():
			}
		case <-s.ctx.Done():
		}
	}()
	return nil
}

func (s *Session) stopCurrent() {
	if s.stream == nil {
		return
	}
	s.gen++
	s.stream.Stop()
	s.stream = nil
	s.transport.Stop()
}

// Enqueue appends rec and starts playback when idle. started reports whether
// rec began playing immediately.
func (s *Session) Enqueue(rec track.Record) (pos int, started bool, err error) {
	derr := s.Do(func() {
		pos, err = s.queue.Enqueue(rec)
		if err != nil {
			return
		}
		sys.LogQueue(sys.MsgQueueEnqueued, s.GuildID, rec.Title, s.queue.Size())
		if s.stream == nil {
			s.advance(false)
			started = s.stream != nil
		}
	})
	if derr != nil {
		return 0, false, derr
	}
	return pos, started, err
}

// Skip stops the current track and advances regardless of loop.
func (s *Session) Skip() (next mo.Option[track.Record], err error) {
	err = s.Do(func() {
		s.stopCurrent()
		s.advance(true)
		next = s.queue.Current()
	})
	return next, err
}

// Stop ends playback and clears the queue.
func (s *Session) Stop() error {
	return s.Do(func() {
		s.stopCurrent()
		s.queue.Clear()
		s.paused = false
	})
}

func (s *Session) Pause() (changed bool, err error) {
	err = s.Do(func() {
		if s.stream == nil || s.paused {
			return
		}
		s.transport.Pause()
		s.paused, changed = true, true
	})
	return changed, err
}

func (s *Session) Resume() (changed bool, err error) {
	err = s.Do(func() {
		if s.stream == nil || !s.paused {
			return
		}
		s.transport.Resume()
		s.paused, changed = false, true
	})
	return changed, err
}

// Clear empties the queue. A track already playing runs to its end and
// nothing follows it.
func (s *Session) Clear() (n int, err error) {
	err = s.Do(func() {
		n = s.queue.Size()
		s.queue.Clear()
	})
	return n, err
}

func (s *Session) Shuffle() (n int, err error) {
	err = s.Do(func() {
		s.queue.Shuffle()
		n = s.queue.Size()
	})
	return n, err
}

// ToggleLoop flips loop and returns the new state.
func (s *Session) ToggleLoop() (on bool, err error) {
	err = s.Do(func() {
		s.queue.SetLoop(!s.queue.Loop())
		on = s.queue.Loop()
	})
	return on, err
}

// SetVolume applies pct to the current stream and later ones. It fails when
// the current stream has no volume control.
func (s *Session) SetVolume(pct int) (err error) {
	derr := s.Do(func() {
		pct = clampVolume(pct)
		if s.stream != nil {
			if err = s.stream.SetVolume(pct); err != nil {
				return
			}
		}
		s.volume = pct
	})
	if derr != nil {
		return derr
	}
	return err
}

func (s *Session) SetChannel(id snowflake.ID) error {
	return s.Do(func() { s.channelID = id })
}

// Closed reports whether the run goroutine has exited.
func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) Snapshot(maxPending int) (snap Snapshot, err error) {
	err = s.Do(func() {
		snap = Snapshot{
			GuildID:   s.GuildID,
			ChannelID: s.channelID,
			Current:   s.nowPlaying(),
			Pending:   s.queue.Pending(maxPending),
			Size:      s.queue.Size(),
			Loop:      s.queue.Loop(),
			Paused:    s.paused,
			Volume:    s.volume,
			Playing:   s.stream != nil,
		}
	})
	return snap, err
}

func (s *Session) nowPlaying() mo.Option[track.Record] {
	if s.stream != nil {
		return mo.Some(s.stream.Record)
	}
	return mo.None[track.Record]()
}

// armIdle schedules fire after d unless disarmed first.
func (s *Session) armIdle(d time.Duration, fire func()) {
	s.idleMu.Lock()
	defer s.idleMu.Unlock()
	if s.idle != nil {
		return
	}
	s.idle = time.AfterFunc(d, func() {
		s.idleMu.Lock()
		s.idle = nil
		s.idleMu.Unlock()
		fire()
	})
}

func (s *Session) disarmIdle() {
	s.idleMu.Lock()
	defer s.idleMu.Unlock()
	if s.idle != nil {
		s.idle.Stop()
		s.idle = nil
	}
}

func (s *Session) close(ctx context.Context) {
	s.disarmIdle()
	s.cancel()
	<-s.done
	s.transport.Close(ctx)
}
