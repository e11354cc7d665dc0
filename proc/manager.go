// Package proc runs one playback session per guild on top of the resolver
// and search adapter.
package proc

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/lo"

	"github.com/RobertIonutF/rmusico/extract"
	"github.com/RobertIonutF/rmusico/search"
	"github.com/RobertIonutF/rmusico/sys"
	"github.com/RobertIonutF/rmusico/track"
)

// TransportFactory creates the transport for a new guild session.
type TransportFactory func(guildID snowflake.ID) Transport

type Options struct {
	DefaultVolume int
	IdleTimeout   time.Duration
	// IsAlone reports whether the bot is the only member left in channelID.
	IsAlone func(guildID, channelID snowflake.ID) bool
}

// Manager owns the per-guild sessions.
type Manager struct {
	Resolver *extract.Resolver
	Search   *search.Adapter

	newTransport TransportFactory
	opts         Options

	mu       sync.Mutex
	sessions map[snowflake.ID]*Session
	joins    map[snowflake.ID]chan struct{}
}

const reapTimeout = 10 * time.Second

func NewManager(resolver *extract.Resolver, adapter *search.Adapter, newTransport TransportFactory, opts Options) *Manager {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = time.Minute
	}
	if opts.DefaultVolume <= 0 {
		opts.DefaultVolume = 50
	}
	return &Manager{
		Resolver:     resolver,
		Search:       adapter,
		newTransport: newTransport,
		opts:         opts,
		sessions:     make(map[snowflake.ID]*Session),
		joins:        make(map[snowflake.ID]chan struct{}),
	}
}

// Session returns the guild's live session. A session whose run goroutine
// crashed is dropped and reported as missing.
func (m *Manager) Session(guildID snowflake.ID) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[guildID]
	m.mu.Unlock()
	if ok && s.Closed() {
		m.reap(guildID, s)
		return nil, false
	}
	return s, ok
}

// Sessions returns every live session.
func (m *Manager) Sessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Filter(lo.Values(m.sessions), func(s *Session, _ int) bool {
		return !s.Closed()
	})
}

// lockGuild serializes voice connection changes for one guild. disgo shares
// a single conn per guild between transports.
func (m *Manager) lockGuild(ctx context.Context, guildID snowflake.ID) (func(), error) {
	m.mu.Lock()
	l, ok := m.joins[guildID]
	if !ok {
		l = make(chan struct{}, 1)
		m.joins[guildID] = l
	}
	m.mu.Unlock()

	select {
	case l <- struct{}{}:
		return func() { <-l }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Join returns the guild's session, connecting to channelID first when none
// exists yet or when the bot sits in another channel.
func (m *Manager) Join(ctx context.Context, guildID, channelID snowflake.ID) (*Session, error) {
	unlock, err := m.lockGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	m.mu.Lock()
	s, ok := m.sessions[guildID]
	m.mu.Unlock()

	if ok {
		snap, err := s.Snapshot(0)
		if err == nil && snap.ChannelID == channelID {
			return s, nil
		}
		if err == nil {
			if err := s.transport.Connect(ctx, channelID); err != nil {
				return nil, err
			}
			if err := s.SetChannel(channelID); err == nil {
				return s, nil
			}
		}
		if m.drop(guildID, s) {
			s.close(ctx)
		}
	}

	t := m.newTransport(guildID)
	if err := t.Connect(ctx, channelID); err != nil {
		return nil, err
	}
	s = newSession(guildID, channelID, t, m.opts.DefaultVolume)

	m.mu.Lock()
	m.sessions[guildID] = s
	m.mu.Unlock()
	return s, nil
}

// Play resolves input, joins channelID and enqueues the record. A
// descriptive-only result comes back as *search.DescriptiveError.
func (m *Manager) Play(ctx context.Context, guildID, channelID snowflake.ID, input string) (rec track.Record, pos int, started bool, err error) {
	rec, err = m.Search.Resolve(ctx, input)
	if err != nil {
		return rec, 0, false, err
	}
	s, err := m.Join(ctx, guildID, channelID)
	if err != nil {
		return rec, 0, false, err
	}
	pos, started, err = s.Enqueue(rec)
	return rec, pos, started, err
}

// Leave closes the guild's session and reports whether one existed.
func (m *Manager) Leave(ctx context.Context, guildID snowflake.ID) bool {
	unlock, err := m.lockGuild(ctx, guildID)
	if err != nil {
		return false
	}
	defer unlock()

	m.mu.Lock()
	s, ok := m.sessions[guildID]
	if ok {
		delete(m.sessions, guildID)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.close(ctx)
	sys.LogVoice(sys.MsgVoiceLeft, guildID)
	return true
}

func (m *Manager) drop(guildID snowflake.ID, s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[guildID] != s {
		return false
	}
	delete(m.sessions, guildID)
	return true
}

// reap removes a crashed session and releases its transport.
func (m *Manager) reap(guildID snowflake.ID, s *Session) {
	unlock, err := m.lockGuild(context.Background(), guildID)
	if err != nil {
		return
	}
	defer unlock()
	if !m.drop(guildID, s) {
		return
	}
	sys.LogError(sys.MsgSessionReaped, guildID)
	ctx, cancel := context.WithTimeout(context.Background(), reapTimeout)
	defer cancel()
	s.close(ctx)
}

// Shutdown closes every session.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[snowflake.ID]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.close(ctx)
		}()
	}
	wg.Wait()
}

// NoteOccupancy arms or disarms the idle timer for a guild. When the timer
// fires the bot leaves only if it is still alone.
func (m *Manager) NoteOccupancy(guildID snowflake.ID, alone bool) {
	s, ok := m.Session(guildID)
	if !ok {
		return
	}
	if !alone {
		s.disarmIdle()
		return
	}
	sys.LogVoice(sys.MsgVoiceIdleLeave, guildID, m.opts.IdleTimeout)
	s.armIdle(m.opts.IdleTimeout, func() {
		snap, err := s.Snapshot(0)
		if err != nil {
			return
		}
		if m.opts.IsAlone != nil && !m.opts.IsAlone(guildID, snap.ChannelID) {
			return
		}
		if cur, ok := m.Session(guildID); ok && cur == s {
			m.Leave(context.Background(), guildID)
		}
	})
}
