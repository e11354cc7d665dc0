package audio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/voice"
	"github.com/disgoorg/godave/golibdave"
	"github.com/disgoorg/snowflake/v2"

	"github.com/RobertIonutF/rmusico/proc"
	"github.com/RobertIonutF/rmusico/sys"
	"github.com/RobertIonutF/rmusico/track"
)

const connectAttempts = 5

// ClientOpts enables DAVE end-to-end encryption on the client's voice manager.
func ClientOpts() []bot.ConfigOpt {
	return []bot.ConfigOpt{
		bot.WithVoiceManagerConfigOpts(
			voice.WithDaveSessionCreateFunc(golibdave.NewSession),
		),
	}
}

// VoiceTransport plays records into one guild's disgo voice connection.
type VoiceTransport struct {
	GuildID snowflake.ID

	conn   voice.Conn
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	provider *StreamProvider
	stop     context.CancelFunc
}

func NewVoiceTransport(client *bot.Client, guildID snowflake.ID) *VoiceTransport {
	ctx, cancel := context.WithCancel(context.Background())
	return &VoiceTransport{
		GuildID: guildID,
		conn:    client.VoiceManager.CreateConn(guildID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect opens the voice connection, retrying with exponential backoff.
func (t *VoiceTransport) Connect(ctx context.Context, channelID snowflake.ID) error {
	sys.LogVoice(sys.MsgVoiceJoining, channelID, t.GuildID)

	var lastErr error
	for i := range connectAttempts {
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			sys.LogVoice(sys.MsgVoiceJoinRetry, backoff, i+1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := t.conn.Open(ctx, channelID, false, false); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	sys.LogVoice(sys.MsgVoiceJoinFailed, t.GuildID, lastErr)
	t.conn.Close(ctx)
	return lastErr
}

// Play starts the pipeline in the background. Open and decode failures are
// reported through the stream's Done channel.
func (t *VoiceTransport) Play(_ context.Context, rec track.Record, volume int) (*proc.Stream, error) {
	if !rec.IsPlayable() {
		return nil, errors.New("record has no stream url")
	}
	if t.ctx.Err() != nil {
		return nil, proc.ErrNotConnected
	}

	t.mu.Lock()
	if t.stop != nil {
		t.stop()
	}
	pctx, cancel := context.WithCancel(t.ctx)
	vol := &atomic.Int32{}
	vol.Store(int32(volume))
	p := NewStreamProvider(pctx)
	finished := make(chan struct{})
	p.OnFinish = func() { close(finished) }
	t.provider, t.stop = p, cancel
	t.mu.Unlock()

	stream := proc.NewStream(rec, cancel, vol)
	errCh := make(chan error, 1)

	go func() {
		var err error
		defer func() {
			errCh <- err
			p.PushFrame(nil)
		}()
		tr := NewTranscoder(vol)
		defer tr.Close()
		if err = tr.OpenInput(rec.StreamURL); err != nil {
			sys.LogVoice(sys.MsgVoiceTranscodeFail, "OpenInput", err)
			return
		}
		if err = tr.SetupDecoder(); err != nil {
			sys.LogVoice(sys.MsgVoiceTranscodeFail, "SetupDecoder", err)
			return
		}
		if err = tr.SetupEncoder(); err != nil {
			sys.LogVoice(sys.MsgVoiceTranscodeFail, "SetupEncoder", err)
			return
		}
		err = tr.Transcode(pctx, func(f []byte) {
			if f != nil {
				p.PushFrame(f)
			}
		})
	}()

	t.setProvider(p)
	t.setSpeaking(voice.SpeakingFlagMicrophone)

	go func() {
		var err error
		select {
		case <-finished:
			select {
			case err = <-errCh:
			default:
			}
		case <-pctx.Done():
			err = pctx.Err()
		}
		cancel()

		t.mu.Lock()
		current := t.provider == p
		if current {
			t.provider, t.stop = nil, nil
		}
		t.mu.Unlock()
		if current {
			t.setProvider(nil)
			t.setSpeaking(0)
		}
		stream.Finish(err)
	}()

	return stream, nil
}

func (t *VoiceTransport) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.provider != nil {
		t.provider.Pause()
	}
}

func (t *VoiceTransport) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.provider != nil {
		t.provider.Resume()
	}
}

func (t *VoiceTransport) Stop() {
	t.mu.Lock()
	stop := t.stop
	t.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (t *VoiceTransport) Close(ctx context.Context) {
	t.Stop()
	t.cancel()
	t.conn.Close(ctx)
}

func (t *VoiceTransport) setProvider(p voice.OpusFrameProvider) {
	for i := range 3 {
		if t.trySetProvider(p) {
			return
		}
		if i < 2 {
			time.Sleep(150 * time.Millisecond)
		}
	}
}

func (t *VoiceTransport) trySetProvider(p voice.OpusFrameProvider) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	t.conn.SetOpusFrameProvider(p)
	return true
}

func (t *VoiceTransport) setSpeaking(flags voice.SpeakingFlags) {
	defer func() { _ = recover() }()
	_ = t.conn.SetSpeaking(t.ctx, flags)
}
