package audio

import (
	"context"
	"io"
	"sync"
	"time"
)

var (
	OpusSilence     = []byte{0xf8, 0xff, 0xfe}
	SilenceDuration = 1 * time.Second
)

// StreamProvider feeds transcoded Opus frames to the voice connection. A nil
// frame marks the end of input; the provider then sends SilenceDuration of
// silence and finishes.
type StreamProvider struct {
	frames        chan []byte
	OnFinish      func()
	once          sync.Once
	ctx           context.Context
	draining      bool
	silenceFrames int

	pauseMu   sync.RWMutex
	pauseChan chan struct{}
}

func NewStreamProvider(ctx context.Context) *StreamProvider {
	p := &StreamProvider{
		frames:    make(chan []byte, 100),
		ctx:       ctx,
		pauseChan: make(chan struct{}),
	}
	close(p.pauseChan)
	return p
}

func (p *StreamProvider) Close() {
	p.once.Do(func() {
		if p.OnFinish != nil {
			p.OnFinish()
		}
	})
}

func (p *StreamProvider) PushFrame(f []byte) {
	select {
	case p.frames <- f:
	case <-p.ctx.Done():
	}
}

func (p *StreamProvider) Pause() {
	p.pauseMu.Lock()
	defer p.pauseMu.Unlock()
	select {
	case <-p.pauseChan:
		p.pauseChan = make(chan struct{})
	default:
	}
}

func (p *StreamProvider) Resume() {
	p.pauseMu.Lock()
	defer p.pauseMu.Unlock()
	select {
	case <-p.pauseChan:
	default:
		close(p.pauseChan)
	}
}

func (p *StreamProvider) Paused() bool {
	p.pauseMu.RLock()
	defer p.pauseMu.RUnlock()
	select {
	case <-p.pauseChan:
		return false
	default:
		return true
	}
}

// ProvideOpusFrame implements voice.OpusFrameProvider.
func (p *StreamProvider) ProvideOpusFrame() ([]byte, error) {
	p.pauseMu.RLock()
	pauseChan := p.pauseChan
	p.pauseMu.RUnlock()

	select {
	case <-pauseChan:
	case <-p.ctx.Done():
		p.Close()
		return nil, io.EOF
	}

	if p.draining {
		target := int(SilenceDuration.Milliseconds() / 20)
		if p.silenceFrames < target {
			p.silenceFrames++
			return OpusSilence, nil
		}
		p.Close()
		return nil, io.EOF
	}

	select {
	case f := <-p.frames:
		if f == nil {
			p.draining = true
			return OpusSilence, nil
		}
		return f, nil
	case <-p.ctx.Done():
		p.Close()
		return nil, io.EOF
	case <-time.After(500 * time.Millisecond):
		return OpusSilence, nil
	}
}
