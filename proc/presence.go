package proc

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/gateway"

	"github.com/RobertIonutF/rmusico/sys"
)

// DefaultPresence is shown when no generator has anything to say.
const DefaultPresence = "/play"

// RotationInterval picks the delay before the next presence change.
func RotationInterval() time.Duration {
	return time.Duration(15+rand.IntN(46)) * time.Second
}

// PresenceRotator cycles the bot's listening activity through what the
// manager is doing.
type PresenceRotator struct {
	manager *Manager
	last    string
}

func NewPresenceRotator(m *Manager) *PresenceRotator {
	return &PresenceRotator{manager: m}
}

// Candidates returns every non-empty presence text.
func (p *PresenceRotator) Candidates() []string {
	var out []string
	sessions, playing, queued := 0, 0, 0
	var title string
	for _, s := range p.manager.Sessions() {
		snap, err := s.Snapshot(1)
		if err != nil {
			continue
		}
		sessions++
		queued += snap.Size
		if cur, ok := snap.Current.Get(); ok && snap.Playing {
			playing++
			title = cur.Title
		}
	}
	if playing == 1 && title != "" {
		out = append(out, title)
	}
	if sessions > 0 {
		out = append(out, fmt.Sprintf("music in %d server(s)", sessions))
	}
	if queued > 0 {
		out = append(out, fmt.Sprintf("%d queued track(s)", queued))
	}
	return append(out, DefaultPresence)
}

// Next picks a candidate, avoiding the previous one when possible.
func (p *PresenceRotator) Next() string {
	all := p.Candidates()
	choices := make([]string, 0, len(all))
	for _, c := range all {
		if c != p.last {
			choices = append(choices, c)
		}
	}
	if len(choices) == 0 {
		choices = all
	}
	p.last = choices[rand.IntN(len(choices))]
	return p.last
}

// Run updates the presence until ctx ends.
func (p *PresenceRotator) Run(ctx context.Context, client *bot.Client) {
	for {
		next := RotationInterval()
		text := p.Next()
		err := client.SetPresence(ctx,
			gateway.WithOnlineStatus(discord.OnlineStatusOnline),
			gateway.WithListeningActivity(text),
		)
		if err != nil {
			sys.LogStatus(sys.MsgPresenceFailed, err)
		} else {
			sys.LogDebug(sys.MsgPresenceRotated, text, next)
		}
		select {
		case <-time.After(next):
		case <-ctx.Done():
			return
		}
	}
}
