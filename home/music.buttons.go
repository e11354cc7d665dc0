package home

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"

	"github.com/RobertIonutF/rmusico/proc"
	"github.com/RobertIonutF/rmusico/sys"
)

const buttonPrefix = "music:"

const (
	actionPause   = "pause"
	actionSkip    = "skip"
	actionStop    = "stop"
	actionShuffle = "shuffle"
	actionLoop    = "loop"
	actionVolDown = "voldown"
	actionVolUp   = "volup"
	actionMute    = "mute"
)

const volumeStep = 10

// stepVolume returns the volume a button press moves cur to.
func stepVolume(cur int, action string) int {
	switch action {
	case actionVolDown:
		cur -= volumeStep
	case actionVolUp:
		cur += volumeStep
	case actionMute:
		cur = 0
	}
	return max(0, min(100, cur))
}

func handleButton(event *events.ComponentInteractionCreate) {
	action := strings.TrimPrefix(event.Data.CustomID(), buttonPrefix)
	if event.GuildID() == nil || manager == nil {
		return
	}
	s, ok := manager.Session(*event.GuildID())
	if !ok {
		_ = event.CreateMessage(discord.NewMessageCreateBuilder().
			SetIsComponentsV2(true).
			AddComponents(notice(sys.MsgUserNothingPlaying)).
			SetEphemeral(true).
			Build())
		return
	}

	note, err := applyButton(s, action)
	if err != nil {
		_ = event.CreateMessage(discord.NewMessageCreateBuilder().
			SetIsComponentsV2(true).
			AddComponents(notice(userMessage(err))).
			SetEphemeral(true).
			Build())
		return
	}

	snap, err := s.Snapshot(0)
	if err != nil {
		event.DeferUpdateMessage()
		return
	}
	_ = event.UpdateMessage(discord.NewMessageUpdateBuilder().
		SetIsComponentsV2(true).
		SetComponents(playerPanel(snap, fmt.Sprintf("-# %s · <@%s>", note, event.User().ID))).
		Build())
}

// applyButton runs action on s and returns a short note for the panel.
func applyButton(s *proc.Session, action string) (string, error) {
	switch action {
	case actionPause:
		snap, err := s.Snapshot(0)
		if err != nil {
			return "", err
		}
		if snap.Paused {
			_, err = s.Resume()
			return sys.MsgUserResumed, err
		}
		_, err = s.Pause()
		return sys.MsgUserPaused, err
	case actionSkip:
		next, err := s.Skip()
		if rec, ok := next.Get(); ok {
			return fmt.Sprintf(sys.MsgUserSkipped, rec.Title), err
		}
		return sys.MsgUserSkippedEnd, err
	case actionStop:
		return sys.MsgUserStopped, s.Stop()
	case actionShuffle:
		n, err := s.Shuffle()
		return fmt.Sprintf(sys.MsgUserShuffled, n), err
	case actionLoop:
		on, err := s.ToggleLoop()
		if on {
			return sys.MsgUserLoopOn, err
		}
		return sys.MsgUserLoopOff, err
	case actionVolDown, actionVolUp, actionMute:
		snap, err := s.Snapshot(0)
		if err != nil {
			return "", err
		}
		vol := stepVolume(snap.Volume, action)
		return fmt.Sprintf(sys.MsgUserVolume, vol), s.SetVolume(vol)
	}
	return "", fmt.Errorf("unknown control %q", action)
}
