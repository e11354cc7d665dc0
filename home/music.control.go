package home

import (
	"fmt"

	"github.com/disgoorg/disgo/events"

	"github.com/RobertIonutF/rmusico/proc"
	"github.com/RobertIonutF/rmusico/sys"
)

// activeSession replies with a notice and returns false when the guild has
// no session.
func activeSession(event *events.ApplicationCommandInteractionCreate) (*proc.Session, bool) {
	if event.GuildID() == nil {
		return nil, false
	}
	s, ok := manager.Session(*event.GuildID())
	if !ok {
		replyEphemeral(event, sys.MsgUserNothingPlaying)
	}
	return s, ok
}

func handlePause(event *events.ApplicationCommandInteractionCreate) {
	s, ok := activeSession(event)
	if !ok {
		return
	}
	changed, err := s.Pause()
	if err != nil || !changed {
		replyEphemeral(event, sys.MsgUserNothingPlaying)
		return
	}
	reply(event, sys.MsgUserPaused)
}

func handleResume(event *events.ApplicationCommandInteractionCreate) {
	s, ok := activeSession(event)
	if !ok {
		return
	}
	changed, err := s.Resume()
	if err != nil || !changed {
		replyEphemeral(event, sys.MsgUserNothingPlaying)
		return
	}
	reply(event, sys.MsgUserResumed)
}

func handleStop(event *events.ApplicationCommandInteractionCreate) {
	s, ok := activeSession(event)
	if !ok {
		return
	}
	if err := s.Stop(); err != nil {
		replyEphemeral(event, userMessage(err))
		return
	}
	reply(event, sys.MsgUserStopped)
}

func handleSkip(event *events.ApplicationCommandInteractionCreate) {
	s, ok := activeSession(event)
	if !ok {
		return
	}
	next, err := s.Skip()
	if err != nil {
		replyEphemeral(event, userMessage(err))
		return
	}
	if rec, ok := next.Get(); ok {
		reply(event, fmt.Sprintf(sys.MsgUserSkipped, rec.Title))
		return
	}
	reply(event, sys.MsgUserSkippedEnd)
}

func handleClear(event *events.ApplicationCommandInteractionCreate) {
	s, ok := activeSession(event)
	if !ok {
		return
	}
	if _, err := s.Clear(); err != nil {
		replyEphemeral(event, userMessage(err))
		return
	}
	reply(event, sys.MsgUserCleared)
}

func handleShuffle(event *events.ApplicationCommandInteractionCreate) {
	s, ok := activeSession(event)
	if !ok {
		return
	}
	n, err := s.Shuffle()
	if err != nil {
		replyEphemeral(event, userMessage(err))
		return
	}
	if n == 0 {
		replyEphemeral(event, sys.MsgUserQueueEmpty)
		return
	}
	reply(event, fmt.Sprintf(sys.MsgUserShuffled, n))
}

func handleLoop(event *events.ApplicationCommandInteractionCreate) {
	s, ok := activeSession(event)
	if !ok {
		return
	}
	on, err := s.ToggleLoop()
	if err != nil {
		replyEphemeral(event, userMessage(err))
		return
	}
	if on {
		reply(event, sys.MsgUserLoopOn)
		return
	}
	reply(event, sys.MsgUserLoopOff)
}

func handleVolume(event *events.ApplicationCommandInteractionCreate) {
	level, _ := event.SlashCommandInteractionData().OptInt("level")
	s, ok := activeSession(event)
	if !ok {
		return
	}
	if err := s.SetVolume(level); err != nil {
		replyEphemeral(event, userMessage(err))
		return
	}
	reply(event, fmt.Sprintf(sys.MsgUserVolume, level))
}
