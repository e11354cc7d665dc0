package home

import (
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"

	"github.com/RobertIonutF/rmusico/sys"
)

// humansIn counts non-bot members in channelID.
func humansIn(client *bot.Client, guildID, channelID snowflake.ID) int {
	n := 0
	for state := range client.Caches.VoiceStates(guildID) {
		if state.ChannelID == nil || *state.ChannelID != channelID || state.UserID == client.ID() {
			continue
		}
		if m, ok := client.Caches.Member(guildID, state.UserID); ok && m.User.Bot {
			continue
		}
		n++
	}
	return n
}

// AloneCheck reports whether the bot has nobody to play to in a channel.
func AloneCheck(client *bot.Client) func(guildID, channelID snowflake.ID) bool {
	return func(guildID, channelID snowflake.ID) bool {
		return humansIn(client, guildID, channelID) == 0
	}
}

func handleVoiceStateUpdate(event *events.GuildVoiceStateUpdate) {
	if manager == nil {
		return
	}
	client := event.Client()
	guildID := event.VoiceState.GuildID
	s, ok := manager.Session(guildID)
	if !ok {
		return
	}

	if event.VoiceState.UserID == client.ID() {
		if event.VoiceState.ChannelID == nil {
			manager.Leave(sys.AppContext, guildID)
			return
		}
		if err := s.SetChannel(*event.VoiceState.ChannelID); err != nil {
			return
		}
	}

	snap, err := s.Snapshot(0)
	if err != nil {
		return
	}
	manager.NoteOccupancy(guildID, humansIn(client, guildID, snap.ChannelID) == 0)
}
