package home

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"

	"github.com/RobertIonutF/rmusico/extract"
	"github.com/RobertIonutF/rmusico/proc"
	"github.com/RobertIonutF/rmusico/search"
	"github.com/RobertIonutF/rmusico/sys"
	"github.com/RobertIonutF/rmusico/track"
)

// playTimeout stays well inside the 15 minute interaction token lifetime.
const playTimeout = 5 * time.Minute

func handlePlay(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	query, _ := data.OptString("query")

	channelID, ok := userChannel(event)
	if !ok {
		replyEphemeral(event, sys.MsgUserNotInVoice)
		return
	}

	_ = event.DeferCreateMessage(false)

	ctx, cancel := context.WithTimeout(sys.AppContext, playTimeout)
	defer cancel()

	rec, pos, started, err := manager.Play(ctx, *event.GuildID(), channelID, query)
	if err != nil {
		sys.LogError("Playback error: %v", err)
		editResponse(event, failurePanel(err))
		return
	}

	if started {
		s, ok := manager.Session(*event.GuildID())
		if ok {
			if snap, err := s.Snapshot(0); err == nil {
				editResponse(event, playerPanel(snap, ""))
				return
			}
		}
	}
	editResponse(event, notice(fmt.Sprintf(sys.MsgUserQueued, rec.Title, rec.PageURL, pos)))
}

func handlePlayAutocomplete(event *events.AutocompleteInteractionCreate) {
	focused := event.Data.Focused()
	if focused.Name != "query" || suggester == nil {
		_ = event.AutocompleteResult(nil)
		return
	}
	query := focused.String()
	if query == "" || track.IsURL(query) {
		_ = event.AutocompleteResult(nil)
		return
	}

	var choices []discord.AutocompleteChoice
	for _, s := range suggester.Suggest(sys.AppContext, query) {
		name := s.Title
		if s.Source != "" {
			name = s.Title + " · " + s.Source
		}
		val := s.URL
		if len(val) > 100 || val == "" {
			val = truncate(s.Title, 100)
		}
		choices = append(choices, discord.AutocompleteChoiceString{
			Name:  truncate(name, 100),
			Value: val,
		})
		if len(choices) == 25 {
			break
		}
	}
	_ = event.AutocompleteResult(choices)
}

func handleJoin(event *events.ApplicationCommandInteractionCreate) {
	channelID, ok := userChannel(event)
	if !ok {
		replyEphemeral(event, sys.MsgUserNotInVoice)
		return
	}
	_ = event.DeferCreateMessage(false)

	if _, err := manager.Join(sys.AppContext, *event.GuildID(), channelID); err != nil {
		editResponse(event, notice(userMessage(err)))
		return
	}
	editResponse(event, notice(fmt.Sprintf(sys.MsgUserJoined, channelID)))
}

func handleLeave(event *events.ApplicationCommandInteractionCreate) {
	if !manager.Leave(sys.AppContext, *event.GuildID()) {
		replyEphemeral(event, sys.MsgUserNothingPlaying)
		return
	}
	reply(event, sys.MsgUserLeft)
}

// userChannel returns the voice channel the invoking member is in.
func userChannel(event *events.ApplicationCommandInteractionCreate) (snowflake.ID, bool) {
	if event.GuildID() == nil || event.Member() == nil {
		return 0, false
	}
	vs, ok := event.Client().Caches.VoiceState(*event.GuildID(), event.User().ID)
	if !ok || vs.ChannelID == nil {
		return 0, false
	}
	return *vs.ChannelID, true
}

// userMessage turns a playback error into something worth showing a user.
func userMessage(err error) string {
	var desc *search.DescriptiveError
	switch {
	case errors.As(err, &desc):
		return descriptiveText(desc.Record)
	case errors.Is(err, extract.ErrRecentlyFailed):
		return sys.MsgUserRecentlyFailed
	case errors.Is(err, extract.ErrPermanentlyUnavailable):
		return sys.MsgUserUnavailable
	case errors.Is(err, extract.ErrBotDetection):
		return sys.MsgUserBotBlocked
	case errors.Is(err, proc.ErrNoVolumeControl):
		return sys.MsgUserNoVolume
	default:
		return fmt.Sprintf(sys.MsgUserResolveFailed, err)
	}
}

func descriptiveText(rec track.Record) string {
	return fmt.Sprintf(sys.MsgUserDescriptive, rec.Title, rec.Uploader, rec.Description)
}

// failurePanel shows the descriptive record with its thumbnail when the
// resolver got that far.
func failurePanel(err error) discord.ContainerComponent {
	var desc *search.DescriptiveError
	if errors.As(err, &desc) && desc.Record.Thumbnail != "" {
		return discord.NewContainer(
			discord.NewSection(
				discord.NewTextDisplay(descriptiveText(desc.Record)),
			).WithAccessory(discord.NewThumbnail(desc.Record.Thumbnail)),
		)
	}
	return notice(userMessage(err))
}

// truncate caps s at n characters.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
