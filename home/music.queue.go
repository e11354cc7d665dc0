package home

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"

	"github.com/RobertIonutF/rmusico/search"
	"github.com/RobertIonutF/rmusico/sys"
	"github.com/RobertIonutF/rmusico/track"
)

func handleQueue(event *events.ApplicationCommandInteractionCreate) {
	s, ok := activeSession(event)
	if !ok {
		return
	}
	snap, err := s.Snapshot(settings.MaxQueueDisplay)
	if err != nil {
		replyEphemeral(event, userMessage(err))
		return
	}
	reply(event, queueText(snap, settings.MaxQueueDisplay))
}

func handleNowPlaying(event *events.ApplicationCommandInteractionCreate) {
	s, ok := activeSession(event)
	if !ok {
		return
	}
	snap, err := s.Snapshot(0)
	if err != nil || snap.Current.IsAbsent() {
		replyEphemeral(event, sys.MsgUserNothingPlaying)
		return
	}
	_ = event.CreateMessage(discord.NewMessageCreateBuilder().
		SetIsComponentsV2(true).
		AddComponents(playerPanel(snap, "")).
		Build())
}

func handleSearch(event *events.ApplicationCommandInteractionCreate) {
	query, _ := event.SlashCommandInteractionData().OptString("query")
	_ = event.DeferCreateMessage(false)

	ctx, cancel := context.WithTimeout(sys.AppContext, playTimeout)
	defer cancel()

	recs, err := manager.Search.List(ctx, query, settings.MaxSearchResults)
	if errors.Is(err, search.ErrSearchEmpty) {
		editResponse(event, notice(searchText(query, nil)))
		return
	}
	if err != nil {
		sys.LogError("Search error: %v", err)
		editResponse(event, notice(userMessage(err)))
		return
	}
	editResponse(event, notice(searchText(query, recs)))
}

func searchText(query string, recs []track.Record) string {
	if len(recs) == 0 {
		return fmt.Sprintf(sys.MsgUserSearchEmpty, query)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "### 🔎 Results for %s\n", query)
	for i, rec := range recs {
		fmt.Fprintf(&sb, "`%d.` [%s](%s) · %s `%s`\n", i+1, rec.Title, rec.PageURL, rec.Uploader, track.FormatDuration(rec.Duration))
	}
	sb.WriteString("-# Use `/play` with a link to queue one.")
	return sb.String()
}
