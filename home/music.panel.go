package home

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"

	"github.com/RobertIonutF/rmusico/proc"
	"github.com/RobertIonutF/rmusico/sys"
	"github.com/RobertIonutF/rmusico/track"
)

func notice(content string) discord.ContainerComponent {
	return discord.NewContainer(discord.NewTextDisplay(content))
}

func reply(event *events.ApplicationCommandInteractionCreate, content string) {
	_ = event.CreateMessage(discord.NewMessageCreateBuilder().
		SetIsComponentsV2(true).
		AddComponents(notice(content)).
		Build())
}

func replyEphemeral(event *events.ApplicationCommandInteractionCreate, content string) {
	_ = event.CreateMessage(discord.NewMessageCreateBuilder().
		SetIsComponentsV2(true).
		AddComponents(notice(content)).
		SetEphemeral(true).
		Build())
}

func editResponse(event *events.ApplicationCommandInteractionCreate, c discord.ContainerComponent) {
	_, err := event.Client().Rest.UpdateInteractionResponse(event.ApplicationID(), event.Token(), discord.NewMessageUpdateBuilder().
		SetIsComponentsV2(true).
		SetComponents(c).
		Build())
	if err != nil {
		sys.LogError("Failed to update interaction response: %v", err)
	}
}

func trackLine(rec track.Record) string {
	return fmt.Sprintf(sys.MsgUserPlaying, rec.Title, rec.PageURL, track.FormatDuration(rec.Duration))
}

// panelText renders the header of the player panel.
func panelText(snap proc.Snapshot, note string) string {
	var sb strings.Builder
	if cur, ok := snap.Current.Get(); ok {
		sb.WriteString(trackLine(cur))
		sb.WriteString("\n-# " + cur.Uploader)
	} else {
		sb.WriteString(sys.MsgUserNothingPlaying)
	}

	state := "▶️ Playing"
	if snap.Paused {
		state = "⏸️ Paused"
	} else if !snap.Playing {
		state = "⏹️ Idle"
	}
	fmt.Fprintf(&sb, "\n%s · 🔊 %d%% · %d queued", state, snap.Volume, snap.Size)
	if snap.Loop {
		sb.WriteString(" · 🔁 loop")
	}
	if note != "" {
		sb.WriteString("\n" + note)
	}
	return sb.String()
}

// playerPanel is the now-playing message with its control buttons.
func playerPanel(snap proc.Snapshot, note string) discord.ContainerComponent {
	text := discord.NewTextDisplay(panelText(snap, note))

	var header discord.ContainerSubComponent = text
	if cur, ok := snap.Current.Get(); ok && cur.Thumbnail != "" {
		header = discord.NewSection(text).WithAccessory(discord.NewThumbnail(cur.Thumbnail))
	}

	pauseLabel, pauseID := "⏸️", buttonPrefix+actionPause
	if snap.Paused {
		pauseLabel = "▶️"
	}
	loopStyle := discord.ButtonStyleSecondary
	if snap.Loop {
		loopStyle = discord.ButtonStyleSuccess
	}

	return discord.NewContainer(
		header,
		discord.NewSeparator(discord.SeparatorSpacingSizeSmall).WithDivider(true),
		discord.NewActionRow(
			discord.NewSecondaryButton(pauseLabel, pauseID),
			discord.NewSecondaryButton("⏭️", buttonPrefix+actionSkip),
			discord.NewDangerButton("⏹️", buttonPrefix+actionStop),
			discord.NewSecondaryButton("🔀", buttonPrefix+actionShuffle),
			discord.NewButton(loopStyle, "🔁", buttonPrefix+actionLoop, "", 0),
		),
		discord.NewActionRow(
			discord.NewSecondaryButton("🔉", buttonPrefix+actionVolDown),
			discord.NewSecondaryButton("🔊", buttonPrefix+actionVolUp),
			discord.NewSecondaryButton("🔇", buttonPrefix+actionMute),
		),
	)
}

// queueText lists the current track and up to limit pending ones.
func queueText(snap proc.Snapshot, limit int) string {
	cur, playing := snap.Current.Get()
	if !playing && snap.Size == 0 {
		return sys.MsgUserQueueEmpty
	}

	var sb strings.Builder
	sb.WriteString("### 🎶 Queue\n")
	if playing {
		sb.WriteString("**Now:** " + trackLine(cur) + "\n")
	}
	for i, rec := range snap.Pending {
		if i >= limit {
			break
		}
		fmt.Fprintf(&sb, "`%d.` [%s](%s) `%s`\n", i+1, rec.Title, rec.PageURL, track.FormatDuration(rec.Duration))
	}
	if extra := snap.Size - min(limit, len(snap.Pending)); extra > 0 {
		fmt.Fprintf(&sb, "-# …and %d more\n", extra)
	}
	if snap.Loop {
		sb.WriteString("-# 🔁 Loop is on")
	}
	return strings.TrimRight(sb.String(), "\n")
}
