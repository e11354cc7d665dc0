package home

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/omit"
	"github.com/disgoorg/snowflake/v2"

	"github.com/RobertIonutF/rmusico/proc"
	"github.com/RobertIonutF/rmusico/sys"
	"github.com/RobertIonutF/rmusico/track"
)

const (
	StatsAnsiReset    = "\u001b[0m"
	StatsAnsiPink     = "\u001b[35m"
	StatsAnsiPinkBold = "\u001b[35;1m"
)

// PlaybackStats is what /stats shows about the music side.
type PlaybackStats struct {
	Sessions    int
	Playing     int
	Queued      int
	CacheSize   int
	FailedSize  int
	GatewayPing time.Duration
	APILatency  time.Duration
}

func statsTitle(text string) string {
	return fmt.Sprintf("%s%s%s", StatsAnsiPink, text, StatsAnsiReset)
}

func statsLine(key, val string) string {
	return fmt.Sprintf("%s> %s:%s %s%s%s", StatsAnsiPink, key, StatsAnsiReset, StatsAnsiPinkBold, val, StatsAnsiReset)
}

func init() {
	adminPerm := discord.PermissionAdministrator

	sys.RegisterCommand(discord.SlashCommandCreate{
		Name:                     "stats",
		Description:              "Display playback and extraction statistics (Admin Only)",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts:                 guildOnly(),
	}, handleStats)
}

func handleStats(event *events.ApplicationCommandInteractionCreate) {
	stats := collectStats(manager)
	stats.APILatency = time.Since(snowflake.ID(event.ID()).Time())
	if event.Client().Gateway != nil {
		stats.GatewayPing = event.Client().Gateway.Latency()
	}

	_ = event.CreateMessage(discord.NewMessageCreateBuilder().
		SetIsComponentsV2(true).
		SetEphemeral(true).
		AddComponents(notice(renderStats(stats))).
		Build())
}

func collectStats(m *proc.Manager) PlaybackStats {
	var st PlaybackStats
	if m == nil {
		return st
	}
	for _, s := range m.Sessions() {
		snap, err := s.Snapshot(1)
		if err != nil {
			continue
		}
		st.Sessions++
		st.Queued += snap.Size
		if snap.Playing {
			st.Playing++
		}
	}
	if m.Resolver != nil {
		st.CacheSize = m.Resolver.Cache().Len()
		st.FailedSize = m.Resolver.Failed().Len()
	}
	return st
}

func renderStats(st PlaybackStats) string {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	lines := []string{
		statsTitle("System"),
		statsLine("Go Version", runtime.Version()),
		statsLine("Memory", fmt.Sprintf("%.2f MB / %.2f MB (Sys)", float64(mem.HeapAlloc)/1024/1024, float64(mem.Sys)/1024/1024)),
		statsLine("Goroutines", fmt.Sprintf("%d", runtime.NumGoroutine())),
		statsLine("Uptime", track.FormatDuration(time.Since(sys.StartupTime).Truncate(time.Second))),
		"",
		statsTitle("Playback"),
		statsLine("Voice Sessions", fmt.Sprintf("%d (%d playing)", st.Sessions, st.Playing)),
		statsLine("Queued Tracks", fmt.Sprintf("%d", st.Queued)),
		statsLine("Cached Extractions", fmt.Sprintf("%d", st.CacheSize)),
		statsLine("Failed URLs", fmt.Sprintf("%d", st.FailedSize)),
	}
	if st.GatewayPing > 0 {
		lines = append(lines, statsLine("Gateway", fmt.Sprintf("%dms", st.GatewayPing.Milliseconds())))
	}
	if st.APILatency > 0 {
		lines = append(lines, statsLine("API Latency", fmt.Sprintf("%dms", st.APILatency.Milliseconds())))
	}
	return fmt.Sprintf("```ansi\n%s\n```", strings.Join(lines, "\n"))
}
