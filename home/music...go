package home

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/omit"

	"github.com/RobertIonutF/rmusico/proc"
	"github.com/RobertIonutF/rmusico/search"
	"github.com/RobertIonutF/rmusico/sys"
)

var (
	manager   *proc.Manager
	suggester *search.Suggester
	settings  = &sys.Config{MaxSearchResults: 5, MaxQueueDisplay: 10}
)

// Bind hands the music commands their dependencies. Call it before the
// gateway opens.
func Bind(m *proc.Manager, s *search.Suggester, cfg *sys.Config) {
	manager = m
	suggester = s
	if cfg != nil {
		settings = cfg
	}
}

func intPtr(i int) *int { return &i }

func guildOnly() []discord.InteractionContextType {
	return []discord.InteractionContextType{discord.InteractionContextTypeGuild}
}

func init() {
	connectPerm := discord.PermissionConnect

	simple := []struct {
		name, description string
		handler           func(event *events.ApplicationCommandInteractionCreate)
	}{
		{"join", "Join your voice channel", handleJoin},
		{"leave", "Disconnect from voice", handleLeave},
		{"pause", "Pause the current track", handlePause},
		{"resume", "Resume playback", handleResume},
		{"stop", "Stop playback and clear the queue", handleStop},
		{"skip", "Skip the current track", handleSkip},
		{"queue", "Show the queue", handleQueue},
		{"clear", "Clear the queue", handleClear},
		{"shuffle", "Shuffle the queue", handleShuffle},
		{"loop", "Toggle looping the current track", handleLoop},
		{"nowplaying", "Show the current track", handleNowPlaying},
		{"help", "List the music commands", handleHelp},
	}
	for _, c := range simple {
		sys.RegisterCommand(discord.SlashCommandCreate{
			Name:                     c.name,
			Description:              c.description,
			DefaultMemberPermissions: omit.New(&connectPerm),
			Contexts:                 guildOnly(),
		}, c.handler)
	}

	sys.RegisterCommand(discord.SlashCommandCreate{
		Name:                     "play",
		Description:              "Play a song from a URL or search query",
		DefaultMemberPermissions: omit.New(&connectPerm),
		Contexts:                 guildOnly(),
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionString{
				Name:         "query",
				Description:  "The URL or song name to play",
				Required:     true,
				Autocomplete: true,
			},
		},
	}, handlePlay)

	sys.RegisterCommand(discord.SlashCommandCreate{
		Name:                     "volume",
		Description:              "Set the playback volume",
		DefaultMemberPermissions: omit.New(&connectPerm),
		Contexts:                 guildOnly(),
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionInt{
				Name:        "level",
				Description: "Volume percentage (0-100)",
				Required:    true,
				MinValue:    intPtr(0),
				MaxValue:    intPtr(100),
			},
		},
	}, handleVolume)

	sys.RegisterCommand(discord.SlashCommandCreate{
		Name:        "search",
		Description: "List search results without playing",
		Contexts:    guildOnly(),
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionString{
				Name:        "query",
				Description: "What to search for",
				Required:    true,
			},
		},
	}, handleSearch)

	sys.RegisterAutocompleteHandler("play", handlePlayAutocomplete)
	sys.RegisterComponentHandler(buttonPrefix, handleButton)
	sys.RegisterVoiceStateUpdateHandler(handleVoiceStateUpdate)
}

// helpText lists the commands in registration order.
const helpText = "### 🎵 Music commands\n" +
	"`/play <query>` play a URL or search YouTube\n" +
	"`/join` · `/leave` connect or disconnect\n" +
	"`/pause` · `/resume` · `/stop` · `/skip` control playback\n" +
	"`/queue` · `/clear` · `/shuffle` · `/loop` manage the queue\n" +
	"`/volume <0-100>` set the volume\n" +
	"`/nowplaying` show the current track\n" +
	"`/search <query>` list matches without playing"

func handleHelp(event *events.ApplicationCommandInteractionCreate) {
	_ = event.CreateMessage(discord.NewMessageCreateBuilder().
		SetIsComponentsV2(true).
		AddComponents(discord.NewContainer(discord.NewTextDisplay(helpText))).
		SetEphemeral(true).
		Build())
}
