package cmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/snowflake/v2"

	"github.com/RobertIonutF/rmusico/extract"
	"github.com/RobertIonutF/rmusico/home"
	"github.com/RobertIonutF/rmusico/metadata"
	"github.com/RobertIonutF/rmusico/persona"
	"github.com/RobertIonutF/rmusico/proc"
	"github.com/RobertIonutF/rmusico/proc/audio"
	"github.com/RobertIonutF/rmusico/search"
	"github.com/RobertIonutF/rmusico/sys"
)

const projectName = "rmusico"

// newPipeline wires the extraction engine, resolver and search adapter.
func newPipeline(cfg *sys.Config) (*extract.Resolver, *search.Adapter) {
	engine := extract.NewYtdlpEngine(cfg.CookiesPath, cfg.YoutubeProxy)
	resolver := extract.NewResolver(engine, persona.Default(), extract.NewHTTPValidator(sys.HttpClient), extract.Config{
		MaxAttempts:       cfg.MaxAttempts,
		RandomizePersonas: cfg.RandomizePersonas,
	})
	return resolver, search.NewAdapter(resolver, metadata.NewFetcher())
}

// every calls fn on interval until ctx ends.
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func run(cfg *sys.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	sys.SetAppContext(ctx)
	sys.LogInfo(sys.MsgBotStarting, projectName)

	resolver, adapter := newPipeline(cfg)
	suggester := search.NewSuggester()

	client, err := sys.CreateClient(cfg, audio.ClientOpts()...)
	if err != nil {
		return fmt.Errorf("failed to create Discord client: %w", err)
	}
	defer client.Close(context.Background())

	manager := proc.NewManager(resolver, adapter, func(guildID snowflake.ID) proc.Transport {
		return audio.NewVoiceTransport(client, guildID)
	}, proc.Options{
		DefaultVolume: int(math.Round(cfg.DefaultVolume * 100)),
		IdleTimeout:   cfg.IdleTimeout,
		IsAlone:       home.AloneCheck(client),
	})
	home.Bind(manager, suggester, cfg)

	var ready atomic.Bool
	var presenceOnce sync.Once
	sys.OnClientReady(func(ctx context.Context, client *bot.Client) {
		ready.Store(true)
		presenceOnce.Do(func() {
			sys.SafeGo(func() { proc.NewPresenceRotator(manager).Run(ctx, client) })
		})
	})

	sys.SafeGo(func() { resolver.Run(ctx, extract.DefaultSweepInterval) })
	sys.SafeGo(func() { every(ctx, search.SuggestCacheTTL, suggester.Sweep) })

	if cfg.StatusAddr != "" {
		status := proc.NewStatusServer(cfg.StatusAddr, manager, func() (bool, int) {
			guilds := 0
			for range client.Caches.Guilds() {
				guilds++
			}
			return ready.Load(), guilds
		})
		sys.SafeGo(func() {
			sys.LogStatus(sys.MsgStatusListening, cfg.StatusAddr)
			if err := status.Run(ctx); err != nil {
				sys.LogStatus(sys.MsgStatusFailed, err)
			}
		})
	}

	if err := sys.RegisterCommands(client, cfg.GuildID); err != nil {
		sys.LogError(sys.MsgBotRegisterFail, err)
	}

	if err := client.OpenGateway(ctx); err != nil {
		return fmt.Errorf(sys.MsgBotGatewayFail, err)
	}

	<-ctx.Done()
	if !cfg.Silent {
		fmt.Println()
	}

	if self, ok := client.Caches.SelfUser(); ok {
		sys.LogInfo(sys.MsgBotShutdown, self.Username)
	} else {
		sys.LogInfo(sys.MsgBotShutdown, projectName)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	manager.Shutdown(shutdownCtx)
	return nil
}
