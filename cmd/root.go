// Package cmd implements the rmusico command line.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/RobertIonutF/rmusico/sys"
)

func init() {
	flags := rootCmd.PersistentFlags()

	flags.Bool("silent", false, "Disable all log output")
	lo.Must0(sys.Settings.BindPFlag(sys.KeySilent, flags.Lookup("silent")))

	flags.String("log-file", "", "Mirror log output to this file")
	lo.Must0(sys.Settings.BindPFlag(sys.KeyLogFile, flags.Lookup("log-file")))

	flags.String("cookies", "", "Netscape cookies file passed to yt-dlp")
	lo.Must0(sys.Settings.BindPFlag(sys.KeyCookiesPath, flags.Lookup("cookies")))

	flags.String("proxy", "", "Proxy URL for YouTube requests")
	lo.Must0(sys.Settings.BindPFlag(sys.KeyYoutubeProxy, flags.Lookup("proxy")))

	flags.Int("max-attempts", 3, "Extraction attempts per URL")
	lo.Must0(sys.Settings.BindPFlag(sys.KeyMaxAttempts, flags.Lookup("max-attempts")))

	flags.Bool("randomize-personas", false, "Shuffle client personas between attempts")
	lo.Must0(sys.Settings.BindPFlag(sys.KeyRandomizePersonas, flags.Lookup("randomize-personas")))

	rootCmd.Flags().String("guild", "", "Register commands to this guild only")
	lo.Must0(sys.Settings.BindPFlag(sys.KeyGuildID, rootCmd.Flags().Lookup("guild")))

	rootCmd.Flags().String("status-addr", ":5000", "Listen address of the status endpoint")
	lo.Must0(sys.Settings.BindPFlag(sys.KeyStatusAddr, rootCmd.Flags().Lookup("status-addr")))
}

var rootCmd = &cobra.Command{
	Use:           "rmusico",
	Short:         "A Discord music bot that keeps YouTube playback working",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(true)
		if err != nil {
			return err
		}
		return run(cfg)
	},
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		sys.LogError(sys.MsgGenericError, err)
		_, _ = fmt.Fprintln(os.Stderr, strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}

// setup loads the configuration and installs the logger.
func setup(requireToken bool) (*sys.Config, error) {
	cfg, err := sys.LoadConfig(requireToken)
	if err != nil {
		return nil, fmt.Errorf(sys.MsgConfigFailedToLoad, err)
	}
	sys.InitLogger(cfg.Silent, cfg.LogFile)
	if path := sys.GetLogPath(); path != "" {
		sys.LogDebug("Mirroring logs to %s", path)
	}
	return cfg, nil
}
