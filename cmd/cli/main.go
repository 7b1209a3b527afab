package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/vidfetch-go/internal/app"
	"github.com/yourusername/vidfetch-go/internal/domain"
)

var (
	serverURL   string
	noAutoStart bool
	configPath  string
	locale      string
	verbose     bool
	rootCmd     = &cobra.Command{
		Use:   "vidfetch",
		Short: "vidfetch - playlist-aware video and audio downloader",
		Long: `A command-line interface for downloading videos, audio and whole playlists with yt-dlp.

"get" and "inspect" run locally; the other commands talk to a vidfetch server.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8090", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: search ./configs, ~/.vidfetch, /etc/vidfetch)")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "", "Language for summaries (en, de, es, fr)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig loads the config file and applies the --locale override
func loadConfig() (*domain.Config, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if locale != "" {
		config.Locale = locale
	}
	return config, nil
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
