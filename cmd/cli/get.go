package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/yourusername/vidfetch-go/internal/app"
	"github.com/yourusername/vidfetch-go/internal/domain"
	"github.com/yourusername/vidfetch-go/internal/i18n"
	"github.com/yourusername/vidfetch-go/internal/infrastructure"
	"github.com/yourusername/vidfetch-go/pkg/logger"
)

var getCmd = &cobra.Command{
	Use:   "get [url]",
	Short: "Download a URL now and show progress",
	Long: `Download a video, audio track or playlist in the foreground.

Ctrl-C cancels after the current callback and keeps what was already
downloaded; a second Ctrl-C stops yt-dlp immediately.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [url]",
	Short: "Print the yt-dlp configuration a download would use",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}

		req, err := requestFromFlags(cmd, args[0], &config.Download, nil)
		if err != nil {
			return err
		}

		orch := app.NewOrchestrator(nil, app.WithDownloadConfig(&config.Download))
		cfg, err := orch.Plan(req)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		fmt.Println()
		fmt.Println(infrastructure.ShellEscapeCommand(config.Download.YTDLPBinary, infrastructure.BuildArgs(req.SourceURL, cfg)...))
		return nil
	},
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "", "Container (MP4, WEBM, MP3, WAV; default from config)")
	cmd.Flags().StringP("quality", "q", "", "Quality (BEST, 1080p, 720p, 480p, 360p, LOWEST, HIGH, MEDIUM, LOW)")
	cmd.Flags().StringP("output", "o", "", "Destination directory (default from config)")
	cmd.Flags().Bool("playlist", false, "Download the whole playlist (default: ask when the URL looks like one)")
}

func init() {
	addRequestFlags(getCmd)
	addRequestFlags(inspectCmd)
}

// confirmFunc asks the user a yes/no question
type confirmFunc func(question string) bool

// requestFromFlags builds a download request from flags and config defaults.
// When --playlist is not given and the URL looks like a playlist, confirm
// decides; a nil confirm accepts the guess.
func requestFromFlags(cmd *cobra.Command, url string, defaults *domain.DownloadConfig, confirm confirmFunc) (domain.DownloadRequest, error) {
	containerName, _ := cmd.Flags().GetString("format")
	if containerName == "" {
		containerName = defaults.DefaultContainer
	}
	container, err := domain.ParseContainer(containerName)
	if err != nil {
		return domain.DownloadRequest{}, err
	}

	quality, _ := cmd.Flags().GetString("quality")
	if quality == "" {
		quality = defaults.DefaultQuality
	}

	dest, _ := cmd.Flags().GetString("output")
	if dest == "" {
		dest = defaults.BaseDir
	}

	collection := domain.LooksLikeCollection(url)
	if cmd.Flags().Changed("playlist") {
		collection, _ = cmd.Flags().GetBool("playlist")
	} else if collection && confirm != nil {
		collection = confirm("This URL is part of a playlist. Download the whole playlist?")
	}

	req := domain.DownloadRequest{
		SourceURL:         url,
		Container:         container,
		Quality:           domain.Quality(quality),
		TreatAsCollection: collection,
		DestinationDir:    dest,
	}
	return req, req.Validate()
}

// terminalConfirm prompts on stdin, or accepts the guess when stdin is not a
// terminal
func terminalConfirm(question string) bool {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return true
	}
	fmt.Printf("%s [Y/n] ", question)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "" || answer == "y" || answer == "yes"
}

func runGet(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.NewCLI(verbose)
	defer log.Sync()

	catalog, err := i18n.NewCatalog(config.Locale)
	if err != nil {
		return err
	}

	req, err := requestFromFlags(cmd, args[0], &config.Download, terminalConfirm)
	if err != nil {
		return err
	}

	backend := infrastructure.NewYTDLPBackend(config.Download.YTDLPBinary, log.Named("ytdlp"))
	orch := app.NewOrchestrator(backend,
		app.WithLogger(log),
		app.WithCatalog(catalog),
		app.WithDownloadConfig(&config.Download))

	ctx, kill := context.WithCancel(cmd.Context())
	defer kill()

	events, err := orch.Start(ctx, req)
	if err != nil {
		return err
	}

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	done := make(chan struct{})
	defer close(done)
	go func() {
		interrupts := 0
		for {
			select {
			case <-sigs:
				interrupts++
				if interrupts == 1 {
					orch.RequestAbort()
				} else {
					kill()
				}
			case <-done:
				return
			}
		}
	}()

	printer := newProgressPrinter(os.Stdout, os.Stderr, catalog, verbose)
	for ev := range events {
		printer.handle(ev)
	}

	outcome := orch.Wait()
	switch outcome.Status {
	case domain.OverallFailure, domain.OverallAborted:
		return fmt.Errorf("session %s", outcome.Status)
	}
	return nil
}

// progressPrinter renders session events for a terminal
type progressPrinter struct {
	out, errOut io.Writer
	catalog     *i18n.Catalog
	verbose     bool
	inLine      bool
}

func newProgressPrinter(out, errOut io.Writer, catalog *i18n.Catalog, verbose bool) *progressPrinter {
	return &progressPrinter{out: out, errOut: errOut, catalog: catalog, verbose: verbose}
}

func (p *progressPrinter) handle(ev domain.Event) {
	switch ev.Kind {
	case domain.EventStatus:
		if ev.Status == domain.StatusItemDone {
			p.endLine()
			return
		}
		p.println(p.out, p.catalog.Status(ev.Status))
	case domain.EventProgress:
		fmt.Fprintf(p.out, "\r[%3d%%] %s", ev.Percent, truncate(ev.Filename, 60))
		p.inLine = true
	case domain.EventLog:
		if ev.Level == domain.LogError || (p.verbose && ev.Level == domain.LogWarning) {
			p.println(p.errOut, ev.Text)
		}
	case domain.EventTerminal:
		p.endLine()
		if ev.Outcome != nil {
			p.printOutcome(*ev.Outcome)
		}
	}
}

func (p *progressPrinter) printOutcome(outcome domain.SessionOutcome) {
	fmt.Fprintln(p.out, outcome.Summary)
	for _, item := range outcome.Items {
		if item.Status != domain.ItemFailed {
			continue
		}
		fmt.Fprintf(p.out, "  failed: %s", item.Title)
		if item.SourceURL != "" {
			fmt.Fprintf(p.out, " (%s)", item.SourceURL)
		}
		if item.ErrorDetail != "" {
			fmt.Fprintf(p.out, ": %s", item.ErrorDetail)
		}
		fmt.Fprintln(p.out)
	}
	// a backend error summary already quotes the first line
	if outcome.Code == domain.SummaryBackendError {
		return
	}
	for _, line := range outcome.Diagnostics {
		fmt.Fprintf(p.out, "  error: %s\n", line)
	}
}

func (p *progressPrinter) println(w io.Writer, s string) {
	p.endLine()
	fmt.Fprintln(w, s)
}

func (p *progressPrinter) endLine() {
	if p.inLine {
		fmt.Fprintln(p.out)
		p.inLine = false
	}
}
