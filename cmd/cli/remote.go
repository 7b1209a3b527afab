package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/vidfetch-go/internal/domain"
	"github.com/yourusername/vidfetch-go/pkg/logger"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// requestError carries the server's error message and status
type requestError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *requestError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// call sends a JSON request to the server and decodes the response into out
func call(method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, serverURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := string(data)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &requestError{Status: resp.StatusCode, Message: msg, Body: data}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

var addCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Queue a download on the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		payload := map[string]interface{}{"url": args[0]}
		if v, _ := cmd.Flags().GetString("format"); v != "" {
			payload["container"] = v
		}
		if v, _ := cmd.Flags().GetString("quality"); v != "" {
			payload["quality"] = v
		}
		if v, _ := cmd.Flags().GetString("output"); v != "" {
			payload["destination"] = v
		}
		if cmd.Flags().Changed("playlist") {
			v, _ := cmd.Flags().GetBool("playlist")
			payload["collection"] = v
		}

		var session domain.Session
		err := call(http.MethodPost, "/api/v1/sessions", payload, &session)
		if reqErr, ok := err.(*requestError); ok && reqErr.Status == http.StatusConflict {
			var conflict struct {
				Session domain.Session `json:"session"`
			}
			json.Unmarshal(reqErr.Body, &conflict)
			fmt.Printf("Already queued or running: %s (%s)\n", conflict.Session.ID, conflict.Session.Status)
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Session added successfully!\n")
		fmt.Printf("ID: %s\n", session.ID)
		fmt.Printf("Status: %s\n", session.Status)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		query := url.Values{}
		if status, _ := cmd.Flags().GetString("status"); status != "" {
			query.Set("status", status)
		}
		path := "/api/v1/sessions"
		if len(query) > 0 {
			path += "?" + query.Encode()
		}

		var sessions []domain.Session
		if err := call(http.MethodGet, path, nil, &sessions); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tFORMAT\tSTATUS\tITEMS\tCREATED")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d/%d\t%s\n",
				truncate(s.ID, 8),
				truncate(s.URL, 40),
				s.Container,
				s.Status,
				s.Succeeded, s.Skipped, s.Failed,
				s.CreatedAt.Format(time.DateTime))
		}
		return w.Flush()
	},
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show session details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		var s domain.Session
		if err := call(http.MethodGet, "/api/v1/sessions/"+args[0], nil, &s); err != nil {
			return err
		}

		fmt.Printf("Session Details:\n")
		fmt.Printf("  ID:          %s\n", s.ID)
		fmt.Printf("  URL:         %s\n", s.URL)
		fmt.Printf("  Format:      %s %s\n", s.Container, s.Quality)
		fmt.Printf("  Playlist:    %t\n", s.TreatAsCollection)
		fmt.Printf("  Destination: %s\n", s.DestinationDir)
		fmt.Printf("  Status:      %s\n", s.Status)
		fmt.Printf("  Created:     %s\n", s.CreatedAt.Format(time.DateTime))
		if s.Summary != "" {
			fmt.Printf("  Summary:     %s\n", s.Summary)
		}
		if s.ErrorMessage != "" {
			fmt.Printf("  Error:       %s\n", s.ErrorMessage)
		}

		if s.Status == domain.SessionRunning {
			var p struct {
				Percent   int    `json:"percent"`
				Filename  string `json:"filename"`
				ItemsDone int    `json:"items_done"`
			}
			if call(http.MethodGet, "/api/v1/sessions/"+s.ID+"/progress", nil, &p) == nil {
				fmt.Printf("  Progress:    %d%% %s (%d items done)\n", p.Percent, p.Filename, p.ItemsDone)
			}
		}

		if len(s.Items) > 0 {
			fmt.Println("  Items:")
			printItems(s.Items)
		}
		return nil
	},
}

func printItems(items []domain.SessionItem) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, it := range items {
		line := fmt.Sprintf("    %s\t%s\t%s", it.Status, it.ItemID, truncate(it.Title, 50))
		if it.ErrorDetail != "" {
			line += "\t" + truncate(it.ErrorDetail, 60)
		}
		fmt.Fprintln(w, line)
	}
	w.Flush()
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show session statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		var stats domain.SessionStats
		if err := call(http.MethodGet, "/api/v1/sessions/stats", nil, &stats); err != nil {
			return err
		}

		fmt.Println("Session Statistics:")
		fmt.Printf("  Total:     %d\n", stats.Total)
		fmt.Printf("  Queued:    %d\n", stats.Queued)
		fmt.Printf("  Running:   %d\n", stats.Running)
		fmt.Printf("  Success:   %d\n", stats.Success)
		fmt.Printf("  Partial:   %d\n", stats.PartialSuccess)
		fmt.Printf("  Failure:   %d\n", stats.Failure)
		fmt.Printf("  Aborted:   %d\n", stats.Aborted)
		fmt.Printf("  Cancelled: %d\n", stats.Cancelled)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a queued session or abort a running one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		if err := call(http.MethodPost, "/api/v1/sessions/"+args[0]+"/cancel", nil, nil); err != nil {
			return err
		}
		fmt.Println("Session cancelled")
		return nil
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry [id]",
	Short: "Queue a finished session again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()
		if err := call(http.MethodPost, "/api/v1/sessions/"+args[0]+"/retry", nil, nil); err != nil {
			return err
		}
		fmt.Println("Session queued for retry")
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [id]",
	Short: "Show the yt-dlp output of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		limit, _ := cmd.Flags().GetInt("limit")
		query := url.Values{}
		query.Set("session", args[0])
		query.Set("limit", fmt.Sprint(limit))
		if date, _ := cmd.Flags().GetString("date"); date != "" {
			query.Set("date", date)
		}

		var result struct {
			Entries []logger.LogEntry `json:"entries"`
		}
		path := fmt.Sprintf("/api/v1/logs/%s?%s", logger.CategoryBackend, query.Encode())
		if err := call(http.MethodGet, path, nil, &result); err != nil {
			return err
		}

		for _, e := range result.Entries {
			fmt.Printf("%s %-7s %s\n", e.Timestamp, e.Level, e.Message)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringP("format", "f", "", "Container (MP4, WEBM, MP3, WAV)")
	addCmd.Flags().StringP("quality", "q", "", "Quality (BEST, 1080p, ..., HIGH, MEDIUM, LOW)")
	addCmd.Flags().StringP("output", "o", "", "Destination directory on the server")
	addCmd.Flags().Bool("playlist", false, "Download the whole playlist (default: guessed from the URL)")
	listCmd.Flags().StringP("status", "s", "", "Filter by status")
	logsCmd.Flags().IntP("limit", "n", 200, "Maximum lines")
	logsCmd.Flags().String("date", "", "Log date (YYYY-MM-DD, default today)")
}
