package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	serverBinary       = "vidfetch-server"
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

// isServerRunning reports whether a vidfetch server answers health checks
func isServerRunning() bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	var health struct {
		Status string `json:"status"`
	}
	return json.NewDecoder(resp.Body).Decode(&health) == nil && health.Status == "ok"
}

// findServerBinary looks next to the CLI, then on PATH, then in common
// install locations
func findServerBinary() (string, error) {
	if execPath, err := os.Executable(); err == nil {
		serverPath := filepath.Join(filepath.Dir(execPath), serverBinary)
		if _, err := os.Stat(serverPath); err == nil {
			return serverPath, nil
		}
	}

	if serverPath, err := exec.LookPath(serverBinary); err == nil {
		return serverPath, nil
	}

	home, _ := os.UserHomeDir()
	for _, p := range []string{
		filepath.Join("/usr/local/bin", serverBinary),
		filepath.Join(home, "go", "bin", serverBinary),
		filepath.Join(home, ".local", "bin", serverBinary),
	} {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%s binary not found", serverBinary)
}

// startServerBackground starts the server as a detached process using the
// CLI's config file
func startServerBackground() error {
	serverPath, err := findServerBinary()
	if err != nil {
		return err
	}

	var args []string
	if configPath != "" {
		args = append(args, "-config", configPath)
	}
	cmd := exec.Command(serverPath, args...)
	setSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	// reap the child if it exits while the CLI is still running
	go cmd.Wait()

	return nil
}

func waitForServerReady() error {
	deadline := time.Now().Add(serverStartTimeout)
	for time.Now().Before(deadline) {
		if isServerRunning() {
			return nil
		}
		time.Sleep(serverPollInterval)
	}
	return fmt.Errorf("server did not start within %v", serverStartTimeout)
}

// ensureServerRunning starts a local server if none answers at serverURL
func ensureServerRunning() error {
	if isServerRunning() {
		return nil
	}

	fmt.Fprintln(os.Stderr, "Server not running, starting...")

	if err := startServerBackground(); err != nil {
		return err
	}
	if err := waitForServerReady(); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Server started")
	return nil
}
