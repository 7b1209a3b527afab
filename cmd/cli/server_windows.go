//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// createNoWindow keeps the server from opening a console window
const createNoWindow = 0x08000000

// setSysProcAttr detaches the server from the CLI's console and Ctrl-C group
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | createNoWindow,
		HideWindow:    true,
	}
}
