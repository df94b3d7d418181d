package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/room-allotment/internal/logger"
)

// ErrAlreadyRunning is returned when another server process owns the run state.
var ErrAlreadyRunning = errors.New("another allotment server is already running")

// ensureSingleInstance refuses to start when another process runs the same
// executable. The run state lives in memory, so two servers would hand out
// turns independently over the same directory.
func ensureSingleInstance(ctx context.Context) error {
	processList, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	executable := currentExecutable()

	if pid, found := findOtherInstance(processList, os.Getpid(), executable); found {
		logger.WarnKV(ctx, "Found a running server process", "pid", pid, "executable", executable)

		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}

	return nil
}

// findOtherInstance returns the pid of a process named executable other than self.
func findOtherInstance(processList []ps.Process, self int, executable string) (int, bool) {
	for _, process := range processList {
		if process.Pid() == self {
			continue
		}

		if sameExecutable(process.Executable(), executable) {
			return process.Pid(), true
		}
	}

	return 0, false
}

// currentExecutable returns the base name of this binary.
func currentExecutable() string {
	path, err := os.Executable()
	if err != nil {
		path = os.Args[0]
	}

	return filepath.Base(path)
}

// linuxCommLength is the kernel limit on the process name go-ps reports.
const linuxCommLength = 15

// sameExecutable compares a reported process name with this binary's name.
func sameExecutable(reported, executable string) bool {
	switch runtime.GOOS {
	case "windows":
		return strings.EqualFold(reported, executable)
	case "linux":
		if len(executable) > linuxCommLength {
			executable = executable[:linuxCommLength]
		}
	}

	return reported == executable
}
