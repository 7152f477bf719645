// Package pidfile locates, writes, and reads the Token Refresher's PID
// file, enforcing single-instance-per-host operation. Grounded on the
// teacher's pkg/process PID file pair-of-locations idiom, simplified to
// one XDG-data-dir location since the Refresher has no legacy on-disk
// location to stay compatible with.
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
)

const pidFileName = "token_refresher.pid"

// Path returns the PID file location for the Token Refresher.
func Path() (string, error) {
	dir := filepath.Join(xdg.DataHome, "mcp-gateway-registry")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create pid file directory: %w", err)
	}
	return filepath.Join(dir, pidFileName), nil
}

// Write records pid at the refresher's PID file location.
func Write(pid int) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o600)
}

// WriteCurrent records the current process's PID.
func WriteCurrent() error {
	return Write(os.Getpid())
}

// Read returns the PID recorded in the refresher's PID file.
func Read() (int, error) {
	path, err := Path()
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("pid file contents are not a valid pid: %w", err)
	}
	return pid, nil
}

// Remove deletes the refresher's PID file, tolerating its absence.
func Remove() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
