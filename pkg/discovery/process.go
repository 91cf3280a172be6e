package discovery

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// clientProcessName is matched against process command lines.
const clientProcessName = "LeagueClientUx"

// ProcCommandLines reads command lines of client processes from a
// /proc style directory. Unreadable entries are skipped.
func ProcCommandLines(procRoot string) func() ([]string, error) {
	return func() ([]string, error) {
		entries, err := os.ReadDir(procRoot)
		if err != nil {
			return nil, err
		}

		var lines []string
		for _, entry := range entries {
			if !entry.IsDir() || !isNumeric(entry.Name()) {
				continue
			}

			raw, err := os.ReadFile(filepath.Join(procRoot, entry.Name(), "cmdline")) // nolint:gosec
			if err != nil || len(raw) == 0 {
				continue
			}

			line := string(bytes.ReplaceAll(bytes.TrimRight(raw, "\x00"), []byte{0}, []byte{' '}))
			if strings.Contains(line, clientProcessName) {
				lines = append(lines, line)
			}
		}
		return lines, nil
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
