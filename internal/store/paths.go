package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/archsim/internal/constants"
)

// HistoryFile is the SQLite database name inside a data directory.
const HistoryFile = "history.db"

// GlobalDataPath returns the path to the global .archsim directory.
// On Unix: ~/.archsim
// On Windows: %USERPROFILE%\.archsim
func GlobalDataPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.DefaultDataDir), nil
}

// LocalDataPath returns the .archsim directory for a project root.
func LocalDataPath(projectRoot string) string {
	return filepath.Join(projectRoot, constants.DefaultDataDir)
}

// HistoryPath returns the history database path inside dataDir.
func HistoryPath(dataDir string) string {
	return filepath.Join(dataDir, HistoryFile)
}
