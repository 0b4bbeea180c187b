package config

import (
	"os"
	"path/filepath"
)

// localConfigFile is looked up in the working directory first.
const localConfigFile = "globwatch.yaml"

// defaultJournalPath returns the default journal database path.
//
// Returns: ~/.config/globwatch/journal.db.
func defaultJournalPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./journal.db"
	}

	return filepath.Join(homeDir, ".config", "globwatch", "journal.db")
}

// DefaultConfigPath returns the per-user configuration file path.
//
// Returns: ~/.config/globwatch/config.yaml.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(homeDir, ".config", "globwatch", "config.yaml")
}

// SearchPaths returns the configuration file candidates in order of
// precedence.
func SearchPaths() []string {
	return []string{
		"./" + localConfigFile,
		DefaultConfigPath(),
	}
}
