package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const appDirName = "youhavemail"

var (
	appDirOverride string
	appDirMu       sync.RWMutex
)

// SetAppDir forces the application directory (--data-dir). An empty string
// restores the default lookup.
func SetAppDir(dir string) {
	appDirMu.Lock()
	defer appDirMu.Unlock()
	appDirOverride = strings.TrimSpace(dir)
}

// GetAppDir returns the directory holding settings, the database and runtime
// files. Lookup order: SetAppDir, $YHM_DATA_DIR, then the user config dir.
func GetAppDir() string {
	appDirMu.RLock()
	override := appDirOverride
	appDirMu.RUnlock()
	if override != "" {
		return override
	}

	if dir := strings.TrimSpace(os.Getenv("YHM_DATA_DIR")); dir != "" {
		return dir
	}

	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appDirName)
}

// GetRuntimeDir holds the pid, port and lock files.
func GetRuntimeDir() string {
	return filepath.Join(GetAppDir(), "run")
}

// GetLogsDir holds debug logs.
func GetLogsDir() string {
	return filepath.Join(GetAppDir(), "logs")
}

// GetDBPath returns the sqlite database path.
func GetDBPath() string {
	return filepath.Join(GetAppDir(), "youhavemail.db")
}

// EnsureDirs creates every directory the application writes to.
func EnsureDirs() error {
	for _, dir := range []string{GetAppDir(), GetRuntimeDir(), GetLogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
