package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// DataPaths holds the directories the tool reads and writes
type DataPaths struct {
	BasePath   string // per-user application directory
	StoreDir   string // session store location
	ConfigFile string // optional config.yaml
	LogDir     string
}

// DetectDataPaths resolves the per-OS data directories. A non-empty
// override replaces the base directory.
func DetectDataPaths(override string) (DataPaths, error) {
	base := override
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DataPaths{}, fmt.Errorf("failed to get home directory: %w", err)
		}

		switch runtime.GOOS {
		case "darwin":
			base = filepath.Join(home, "Library/Application Support/ga4-analyst")
		case "windows":
			if appData := os.Getenv("APPDATA"); appData != "" {
				base = filepath.Join(appData, "ga4-analyst")
			} else {
				base = filepath.Join(home, "AppData", "Roaming", "ga4-analyst")
			}
		default:
			if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
				base = filepath.Join(xdg, "ga4-analyst")
			} else {
				base = filepath.Join(home, ".local", "share", "ga4-analyst")
			}
		}
	}

	return DataPaths{
		BasePath:   base,
		StoreDir:   filepath.Join(base, "store"),
		ConfigFile: filepath.Join(base, "config.yaml"),
		LogDir:     filepath.Join(base, "logs"),
	}, nil
}

// StoreExists reports whether the store directory has been created
func (dp DataPaths) StoreExists() bool {
	info, err := os.Stat(dp.StoreDir)
	return err == nil && info.IsDir()
}

// ConfigExists reports whether a config file is present
func (dp DataPaths) ConfigExists() bool {
	_, err := os.Stat(dp.ConfigFile)
	return err == nil
}

// EnsureStoreDir creates the store directory
func (dp DataPaths) EnsureStoreDir() error {
	return os.MkdirAll(dp.StoreDir, 0755)
}
