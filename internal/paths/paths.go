// Package paths resolves where jellyscout keeps its config, database, logs and
// lock file.
//
// When running with sudo, the original user's directories (via SUDO_USER) are
// used instead of root's. JELLYSCOUT_HOME overrides the whole tree.
package paths

import (
	"os"
	"os/user"
	"path/filepath"
)

// HomeEnv overrides the application directory when set
const HomeEnv = "JELLYSCOUT_HOME"

// UserHomeDir returns the home directory of the actual user.
// If running with sudo, returns the SUDO_USER's home directory, not root's.
func UserHomeDir() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" && sudoUser != "root" {
		u, err := user.Lookup(sudoUser)
		if err == nil {
			return u.HomeDir, nil
		}
	}

	return os.UserHomeDir()
}

// AppDir returns ~/.config/jellyscout for the actual user, or $JELLYSCOUT_HOME.
func AppDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	homeDir, err := UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "jellyscout"), nil
}

func inAppDir(elem ...string) (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{dir}, elem...)...), nil
}

// ConfigPath returns <app dir>/config.toml
func ConfigPath() (string, error) {
	return inAppDir("config.toml")
}

// DatabasePath returns <app dir>/seen.db
func DatabasePath() (string, error) {
	return inAppDir("seen.db")
}

// LogPath returns <app dir>/logs/jellyscout.log
func LogPath() (string, error) {
	return inAppDir("logs", "jellyscout.log")
}

// LockPath returns the lock file guarding a database against concurrent scans
func LockPath(dbPath string) string {
	return dbPath + ".lock"
}
