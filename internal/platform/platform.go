// Package platform knows the per-OS directories dupefinder must never delete
// from and where it keeps its own files.
package platform

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// Platform represents the operating system platform
type Platform string

const (
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Unknown Platform = "unknown"
)

// AppName names the per-user directory holding config, sessions and logs
const AppName = "dupefinder"

// ErrNoHome is returned when neither XDG_CONFIG_HOME nor a home directory
// can be determined
var ErrNoHome = errors.New("cannot determine home directory")

// Detect returns the current platform
func Detect() Platform {
	return fromGOOS(runtime.GOOS)
}

func fromGOOS(goos string) Platform {
	switch goos {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

var unixSystemPaths = []string{
	"/",
	"/bin",
	"/boot",
	"/dev",
	"/etc",
	"/lib",
	"/lib64",
	"/proc",
	"/sbin",
	"/sys",
	"/usr",
}

var linuxSystemPaths = []string{
	"/run",
	"/snap",
	"/var/lib",
}

var macOSSystemPaths = []string{
	"/System",
	"/Applications",
	"/Library/System",
	"/private/etc",
	"/private/var/db",
}

// SystemPaths returns the system directories that are off limits for
// deletion on p. Unknown platforms get every known list.
func SystemPaths(p Platform) []string {
	paths := append([]string(nil), unixSystemPaths...)
	switch p {
	case Linux:
		paths = append(paths, linuxSystemPaths...)
	case MacOS:
		paths = append(paths, macOSSystemPaths...)
	default:
		paths = append(paths, linuxSystemPaths...)
		paths = append(paths, macOSSystemPaths...)
	}
	return paths
}

// AppDir returns $XDG_CONFIG_HOME/dupefinder, falling back to
// ~/.config/dupefinder on every platform
func AppDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" && filepath.IsAbs(dir) {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", ErrNoHome
	}
	return filepath.Join(home, ".config", AppName), nil
}
