package security

import (
	"path/filepath"
	"strings"
)

// criticalNames are basenames of shell, editor, credential and tool
// configuration files or directories. Nested entries such as .config/nvim
// are covered by their .config ancestor.
var criticalNames = toSet([]string{
	// shells
	".bashrc", ".bash_profile", ".bash_logout", ".profile", ".zshrc", ".zprofile",
	".inputrc", ".tmux.conf", ".screenrc",
	// editors
	".vimrc", ".gvimrc", ".emacs", ".emacs.d",
	// generic config and state dirs
	".config", ".local", ".cache", ".env",
	// credentials
	".ssh", ".gnupg", ".aws", ".docker", ".kube", ".netrc",
	// package managers and toolchains
	".npm", ".pip", ".conda", ".rvm", ".rbenv", ".cargo", ".rustup",
	".gradle", ".m2", ".ivy2", ".sbt", ".coursier", ".lein", ".boot",
	".clojure", ".cider",
	// vcs
	".gitconfig", ".hgrc", ".subversion",
	// history files
	".lesshst", ".python_history", ".mysql_history", ".psql_history",
	".sqlite_history", ".nrepl-history",
	// X11
	".Xauthority", ".xinitrc", ".xsession", ".xprofile", ".xrc", ".Xresources",
	".gtkrc", ".xmodmap",
	// applications
	".calibredb", ".thunderbird", ".mozilla", ".chromium", ".google-chrome",
	".opera", ".vlc", ".audacity-data", ".gimp", ".inkscape", ".blender",
	// desktops and window managers
	".kde", ".gnome", ".cinnamon", ".mate", ".xfce4", ".lxde", ".fluxbox",
	".i3", ".sway", ".bspwm", ".dwm", ".xmonad", ".herbstluftwm",
})

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// IsCritical reports whether the file itself or any ancestor directory
// matches a known sensitive configuration name. The result is advisory.
func IsCritical(path string) bool {
	if path == "" {
		return false
	}

	for _, part := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
		if _, ok := criticalNames[part]; ok {
			return true
		}
	}
	return false
}

// CriticalNames returns a copy of the classifier's name list
func CriticalNames() []string {
	names := make([]string, 0, len(criticalNames))
	for n := range criticalNames {
		names = append(names, n)
	}
	return names
}
