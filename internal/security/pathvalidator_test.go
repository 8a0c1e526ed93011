package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidatePathForDeletion(t *testing.T) {
	pv := NewPathValidator()
	tmp := t.TempDir()

	tests := []struct {
		name        string
		path        string
		shouldError bool
		errorMsg    string
	}{
		{"file in temp dir - valid", filepath.Join(tmp, "copy.txt"), false, ""},
		{"parenthesised name - valid", filepath.Join(tmp, "photo (1).jpg"), false, ""},
		{"relative path - invalid", "relative/path.txt", true, "path must be absolute"},
		{"empty path - invalid", "", true, "path must be absolute"},
		{"unclean path - invalid", tmp + "/a/../b.txt", true, "suspicious elements"},
		{"root directory - protected", "/", true, "protected path"},
		{"system binary - protected", "/usr/bin/ls", true, "under protected path"},
		{"etc file - protected", "/etc/hosts", true, "under protected path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pv.ValidatePathForDeletion(tt.path)

			if tt.shouldError {
				if err == nil {
					t.Fatalf("expected error for %q, got nil", tt.path)
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error for %q: %v", tt.path, err)
			}
		})
	}
}

func TestValidatePathForDeletionResolvesSymlinkedParent(t *testing.T) {
	tmp := t.TempDir()
	protectedDir := filepath.Join(tmp, "vault")
	if err := os.MkdirAll(protectedDir, 0755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(tmp, "shortcut")
	if err := os.Symlink(protectedDir, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	pv := NewPathValidator()
	resolvedVault, err := filepath.EvalSymlinks(protectedDir)
	if err != nil {
		t.Fatal(err)
	}
	pv.AddProtectedPath(resolvedVault)

	if err := pv.ValidatePathForDeletion(filepath.Join(link, "secret.txt")); err == nil {
		t.Error("expected deletion through symlinked parent into protected dir to be refused")
	}
}

func TestIsProtectedPath(t *testing.T) {
	pv := NewPathValidator()
	pv.AddProtectedPath("/home/user/keep/")

	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/usr", true},
		{"/usr/local/bin/tool", true},
		{"/home/user/keep", true},
		{"/home/user/keep/photo.jpg", true},
		{"/home/user/keeper/photo.jpg", false},
		{"/home/user/Downloads/a.zip", false},
		{"/tmp/file", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := pv.IsProtectedPath(tt.path); got != tt.want {
				t.Errorf("IsProtectedPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestValidateGlobPattern(t *testing.T) {
	tests := []struct {
		pattern string
		wantErr bool
	}{
		{"*.tmp", false},
		{"node_modules", false},
		{"Thumbs.db", false},
		{"[abc]*.log", false},
		{"../*", true},
		{"[", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			err := ValidateGlobPattern(tt.pattern)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGlobPattern(%q) error = %v, wantErr %v", tt.pattern, err, tt.wantErr)
			}
		})
	}
}

func TestProtectedPathSentinel(t *testing.T) {
	pv := NewPathValidator()
	pv.AddProtectedPath("/srv/archive")

	err := pv.ValidatePathForDeletion("/srv/archive/2019/photo.jpg")
	if !errors.Is(err, ErrProtectedPath) {
		t.Fatalf("expected ErrProtectedPath, got %v", err)
	}

	err = pv.ValidatePathForDeletion("relative.txt")
	if errors.Is(err, ErrProtectedPath) {
		t.Fatalf("relative path should not be reported as protected: %v", err)
	}
}
