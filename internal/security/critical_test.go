package security

import "testing"

func TestIsCritical(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"ssh config", "/home/u/.ssh/config", true},
		{"ssh dir itself", "/home/u/.ssh", true},
		{"bashrc basename", "/home/u/.bashrc", true},
		{"backup copy of bashrc", "/backups/2024/.bashrc", true},
		{"nested under .config", "/home/u/.config/nvim/init.lua", true},
		{"deep under aws", "/home/u/.aws/sso/cache/token.json", true},
		{"relative path", ".gnupg/pubring.kbx", true},
		{"plain document", "/home/u/Documents/report.pdf", false},
		{"similar but not equal name", "/home/u/.bashrc.bak", false},
		{"name as substring of dir", "/home/u/my.ssh/notes.txt", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCritical(tt.path); got != tt.want {
				t.Errorf("IsCritical(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestCriticalNamesIsACopy(t *testing.T) {
	names := CriticalNames()
	if len(names) == 0 {
		t.Fatal("expected a non-empty name list")
	}
	names[0] = "mutated"
	if IsCritical("/x/mutated") {
		t.Error("mutating the returned slice must not affect classification")
	}
}
