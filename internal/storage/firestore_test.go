package storage

import "testing"

func TestStateDocID(t *testing.T) {
	// Usernames are case-insensitive upstream; two spellings of one
	// player must land on the same document.
	tests := []struct {
		username string
		want     string
	}{
		{"hikaru", "hikaru"},
		{"Hikaru", "hikaru"},
		{"MagnusCarlsen", "magnuscarlsen"},
		{"a_b-c123", "a_b-c123"},
	}
	for _, tt := range tests {
		if got := stateDocID(tt.username); got != tt.want {
			t.Errorf("stateDocID(%q) = %q, want %q", tt.username, got, tt.want)
		}
	}
}
