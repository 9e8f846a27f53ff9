package server

import "testing"

func TestParseControlCommandMatches(t *testing.T) {
	cmd, off, ok := parseControlCommand("AESDCHAR_IOCSEEKTO:3,12")
	if !ok {
		t.Fatalf("expected match")
	}
	if cmd != 3 || off != 12 {
		t.Fatalf("got cmd=%d off=%d, want 3,12", cmd, off)
	}
}

func TestParseControlCommandRejectsOrdinaryData(t *testing.T) {
	cases := []string{
		"hello world",
		"AESDCHAR_IOCSEEKTO:3,12 extra",
		"AESDCHAR_IOCSEEKTO:3",
		"AESDCHAR_IOCSEEKTO:,12",
		"",
	}
	for _, line := range cases {
		if _, _, ok := parseControlCommand(line); ok {
			t.Fatalf("expected %q to be rejected", line)
		}
	}
}
