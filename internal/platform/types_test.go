package platform

import (
	"errors"
	"testing"
)

func TestParseWindowAction_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  WindowAction
	}{
		{"maximize", ActionMaximize},
		{"Maximize", ActionMaximize},
		{"CLOSE", ActionClose},
		{" focus ", ActionFocus},
	}
	for _, tt := range tests {
		got, err := ParseWindowAction(tt.input)
		if err != nil {
			t.Errorf("ParseWindowAction(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseWindowAction(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseWindowAction_Invalid(t *testing.T) {
	for _, s := range []string{"", "minimize", "kill"} {
		_, err := ParseWindowAction(s)
		if !errors.Is(err, ErrUnknownAction) {
			t.Errorf("ParseWindowAction(%q) = %v, want ErrUnknownAction", s, err)
		}
	}
}
