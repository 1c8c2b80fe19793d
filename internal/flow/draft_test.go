package flow

import (
	stderrors "errors"
	"testing"

	"GeetaSaathi/pkg/errors"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name      string
		first     string
		last      string
		wantFirst string
		wantErr   bool
	}{
		{name: "trimmed", first: "  Arun ", last: " Kumar ", wantFirst: "Arun"},
		{name: "two letters", first: "Om", wantFirst: "Om"},
		{name: "one letter", first: "A", wantErr: true},
		{name: "devanagari", first: "अरुण", wantFirst: "अरुण"},
		// consonant + vowel sign counts as two runes
		{name: "combining marks", first: "कि", wantFirst: "कि"},
		{name: "too long", first: string(make([]rune, 65)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, _, err := validateName(tt.first, tt.last)
			if tt.wantErr {
				if !stderrors.Is(err, errors.NameInvalid) {
					t.Fatalf("err = %v, want NAME_INVALID", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if first != tt.wantFirst {
				t.Fatalf("first = %q, want %q", first, tt.wantFirst)
			}
		})
	}
}

func TestValidateGoal(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "Peace", want: "peace"},
		{input: " self_growth ", want: "self_growth"},
		{input: "", wantErr: true},
		{input: "inner peace", wantErr: true},
		{input: "abcdefghijklmnopqrstuvwxyz0123456", wantErr: true},
	}

	for _, tt := range tests {
		got, err := validateGoal(tt.input)
		if (err != nil) != tt.wantErr {
			t.Fatalf("validateGoal(%q) err = %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("validateGoal(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
