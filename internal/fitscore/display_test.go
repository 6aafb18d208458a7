package fitscore

import "testing"

func TestColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  string
	}{
		{100, ColorGreen},
		{80, ColorGreen},
		{79, ColorYellow},
		{60, ColorYellow},
		{59, ColorRed},
		{0, ColorRed},
	}

	for _, tt := range tests {
		if got := Color(tt.score); got != tt.want {
			t.Fatalf("Color(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestStatusIcon(t *testing.T) {
	t.Parallel()

	tests := map[Status]string{
		StatusPass:    "CheckCircle2",
		StatusWarning: "AlertCircle",
		StatusInfo:    "Info",
		StatusUnknown: "HelpCircle",
		StatusBonus:   "Star",
		Status("odd"): "Circle",
	}

	for status, want := range tests {
		if got := StatusIcon(status); got != want {
			t.Fatalf("StatusIcon(%q) = %q, want %q", status, got, want)
		}
	}
}
