package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{StatusNew, StatusContacted, true},
		{StatusNew, StatusQualified, true},
		{StatusContacted, StatusQualified, true},
		{StatusQualified, StatusConverted, true},
		{StatusQualified, StatusLost, true},
		{StatusContacted, StatusConverted, false},
		{StatusConverted, StatusLost, false},
		{StatusLost, StatusNew, false},
		{StatusUnqualified, StatusQualified, false},
		{"bogus", StatusNew, false},
	}

	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []string{StatusUnqualified, StatusConverted, StatusLost} {
		if !IsTerminal(status) {
			t.Errorf("IsTerminal(%q) = false, want true", status)
		}
	}
	for _, status := range []string{StatusNew, StatusContacted, StatusQualified} {
		if IsTerminal(status) {
			t.Errorf("IsTerminal(%q) = true, want false", status)
		}
	}
}
