package domain

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{StatusCreated, StatusVerified, true},
		{StatusCreated, StatusSubmitted, true},
		{StatusVerified, StatusSubmitted, true},
		{StatusSubmitted, StatusAcknowledged, true},
		{StatusAcknowledged, StatusPending, true},
		{StatusPending, StatusSuspended, true},
		{StatusPending, StatusDenied, true},
		{StatusPending, StatusPaid, true},
		{StatusSuspended, StatusPending, true},
		{StatusDenied, StatusAppealed, true},
		{StatusAppealed, StatusPending, true},
		{StatusAppealed, StatusPaid, true},
		{StatusAppealed, StatusDenied, true},

		{StatusPaid, StatusPending, false},
		{StatusPaid, StatusDenied, false},
		{StatusCreated, StatusPending, false},
		{StatusSubmitted, StatusPending, false},
		{StatusDenied, StatusPending, false},
		{StatusSuspended, StatusDenied, false},
		{"bogus", StatusPending, false},
	}

	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(StatusPaid) {
		t.Error("paid should be terminal")
	}
	if IsTerminal(StatusDenied) {
		t.Error("denied should not be terminal: it may still be appealed")
	}
	if IsTerminal(StatusPending) {
		t.Error("pending should not be terminal")
	}
}

func TestDetectStuck_PendingPastThreshold(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	eightDaysAgo := now.Add(-8 * 24 * time.Hour)

	result := DetectStuck(StatusPending, eightDaysAgo, now, DefaultStuckThreshold)

	if !result.Stuck {
		t.Fatal("claim pending for 8 days should be stuck")
	}
	if result.DaysPending != 8 {
		t.Fatalf("expected 8 days pending, got %d", result.DaysPending)
	}
}

func TestDetectStuck_PendingWithinThreshold(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	sixDaysAgo := now.Add(-6 * 24 * time.Hour)

	result := DetectStuck(StatusPending, sixDaysAgo, now, DefaultStuckThreshold)

	if result.Stuck {
		t.Fatal("claim pending for 6 days should not be stuck")
	}
	if result.DaysPending != 6 {
		t.Fatalf("expected 6 days pending, got %d", result.DaysPending)
	}
}

func TestDetectStuck_NonPendingNeverStuck(t *testing.T) {
	now := time.Now()
	longAgo := now.Add(-30 * 24 * time.Hour)

	for _, status := range []string{StatusSubmitted, StatusAcknowledged, StatusPaid, StatusDenied} {
		result := DetectStuck(status, longAgo, now, DefaultStuckThreshold)
		if result.Stuck {
			t.Errorf("status %q should never be flagged stuck", status)
		}
	}
}

func TestDetectStuck_CustomThreshold(t *testing.T) {
	now := time.Now()
	threeDaysAgo := now.Add(-3 * 24 * time.Hour)

	if !DetectStuck(StatusPending, threeDaysAgo, now, 48*time.Hour).Stuck {
		t.Error("3 days pending should be stuck with a 2-day threshold")
	}
	if DetectStuck(StatusPending, threeDaysAgo, now, 96*time.Hour).Stuck {
		t.Error("3 days pending should not be stuck with a 4-day threshold")
	}
}

func TestCanSubmit(t *testing.T) {
	green := ReadinessGreen
	yellow := ReadinessYellow
	red := ReadinessRed

	tests := []struct {
		name      string
		status    string
		readiness *string
		want      bool
	}{
		{"green created claim", StatusCreated, &green, true},
		{"red claim is blocked", StatusCreated, &red, false},
		{"yellow claim is blocked", StatusCreated, &yellow, false},
		{"unscored claim is blocked", StatusCreated, nil, false},
		{"already submitted", StatusSubmitted, &green, false},
		{"paid claim", StatusPaid, &green, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := CanSubmit(tt.status, tt.readiness)
			if ok != tt.want {
				t.Fatalf("CanSubmit(%s, %v) = %v, want %v", tt.status, tt.readiness, ok, tt.want)
			}
			if !ok && reason == "" {
				t.Fatal("blocked submission must carry a reason")
			}
		})
	}
}
