package markethours

import (
	"testing"
	"time"
)

func istTime(month time.Month, day, hour, min int) time.Time {
	return time.Date(2026, month, day, hour, min, 0, 0, IST)
}

func TestIsMarketOpen(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"weekday mid-session", istTime(time.August, 5, 11, 0), true},
		{"exact open", istTime(time.August, 5, 9, 15), true},
		{"one minute before open", istTime(time.August, 5, 9, 14), false},
		{"exact close", istTime(time.August, 5, 15, 30), false},
		{"one minute before close", istTime(time.August, 5, 15, 29), true},
		{"saturday", istTime(time.August, 8, 11, 0), false},
		{"sunday", istTime(time.August, 9, 11, 0), false},
		{"republic day", istTime(time.January, 26, 11, 0), false},
		{"christmas", istTime(time.December, 25, 11, 0), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsMarketOpen(tc.t); got != tc.want {
				t.Errorf("IsMarketOpen(%s) = %v, want %v", tc.t, got, tc.want)
			}
		})
	}
}

func TestIsMarketOpenConvertsZones(t *testing.T) {
	// 05:45 UTC is 11:15 IST on the same weekday.
	utc := time.Date(2026, time.August, 5, 5, 45, 0, 0, time.UTC)
	if !IsMarketOpen(utc) {
		t.Error("UTC instant inside the IST session reported closed")
	}
}

func TestNextOpen(t *testing.T) {
	// Before today's open on a trading day: today 9:15.
	early := istTime(time.August, 5, 8, 0)
	if got := NextOpen(early); !got.Equal(istTime(time.August, 5, 9, 15)) {
		t.Errorf("NextOpen(early) = %s", got)
	}

	// Friday evening rolls to Monday.
	friday := istTime(time.August, 7, 17, 0)
	if got := NextOpen(friday); !got.Equal(istTime(time.August, 10, 9, 15)) {
		t.Errorf("NextOpen(friday) = %s", got)
	}

	// Holiday morning rolls past the holiday.
	republicDay := istTime(time.January, 26, 8, 0)
	if got := NextOpen(republicDay); !got.Equal(istTime(time.January, 27, 9, 15)) {
		t.Errorf("NextOpen(holiday) = %s", got)
	}
}

func TestTimeUntilClose(t *testing.T) {
	at := istTime(time.August, 5, 15, 0)
	if got := TimeUntilClose(at); got != 30*time.Minute {
		t.Errorf("TimeUntilClose = %s, want 30m", got)
	}
	after := istTime(time.August, 5, 16, 0)
	if got := TimeUntilClose(after); got != 0 {
		t.Errorf("TimeUntilClose after hours = %s, want 0", got)
	}
}

func TestIsHoliday(t *testing.T) {
	if !IsHoliday(istTime(time.January, 26, 12, 0)) {
		t.Error("Republic Day not recognized")
	}
	if IsHoliday(istTime(time.August, 5, 12, 0)) {
		t.Error("ordinary weekday flagged as holiday")
	}
}
