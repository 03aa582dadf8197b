package date

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestAddMonths(t *testing.T) {
	testCases := []struct {
		on   Date
		add  int
		want Date
	}{
		{New(2025, time.January, 31), 1, New(2025, time.February, 1)},
		{New(2025, time.August, 15), 0, New(2025, time.August, 1)},
		{New(2025, time.November, 30), 2, New(2026, time.January, 1)},
		{New(2025, time.March, 1), -3, New(2024, time.December, 1)},
		{New(2025, time.August, 1), 59, New(2030, time.July, 1)},
	}
	for _, tc := range testCases {
		if got := tc.on.AddMonths(tc.add); got != tc.want {
			t.Errorf("%v.AddMonths(%d) = %v, want %v", tc.on, tc.add, got, tc.want)
		}
	}
}

func TestMonthsUntil(t *testing.T) {
	from := New(2025, time.August, 19)
	if got := from.MonthsUntil(from.AddMonths(23)); got != 23 {
		t.Errorf("MonthsUntil() = %d, want 23", got)
	}
	if got := from.MonthsUntil(New(2025, time.August, 2)); got != 0 {
		t.Errorf("MonthsUntil() same month = %d, want 0", got)
	}
}

func TestLabel(t *testing.T) {
	testCases := []struct {
		on   Date
		want string
	}{
		{New(2025, time.August, 19), "Aug 25"},
		{New(2030, time.January, 1), "Jan 30"},
		{New(2025, time.December, 31), "Dec 25"},
	}
	for _, tc := range testCases {
		if got := tc.on.Label(); got != tc.want {
			t.Errorf("%v.Label() = %q, want %q", tc.on, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "2025-07-01", want: New(2025, time.July, 1)},
		{in: "2025-7-1", want: New(2025, time.July, 1)},
		{in: "2025-07", want: New(2025, time.July, 1)},
		{in: "july", wantErr: true},
	}
	for _, tc := range testCases {
		got, err := Parse(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestJSON(t *testing.T) {
	in := New(2025, time.August, 1)
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"2025-08-01"` {
		t.Errorf("Marshal() = %s", data)
	}
	var out Date
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out != in {
		t.Errorf("Unmarshal() = %v, want %v", out, in)
	}
}
