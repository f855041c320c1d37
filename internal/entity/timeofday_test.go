package entity

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"09:30:15", NewTimeOfDay(9, 30, 15), false},
		{"09:30", NewTimeOfDay(9, 30, 0), false},
		{"00:00:00", NewTimeOfDay(0, 0, 0), false},
		{"23:59:59", NewTimeOfDay(23, 59, 59), false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeOfDay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTimeOfDayString(t *testing.T) {
	if got := NewTimeOfDay(7, 5, 3).String(); got != "07:05:03" {
		t.Errorf("String() = %q", got)
	}
}

func TestTimeOfDayScan(t *testing.T) {
	var tod TimeOfDay

	if err := tod.Scan("18:45:00"); err != nil || tod != NewTimeOfDay(18, 45, 0) {
		t.Errorf("Scan(string) = %v, err %v", tod, err)
	}
	if err := tod.Scan([]byte("06:00:30")); err != nil || tod != NewTimeOfDay(6, 0, 30) {
		t.Errorf("Scan(bytes) = %v, err %v", tod, err)
	}
	if err := tod.Scan(time.Date(1, 1, 1, 13, 15, 0, 0, time.UTC)); err != nil || tod != NewTimeOfDay(13, 15, 0) {
		t.Errorf("Scan(time.Time) = %v, err %v", tod, err)
	}
	if err := tod.Scan(42); err == nil {
		t.Error("Scan(int) should fail")
	}
}

func TestTimeOfDayOrdering(t *testing.T) {
	early := NewTimeOfDay(8, 0, 0)
	late := NewTimeOfDay(20, 0, 0)
	if !early.Before(late) || !late.After(early) {
		t.Error("ordering is wrong")
	}
	if early.Before(early) || early.After(early) {
		t.Error("equal values must not be strictly ordered")
	}
}
