package entity

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func todPtr(h, m int) *TimeOfDay {
	v := NewTimeOfDay(h, m, 0)
	return &v
}

func TestPromotionActiveAt(t *testing.T) {
	tests := []struct {
		name  string
		promo Promotion
		now   time.Time
		want  bool
	}{
		{
			name:  "inside date window, no time bounds",
			promo: Promotion{ValidFrom: date(2026, 8, 1), ValidTo: date(2026, 8, 31)},
			now:   time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC),
			want:  true,
		},
		{
			name:  "first day counts",
			promo: Promotion{ValidFrom: date(2026, 8, 1), ValidTo: date(2026, 8, 31)},
			now:   time.Date(2026, 8, 1, 0, 0, 1, 0, time.UTC),
			want:  true,
		},
		{
			name:  "last day counts even late in the evening",
			promo: Promotion{ValidFrom: date(2026, 8, 1), ValidTo: date(2026, 8, 31)},
			now:   time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC),
			want:  true,
		},
		{
			name:  "before window",
			promo: Promotion{ValidFrom: date(2026, 8, 1), ValidTo: date(2026, 8, 31)},
			now:   time.Date(2026, 7, 31, 23, 0, 0, 0, time.UTC),
			want:  false,
		},
		{
			name:  "after window",
			promo: Promotion{ValidFrom: date(2026, 8, 1), ValidTo: date(2026, 8, 31)},
			now:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			want:  false,
		},
		{
			name: "inside happy hour",
			promo: Promotion{
				ValidFrom: date(2026, 8, 1), ValidTo: date(2026, 8, 31),
				StartTime: todPtr(16, 0), EndTime: todPtr(18, 0),
			},
			now:  time.Date(2026, 8, 15, 17, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "time window boundaries are inclusive",
			promo: Promotion{
				ValidFrom: date(2026, 8, 1), ValidTo: date(2026, 8, 31),
				StartTime: todPtr(16, 0), EndTime: todPtr(18, 0),
			},
			now:  time.Date(2026, 8, 15, 16, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "before happy hour",
			promo: Promotion{
				ValidFrom: date(2026, 8, 1), ValidTo: date(2026, 8, 31),
				StartTime: todPtr(16, 0), EndTime: todPtr(18, 0),
			},
			now:  time.Date(2026, 8, 15, 15, 59, 59, 0, time.UTC),
			want: false,
		},
		{
			name: "after happy hour",
			promo: Promotion{
				ValidFrom: date(2026, 8, 1), ValidTo: date(2026, 8, 31),
				StartTime: todPtr(16, 0), EndTime: todPtr(18, 0),
			},
			now:  time.Date(2026, 8, 15, 18, 0, 1, 0, time.UTC),
			want: false,
		},
		{
			name: "only start bound set",
			promo: Promotion{
				ValidFrom: date(2026, 8, 1), ValidTo: date(2026, 8, 31),
				StartTime: todPtr(20, 0),
			},
			now:  time.Date(2026, 8, 15, 23, 30, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "only end bound set and already past",
			promo: Promotion{
				ValidFrom: date(2026, 8, 1), ValidTo: date(2026, 8, 31),
				EndTime: todPtr(11, 0),
			},
			now:  time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.promo.ActiveAt(tt.now); got != tt.want {
				t.Errorf("ActiveAt(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestPromotionCovers(t *testing.T) {
	promo := Promotion{Dishes: []*Dish{{ID: 1}, {ID: 5}}}
	if !promo.Covers(5) {
		t.Error("Covers(5) should be true")
	}
	if promo.Covers(9) {
		t.Error("Covers(9) should be false")
	}
}
