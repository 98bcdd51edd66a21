package planning

import (
	"errors"
	"testing"
	"time"
)

func TestNewTimeOfDay(t *testing.T) {
	t.Parallel()

	if got := MustTimeOfDay(9, 30); got != TimeOfDay(570) {
		t.Fatalf("expected 570 minutes, got %d", got)
	}
	if _, err := NewTimeOfDay(24, 0); !errors.Is(err, ErrInvalidTimeOfDay) {
		t.Fatalf("expected ErrInvalidTimeOfDay for hour 24, got %v", err)
	}
	if _, err := NewTimeOfDay(10, 60); !errors.Is(err, ErrInvalidTimeOfDay) {
		t.Fatalf("expected ErrInvalidTimeOfDay for minute 60, got %v", err)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{input: "09:30", want: MustTimeOfDay(9, 30)},
		{input: "0:00", want: MustTimeOfDay(0, 0)},
		{input: "23:59", want: MustTimeOfDay(23, 59)},
		{input: "25:00", wantErr: true},
		{input: "morning", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseTimeOfDay(tc.input)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidTimeOfDay) {
				t.Fatalf("ParseTimeOfDay(%q): expected ErrInvalidTimeOfDay, got %v", tc.input, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q) failed: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseTimeOfDay(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestTimeOfDay_String(t *testing.T) {
	t.Parallel()

	if got := MustTimeOfDay(7, 5).String(); got != "07:05" {
		t.Fatalf("expected zero-padded formatting, got %q", got)
	}
}

func TestTimeOfDay_Add(t *testing.T) {
	t.Parallel()

	if got := MustTimeOfDay(9, 0).Add(30 * time.Minute); got != MustTimeOfDay(9, 30) {
		t.Fatalf("expected 09:30, got %v", got)
	}
	if got := MustTimeOfDay(23, 45).Add(time.Hour); got != MustTimeOfDay(23, 59) {
		t.Fatalf("expected clamping at the end of day, got %v", got)
	}
	if got := MustTimeOfDay(0, 10).Add(-time.Hour); got != MustTimeOfDay(0, 0) {
		t.Fatalf("expected clamping at midnight, got %v", got)
	}
}

func TestTimeOfDay_At(t *testing.T) {
	t.Parallel()

	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}
	reference := time.Date(2026, time.January, 12, 15, 42, 7, 0, paris)

	got := MustTimeOfDay(9, 30).At(reference, paris)
	want := time.Date(2026, time.January, 12, 9, 30, 0, 0, paris)
	if !got.Equal(want) {
		t.Fatalf("At = %v, want %v", got, want)
	}

	// The civil date is taken in the target location, not the reference's.
	lateUTC := time.Date(2026, time.January, 12, 23, 30, 0, 0, time.UTC)
	got = MustTimeOfDay(9, 0).At(lateUTC, paris)
	want = time.Date(2026, time.January, 13, 9, 0, 0, 0, paris)
	if !got.Equal(want) {
		t.Fatalf("At across midnight = %v, want %v", got, want)
	}
}

func TestDateOf(t *testing.T) {
	t.Parallel()

	instant := time.Date(2026, time.January, 12, 18, 4, 59, 0, time.UTC)
	if got := DateOf(instant, nil); !got.Equal(time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("DateOf = %v", got)
	}
	if !SameDate(instant, instant.Add(time.Hour), time.UTC) {
		t.Fatal("expected the same civil date")
	}
	if SameDate(instant, instant.Add(7*time.Hour), time.UTC) {
		t.Fatal("expected a different civil date past midnight")
	}
}
