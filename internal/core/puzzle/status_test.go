package puzzle

import (
	"testing"
	"time"
)

func TestClampCompleteness_Monotonic(t *testing.T) {
	reported := []int{10, 5, 40, 40, 0, 35, 80, 120, 50}
	stored := 0

	for i, v := range reported {
		next := ClampCompleteness(stored, v)
		want := stored
		if v > want {
			want = v
		}
		if want > MaxCompleteness {
			want = MaxCompleteness
		}
		if next != want {
			t.Errorf("step %d: ClampCompleteness(%d, %d) = %d, want %d", i, stored, v, next, want)
		}
		if next < stored {
			t.Fatalf("step %d: completeness decreased from %d to %d", i, stored, next)
		}
		stored = next
	}

	if stored != MaxCompleteness {
		t.Errorf("expected final completeness %d, got %d", MaxCompleteness, stored)
	}
}

func TestShouldFinish(t *testing.T) {
	tests := []struct {
		name         string
		isCorrect    bool
		completeness int
		want         bool
	}{
		{name: "correct solve", isCorrect: true, completeness: 30, want: true},
		{name: "full completeness without solve", isCorrect: false, completeness: 100, want: true},
		{name: "neither", isCorrect: false, completeness: 99, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldFinish(tt.isCorrect, tt.completeness); got != tt.want {
				t.Errorf("ShouldFinish() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFinish(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := InitialState(now.Add(-time.Hour))
	s.Completeness = 70

	got := Finish(s, "Alice", now)

	if got.Status != StatusFinished {
		t.Errorf("expected status %s, got %s", StatusFinished, got.Status)
	}
	if got.Winner != "Alice" {
		t.Errorf("expected winner Alice, got %q", got.Winner)
	}
	if got.Completeness != 70 {
		t.Errorf("expected completeness preserved, got %d", got.Completeness)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("expected UpdatedAt %v, got %v", now, got.UpdatedAt)
	}
}

func TestRedacted(t *testing.T) {
	p := Puzzle{Title: "t", Surface: "s", Truth: "secret"}

	if got := Redacted(p, StatusPlaying); got.Truth != "" {
		t.Errorf("expected truth hidden while playing, got %q", got.Truth)
	}
	if got := Redacted(p, StatusFinished); got.Truth != "secret" {
		t.Errorf("expected truth revealed once finished, got %q", got.Truth)
	}
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "empty", opts: Options{}},
		{name: "valid", opts: Options{Theme: "lighthouse", Genre: "Henkaku", Difficulty: "hard"}},
		{name: "bad genre", opts: Options{Genre: "noir"}, wantErr: true},
		{name: "bad difficulty", opts: Options{Difficulty: "insane"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOptions(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOptions() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTagsLine(t *testing.T) {
	got := TagsLine(Tags{Genre: "honkaku", HasDeath: true, Difficulty: "easy"})
	want := "TAGS: HONKAKU / DEATH:YES / EASY"
	if got != want {
		t.Errorf("TagsLine() = %q, want %q", got, want)
	}
}
