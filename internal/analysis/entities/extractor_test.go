package entities

import (
	"testing"

	"github.com/mlclabs/voicedesk/internal/model/entity"
)

func TestExtractDateAndTime(t *testing.T) {
	found := Extract("March 5th at 2:30 PM works for me")

	date, ok := entity.Last(found, entity.Date)
	if !ok {
		t.Fatal("expected a DATE entity")
	}
	if date.Text != "March 5th" {
		t.Fatalf("unexpected date text: %q", date.Text)
	}

	clock, ok := entity.Last(found, entity.Time)
	if !ok {
		t.Fatal("expected a TIME entity")
	}
	if clock.Text != "2:30 PM" {
		t.Fatalf("unexpected time text: %q", clock.Text)
	}
}

func TestExtractDayFirstDateWithYear(t *testing.T) {
	found := Extract("let's say 5 March 2026 at 10:00 AM")
	date, ok := entity.Last(found, entity.Date)
	if !ok {
		t.Fatal("expected a DATE entity")
	}
	if date.Text != "5 March 2026" {
		t.Fatalf("unexpected date text: %q", date.Text)
	}
}

func TestExtractLaterMentionWins(t *testing.T) {
	found := Extract("not March 3rd, make it March 5th at 2:30 PM")
	date, _ := entity.Last(found, entity.Date)
	if date.Text != "March 5th" {
		t.Fatalf("expected later date to win, got %q", date.Text)
	}
}

func TestExtractPhone(t *testing.T) {
	found := Extract("you can reach me at 555-867-5309")
	phone, ok := entity.Last(found, entity.Phone)
	if !ok {
		t.Fatal("expected a PHONE entity")
	}
	if phone.Text != "555-867-5309" {
		t.Fatalf("unexpected phone text: %q", phone.Text)
	}
}

func TestExtractNothingParseable(t *testing.T) {
	if found := Extract("sometime next week"); len(found) != 0 {
		t.Fatalf("expected no entities, got %v", found)
	}
}
