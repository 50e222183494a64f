package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockAdvance(t *testing.T) {
	c := Fake(epoch)
	if got := c.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	c.Advance(36 * time.Hour)
	want := epoch.Add(36 * time.Hour)
	if got := c.Now(); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClockSet(t *testing.T) {
	c := Fake(epoch)
	target := epoch.AddDate(0, 3, 0)
	c.Set(target)
	if got := c.Now(); !got.Equal(target) {
		t.Fatalf("Now() after Set = %v, want %v", got, target)
	}
}

func TestRealClockMovesForward(t *testing.T) {
	c := Real()
	first := c.Now()
	if c.Now().Before(first) {
		t.Fatal("real clock went backwards")
	}
}
