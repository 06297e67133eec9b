package auth

import (
	"testing"
	"time"
)

func TestJitterDuration_WithinBounds(t *testing.T) {
	for i := 0; i < 1000; i++ {
		d := JitterDuration(VerifyDelayMin, VerifyDelayMax)
		if d < VerifyDelayMin || d > VerifyDelayMax {
			t.Fatalf("duration %v out of [%v, %v]", d, VerifyDelayMin, VerifyDelayMax)
		}
	}
}

func TestJitterDuration_DegenerateRange(t *testing.T) {
	if d := JitterDuration(time.Second, time.Second); d != time.Second {
		t.Fatalf("got %v", d)
	}
	if d := JitterDuration(time.Second, time.Millisecond); d != time.Second {
		t.Fatalf("inverted range should return min, got %v", d)
	}
}

func TestSleepDelayer_Blocks(t *testing.T) {
	start := time.Now()
	SleepDelayer(5*time.Millisecond, 10*time.Millisecond)
	if time.Since(start) < 5*time.Millisecond {
		t.Fatal("delayer returned too early")
	}
}
