package ratelimiter

import (
	"testing"
	"time"
)

func TestNilLimiterAllowsEverything(t *testing.T) {
	var l *AttemptLimiter
	for i := 0; i < 100; i++ {
		if !l.Allow("record", time.Now()) {
			t.Fatal("nil limiter must allow")
		}
	}
}

func TestInvalidArgsReturnNil(t *testing.T) {
	if New(0, 3, time.Minute) != nil {
		t.Fatal("zero rate should return nil")
	}
	if New(1, 0, time.Minute) != nil {
		t.Fatal("zero burst should return nil")
	}
}

func TestBurstThenThrottle(t *testing.T) {
	l := New(1, 3, time.Minute)
	now := time.Now()
	for i := 0; i < 3; i++ {
		if !l.Allow("keys/current", now) {
			t.Fatalf("attempt %d inside burst denied", i)
		}
	}
	if l.Allow("keys/current", now) {
		t.Fatal("attempt past burst allowed")
	}
	// Tokens refill with time.
	if !l.Allow("keys/current", now.Add(2*time.Second)) {
		t.Fatal("attempt after refill denied")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(1, 1, time.Minute)
	now := time.Now()
	if !l.Allow("a", now) {
		t.Fatal("first key denied")
	}
	if !l.Allow("b", now) {
		t.Fatal("second key should have its own bucket")
	}
	if l.Allow("a", now) {
		t.Fatal("first key should be exhausted")
	}
}

func TestBlankKeyBypasses(t *testing.T) {
	l := New(1, 1, time.Minute)
	now := time.Now()
	for i := 0; i < 5; i++ {
		if !l.Allow("  ", now) {
			t.Fatal("blank key must bypass limiting")
		}
	}
}
