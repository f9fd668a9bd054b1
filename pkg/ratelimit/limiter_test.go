package ratelimit

import (
	"testing"
	"time"
)

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d denied with tokens remaining", i+1)
		}
	}

	if tb.Allow() {
		t.Error("request allowed with empty bucket")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(2, 20*time.Millisecond)

	tb.Allow()
	tb.Allow()
	if tb.Allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(30 * time.Millisecond)

	if !tb.Allow() {
		t.Error("bucket did not refill after period")
	}
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)

	tb.Allow()
	if tb.Allow() {
		t.Fatal("bucket should be empty")
	}

	tb.Reset()

	if !tb.Allow() {
		t.Error("reset did not restore capacity")
	}
}

func TestTokenBucketWait(t *testing.T) {
	tb := NewTokenBucket(1, 10*time.Millisecond)

	tb.Allow()

	start := time.Now()
	tb.Wait()
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Errorf("Wait() blocked too long: %v", elapsed)
	}
}

func TestTokenBucketConcurrentAccess(t *testing.T) {
	tb := NewTokenBucket(100, time.Hour)

	done := make(chan bool)
	allowed := make(chan bool, 200)

	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 20; j++ {
				allowed <- tb.Allow()
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}

	if count != 100 {
		t.Errorf("allowed %d requests, want exactly 100", count)
	}
}
