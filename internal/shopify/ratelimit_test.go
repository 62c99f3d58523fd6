package shopify

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPacerFallsBackWithoutHeaders(t *testing.T) {
	p := NewPacer()
	assert.Equal(t, 100*time.Millisecond, p.Delay(100*time.Millisecond))

	p.Observe(http.Header{})
	assert.Equal(t, 100*time.Millisecond, p.Delay(100*time.Millisecond))
}

func TestPacerHonorsCallLimit(t *testing.T) {
	p := NewPacer()

	h := http.Header{}
	h.Set(callLimitHeader, "5/40")
	p.Observe(h)
	assert.Equal(t, time.Duration(0), p.Delay(100*time.Millisecond))

	h.Set(callLimitHeader, "30/40")
	p.Observe(h)
	// 10 calls above half capacity drain in 5s at 2 calls/s
	assert.Equal(t, 5*time.Second, p.Delay(100*time.Millisecond))
}

func TestPacerHonorsRetryAfter(t *testing.T) {
	p := NewPacer()

	h := http.Header{}
	h.Set("Retry-After", "2.0")
	p.Observe(h)
	assert.Equal(t, 2*time.Second, p.Delay(100*time.Millisecond))

	// a later response without Retry-After clears it
	h = http.Header{}
	h.Set(callLimitHeader, "1/40")
	p.Observe(h)
	assert.Equal(t, time.Duration(0), p.Delay(100*time.Millisecond))
}

func TestPacerWaitStopsOnCancel(t *testing.T) {
	p := NewPacer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Wait(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseCallLimit(t *testing.T) {
	used, limit, ok := ParseCallLimit("32/40")
	assert.True(t, ok)
	assert.Equal(t, 32, used)
	assert.Equal(t, 40, limit)

	_, _, ok = ParseCallLimit("32")
	assert.False(t, ok)
	_, _, ok = ParseCallLimit("a/b")
	assert.False(t, ok)
}

func TestParseRetryAfter(t *testing.T) {
	d, ok := ParseRetryAfter("1.5")
	assert.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, d)

	_, ok = ParseRetryAfter("")
	assert.False(t, ok)
	_, ok = ParseRetryAfter("soon")
	assert.False(t, ok)
}
