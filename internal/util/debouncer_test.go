package util

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_RapidTriggersRunOnlyTheLast(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var mu sync.Mutex
	var ran []string
	record := func(q string) func() {
		return func() {
			mu.Lock()
			defer mu.Unlock()
			ran = append(ran, q)
		}
	}

	for _, q := range []string{"i", "ip", "iph", "iphone", "rolex"} {
		d.Trigger(record(q))
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(ran) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"rolex"}, ran)
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	fired := make(chan struct{}, 1)

	d.Trigger(func() { fired <- struct{}{} })
	assert.True(t, d.Pending())
	assert.True(t, d.Cancel())
	assert.False(t, d.Pending())
	assert.False(t, d.Cancel())

	select {
	case <-fired:
		t.Fatal("cancelled func ran")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestDebouncer_StopIgnoresLaterTriggers(t *testing.T) {
	d := NewDebouncer(5 * time.Millisecond)
	fired := make(chan struct{}, 1)

	d.Stop()
	d.Trigger(func() { fired <- struct{}{} })

	select {
	case <-fired:
		t.Fatal("func ran after Stop")
	case <-time.After(30 * time.Millisecond):
	}
}
