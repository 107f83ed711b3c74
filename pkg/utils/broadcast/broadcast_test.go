package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func recv(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return 0
	}
}

func TestBroadcast_FanOut(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("test", source)
	defer b.Close()

	first := b.Subscribe()
	second := b.Subscribe()

	go func() { source <- 42 }()
	assert.Equal(t, 42, recv(t, first))
	assert.Equal(t, 42, recv(t, second))
}

func TestBroadcast_CancelSubscriptionClosesChannel(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("test", source)
	defer b.Close()

	ch := b.Subscribe()
	b.CancelSubscription(ch)

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestBroadcast_SlowListenerIsSkipped(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("test", source,
		WithSendTimeout[int](10*time.Millisecond))
	defer b.Close()

	// subscribed but never reading
	b.Subscribe()
	active := b.Subscribe()

	go func() {
		source <- 1
		source <- 2
	}()
	assert.Equal(t, 1, recv(t, active))
	assert.Equal(t, 2, recv(t, active))
}

func TestBroadcast_ClosedSourceClosesListeners(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("test", source)
	ch := b.Subscribe()
	close(source)

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}
