package sse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub()

	first, cleanupFirst := hub.Subscribe()
	second, cleanupSecond := hub.Subscribe()
	defer cleanupFirst()
	defer cleanupSecond()

	assert.Equal(t, 2, hub.SubscriberCount())

	event := Event{Status: StatusSyncing, Message: "syncing 3 offline punches", UnsyncedCount: 3, At: time.Now()}
	hub.Publish(event)

	got := <-first
	assert.Equal(t, StatusSyncing, got.Status)
	assert.Equal(t, 3, got.UnsyncedCount)

	got = <-second
	assert.Equal(t, StatusSyncing, got.Status)
}

func TestHubCleanupRemovesSubscriber(t *testing.T) {
	hub := NewHub()

	ch, cleanup := hub.Subscribe()
	cleanup()
	assert.Equal(t, 0, hub.SubscriberCount())

	_, open := <-ch
	assert.False(t, open, "cleanup closes the channel")

	// Idempotent.
	cleanup()
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	hub.Publish(Event{Status: StatusSuccess})
	assert.Equal(t, 0, hub.SubscriberCount())
}

func TestHubDropsEventsForFullSubscriber(t *testing.T) {
	hub := NewHub()

	ch, cleanup := hub.Subscribe()
	defer cleanup()

	for i := 0; i < 20; i++ {
		hub.Publish(Event{Status: StatusSyncing, UnsyncedCount: i})
	}

	require.LessOrEqual(t, len(ch), 10, "a slow subscriber never blocks the publisher")
}
