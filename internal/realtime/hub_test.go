package realtime

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReceiver struct {
	userID    int64
	delivered atomic.Int64
	refuse    bool
}

func (f *fakeReceiver) UserID() int64 { return f.userID }

func (f *fakeReceiver) Deliver(event any) bool {
	if f.refuse {
		return false
	}
	f.delivered.Add(1)
	return true
}

func TestPublishReachesEveryLiveConnectionOnce(t *testing.T) {
	hub := NewHub()
	first := &fakeReceiver{userID: 42}
	second := &fakeReceiver{userID: 42}
	hub.Register(first)
	hub.Register(second)

	delivered := hub.Publish(42, "event")
	assert.Equal(t, 2, delivered)
	assert.Equal(t, int64(1), first.delivered.Load())
	assert.Equal(t, int64(1), second.delivered.Load())
}

func TestPublishToOfflineUserDeliversNothing(t *testing.T) {
	hub := NewHub()
	assert.Equal(t, 0, hub.Publish(42, "event"))
	assert.False(t, hub.IsOnline(42))
}

func TestPublishSkipsOtherUsers(t *testing.T) {
	hub := NewHub()
	mine := &fakeReceiver{userID: 42}
	other := &fakeReceiver{userID: 43}
	hub.Register(mine)
	hub.Register(other)

	hub.Publish(42, "event")
	assert.Equal(t, int64(1), mine.delivered.Load())
	assert.Equal(t, int64(0), other.delivered.Load())
}

func TestUnregisterLastConnectionRemovesUser(t *testing.T) {
	hub := NewHub()
	first := &fakeReceiver{userID: 42}
	second := &fakeReceiver{userID: 42}
	hub.Register(first)
	hub.Register(second)
	require.True(t, hub.IsOnline(42))

	hub.Unregister(first)
	assert.True(t, hub.IsOnline(42))

	hub.Unregister(second)
	assert.False(t, hub.IsOnline(42))
	assert.Equal(t, 0, hub.Publish(42, "event"))
}

func TestUnregisterUnknownReceiverIsNoOp(t *testing.T) {
	hub := NewHub()
	hub.Unregister(&fakeReceiver{userID: 42})
	assert.False(t, hub.IsOnline(42))
}

func TestRefusedDeliveryOnlyAffectsThatConnection(t *testing.T) {
	hub := NewHub()
	healthy := &fakeReceiver{userID: 42}
	stuck := &fakeReceiver{userID: 42, refuse: true}
	hub.Register(healthy)
	hub.Register(stuck)

	delivered := hub.Publish(42, "event")
	assert.Equal(t, 1, delivered)
	assert.Equal(t, int64(1), healthy.delivered.Load())
}

func TestConcurrentChurnAndPublish(t *testing.T) {
	hub := NewHub()

	const users = 32
	const rounds = 200

	var wg sync.WaitGroup
	for u := int64(0); u < users; u++ {
		wg.Add(2)
		go func(userID int64) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				r := &fakeReceiver{userID: userID}
				hub.Register(r)
				hub.Publish(userID, i)
				hub.Unregister(r)
			}
		}(u)
		go func(userID int64) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				hub.Publish(userID, i)
				hub.IsOnline(userID)
			}
		}(u)
	}
	wg.Wait()

	for u := int64(0); u < users; u++ {
		assert.False(t, hub.IsOnline(u), "user %d should have no sessions left", u)
	}
}
