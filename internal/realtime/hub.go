package realtime

import (
	"hash/fnv"
	"strconv"
	"sync"
)

const shardCount = 16

// Receiver is one live connection belonging to a user. Deliver reports
// whether the event was accepted; a refusal only affects that connection.
type Receiver interface {
	UserID() int64
	Deliver(event any) bool
}

type shard struct {
	mu    sync.RWMutex
	users map[int64]map[Receiver]struct{}
}

// Hub is the connection registry. Membership is sharded by user id so
// connection churn on one user never contends with fan-out to another.
type Hub struct {
	shards [shardCount]*shard
}

// NewHub builds an empty registry.
func NewHub() *Hub {
	h := &Hub{}
	for i := range h.shards {
		h.shards[i] = &shard{users: map[int64]map[Receiver]struct{}{}}
	}
	return h
}

func (h *Hub) shardFor(userID int64) *shard {
	hash := fnv.New32a()
	hash.Write([]byte(strconv.FormatInt(userID, 10)))
	return h.shards[hash.Sum32()%shardCount]
}

// Register adds a connection to the user's set.
func (h *Hub) Register(r Receiver) {
	s := h.shardFor(r.UserID())
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.users[r.UserID()]
	if !ok {
		set = map[Receiver]struct{}{}
		s.users[r.UserID()] = set
	}
	set[r] = struct{}{}
}

// Unregister removes a connection; the user entry disappears with its last
// connection.
func (h *Hub) Unregister(r Receiver) {
	s := h.shardFor(r.UserID())
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.users[r.UserID()]
	if !ok {
		return
	}
	delete(set, r)
	if len(set) == 0 {
		delete(s.users, r.UserID())
	}
}

// Publish fans the event out to every live connection of the user, at most
// once each, and returns the number of deliveries. An offline user yields
// zero without error.
func (h *Hub) Publish(userID int64, event any) int {
	s := h.shardFor(userID)

	s.mu.RLock()
	set := s.users[userID]
	receivers := make([]Receiver, 0, len(set))
	for r := range set {
		receivers = append(receivers, r)
	}
	s.mu.RUnlock()

	delivered := 0
	for _, r := range receivers {
		if r.Deliver(event) {
			delivered++
		}
	}
	return delivered
}

// IsOnline reports whether the user has at least one live connection.
func (h *Hub) IsOnline(userID int64) bool {
	s := h.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users[userID]) > 0
}
