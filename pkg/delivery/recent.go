package delivery

import (
	"fmt"
	"sync"
	"time"
)

// recentDMCache tracks which (chat, assignment) pairs were DMed recently
// so a reprocessed job never double-DMs the same tutor for the same
// posting (spec §4.9 "Skip chats recently DMed for the same
// assignment"). Same lazy-expiration TTL-map shape as pkg/rawstore's
// channel cache and pkg/enrichment's geocoding cache — its third
// application in this codebase.
type recentDMCache struct {
	mu     sync.Mutex
	sentAt map[string]time.Time
	ttl    time.Duration
}

func newRecentDMCache(ttl time.Duration) *recentDMCache {
	return &recentDMCache{sentAt: make(map[string]time.Time), ttl: ttl}
}

func dmKey(chatID int64, assignmentID string) string {
	return fmt.Sprintf("%d:%s", chatID, assignmentID)
}

// seen reports whether chatID was already DMed for assignmentID within
// the TTL window, without recording a new entry.
func (c *recentDMCache) seen(chatID int64, assignmentID string) bool {
	key := dmKey(chatID, assignmentID)
	c.mu.Lock()
	defer c.mu.Unlock()
	sentAt, ok := c.sentAt[key]
	if !ok {
		return false
	}
	if time.Since(sentAt) > c.ttl {
		delete(c.sentAt, key)
		return false
	}
	return true
}

// record marks chatID as DMed for assignmentID now.
func (c *recentDMCache) record(chatID int64, assignmentID string) {
	key := dmKey(chatID, assignmentID)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sentAt[key] = time.Now()
}
