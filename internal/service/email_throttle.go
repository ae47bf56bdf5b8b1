package service

import (
	"fmt"
	"sync"
	"time"
)

// EmailThrottle bounds outbound mail per recipient with an in-memory
// per-recipient interval plus an hourly bucket count. State is process-local
// and resets on restart.
type EmailThrottle struct {
	mu          sync.Mutex
	minInterval time.Duration
	hourlyMax   int
	lastSent    map[string]time.Time
	hourlyCount map[string]int
	now         func() time.Time
}

func NewEmailThrottle(minInterval time.Duration, hourlyMax int) *EmailThrottle {
	return &EmailThrottle{
		minInterval: minInterval,
		hourlyMax:   hourlyMax,
		lastSent:    map[string]time.Time{},
		hourlyCount: map[string]int{},
		now:         time.Now,
	}
}

// Allow records the send when permitted and returns an error naming the wait
// otherwise.
func (t *EmailThrottle) Allow(recipient string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := normalizeKey(recipient)
	now := t.now().UTC()

	if last, ok := t.lastSent[key]; ok {
		if since := now.Sub(last); since < t.minInterval {
			return fmt.Errorf("please wait %.0f seconds before requesting another email", (t.minInterval - since).Seconds())
		}
	}

	bucket := t.bucketKey(key, now)
	if t.hourlyCount[bucket] >= t.hourlyMax {
		return fmt.Errorf("too many emails sent to this address, please try again later")
	}

	t.lastSent[key] = now
	t.hourlyCount[bucket]++
	return nil
}

// CleanupOldEntries drops per-recipient state older than two hours. Meant to
// run periodically from the sweeper.
func (t *EmailThrottle) CleanupOldEntries() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now().UTC()
	removed := 0
	for key, last := range t.lastSent {
		if now.Sub(last) > 2*time.Hour {
			delete(t.lastSent, key)
			removed++
		}
	}
	// Bucket keys end with the hour stamp; anything outside the current or
	// previous hour is stale.
	for bucket := range t.hourlyCount {
		if !hasHourSuffix(bucket, now) && !hasHourSuffix(bucket, now.Add(-time.Hour)) {
			delete(t.hourlyCount, bucket)
			removed++
		}
	}
	return removed
}

func (t *EmailThrottle) bucketKey(recipient string, now time.Time) string {
	return fmt.Sprintf("%s_%s", recipient, now.Format("2006010215"))
}

func hasHourSuffix(bucket string, at time.Time) bool {
	stamp := at.UTC().Format("2006010215")
	return len(bucket) >= len(stamp) && bucket[len(bucket)-len(stamp):] == stamp
}
