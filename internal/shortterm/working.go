package shortterm

import "sort"

// Working memory entries expire after the buffer's WorkingTTL. Expired keys
// are purged lazily on every read.

// SetWorking stores value under key, resetting its expiry.
func (b *Buffer) SetWorking(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.working[key] = workingEntry{value: value, expires: b.now().Add(b.ttl)}
}

// GetWorking returns the live value for key.
func (b *Buffer) GetWorking(key string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.purgeWorkingLocked()
	e, ok := b.working[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Working returns a copy of all live working-memory entries.
func (b *Buffer) Working() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.purgeWorkingLocked()
	out := make(map[string]any, len(b.working))
	for k, e := range b.working {
		out[k] = e.value
	}
	return out
}

// WorkingKeys returns the live keys, sorted.
func (b *Buffer) WorkingKeys() []string {
	m := b.Working()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DeleteWorking removes key.
func (b *Buffer) DeleteWorking(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.working, key)
}

func (b *Buffer) purgeWorkingLocked() {
	now := b.now()
	for k, e := range b.working {
		if !now.Before(e.expires) {
			delete(b.working, k)
		}
	}
}

