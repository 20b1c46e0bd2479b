package cache

// Tx is a write view of the store held under its lock. It is only valid
// inside the Transact callback.
type Tx struct {
	s       *Store
	touched map[Key]struct{}
}

// Transact runs fn with exclusive access to the store. Subscribers are
// notified of every touched key after fn returns and the lock is released,
// so readers never observe a partial write.
func (s *Store) Transact(fn func(tx *Tx)) {
	tx := &Tx{s: s, touched: make(map[Key]struct{})}
	s.mu.Lock()
	func() {
		defer s.mu.Unlock()
		fn(tx)
	}()
	for k := range tx.touched {
		s.notify(k)
	}
}

// Get returns the current entry for key.
func (tx *Tx) Get(key Key) Entry {
	if rec, ok := tx.s.records[key]; ok {
		return rec.entry
	}
	return Entry{Key: key}
}

// Data returns the entry's data when the key holds a result.
func (tx *Tx) Data(key Key) (any, bool) {
	rec, ok := tx.s.records[key]
	if !ok || !rec.entry.HasData() {
		return nil, false
	}
	return rec.entry.Data, true
}

// Set replaces the data for key, clears any error and supersedes any
// in-flight read.
func (tx *Tx) Set(key Key, data any) {
	rec := tx.s.recordLocked(key)
	rec.gen++
	rec.entry.Data = data
	rec.entry.Err = nil
	rec.entry.Stale = false
	rec.entry.IsFetching = false
	rec.entry.IsLoading = false
	rec.entry.UpdatedAt = tx.s.now()
	tx.touched[key] = struct{}{}
}

// Update applies fn to the data held for key. Keys without data are left
// alone and Update reports false.
func (tx *Tx) Update(key Key, fn func(data any) any) bool {
	data, ok := tx.Data(key)
	if !ok {
		return false
	}
	tx.Set(key, fn(data))
	return true
}

// Invalidate marks key stale.
func (tx *Tx) Invalidate(key Key) {
	if rec, ok := tx.s.records[key]; ok && !rec.entry.Stale {
		rec.entry.Stale = true
		tx.touched[key] = struct{}{}
	}
}

// Keys returns every cached key for which match returns true.
func (tx *Tx) Keys(match func(Key) bool) []Key {
	var keys []Key
	for k := range tx.s.records {
		if match == nil || match(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

type snapshotItem struct {
	key     Key
	existed bool
	entry   Entry
}

// Snapshot is the exact prior state of a set of keys.
type Snapshot struct {
	items []snapshotItem
}

// Keys lists the captured keys in capture order.
func (sn Snapshot) Keys() []Key {
	keys := make([]Key, len(sn.items))
	for i, it := range sn.items {
		keys[i] = it.key
	}
	return keys
}

// Snapshot captures the current entries for keys. Duplicates are captured once.
func (tx *Tx) Snapshot(keys ...Key) Snapshot {
	seen := make(map[Key]struct{}, len(keys))
	var sn Snapshot
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rec, ok := tx.s.records[k]
		item := snapshotItem{key: k, existed: ok}
		if ok {
			item.entry = rec.entry
		}
		sn.items = append(sn.items, item)
	}
	return sn
}

// Restore puts every captured key back exactly as it was. Keys that did not
// exist are removed. Any in-flight read for them is superseded.
func (tx *Tx) Restore(sn Snapshot) {
	for _, it := range sn.items {
		rec, ok := tx.s.records[it.key]
		if !it.existed {
			if ok {
				rec.gen++
				delete(tx.s.records, it.key)
				tx.touched[it.key] = struct{}{}
			}
			continue
		}
		if !ok {
			rec = &record{}
			tx.s.records[it.key] = rec
		}
		rec.gen++
		rec.entry = it.entry
		// The restored entry may have been mid-fetch; that read is now superseded.
		rec.entry.IsFetching = false
		rec.entry.IsLoading = false
		tx.touched[it.key] = struct{}{}
	}
}

// CancelInFlight supersedes any read in flight for key.
func (tx *Tx) CancelInFlight(key Key) {
	rec, ok := tx.s.records[key]
	if !ok {
		return
	}
	rec.gen++
	if rec.entry.IsFetching {
		rec.entry.IsFetching = false
		rec.entry.IsLoading = false
		tx.touched[key] = struct{}{}
	}
}

// Version identifies the current write of key. It changes on every Set,
// Restore and cancellation, so a caller can tell whether anyone else wrote
// the key since it last looked. Missing keys report 0.
func (tx *Tx) Version(key Key) uint64 {
	if rec, ok := tx.s.records[key]; ok {
		return rec.gen
	}
	return 0
}

// RestoreWhere restores the captured keys for which keep returns true,
// in capture order.
func (tx *Tx) RestoreWhere(sn Snapshot, keep func(Key) bool) {
	var sub Snapshot
	for _, it := range sn.items {
		if keep(it.key) {
			sub.items = append(sub.items, it)
		}
	}
	tx.Restore(sub)
}
