// Package queue implements the per-service durable auxiliary queue of spec
// §4.5: a list of AuxiliaryItems surviving process restarts between a
// successful provider purchase and its billing-DB commit.
package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"github.com/mextic/rechargefleet/internal/domain"
)

// AuxiliaryQueue is a single service's durable list of AuxiliaryItems,
// persisted as one JSON file at <dataDir>/<service>_auxiliary_queue.json
// (spec §6). Callers must hold the service's distributed lock for the
// duration of a cycle — the queue assumes single-writer access, matching
// spec §4.5's "readers of the queue must be the sole writers during a
// cycle".
type AuxiliaryQueue struct {
	mu   sync.Mutex
	path string
}

// New returns the AuxiliaryQueue for service under dataDir.
func New(dataDir, service string) *AuxiliaryQueue {
	return &AuxiliaryQueue{path: filepath.Join(dataDir, service+"_auxiliary_queue.json")}
}

// Append adds item to the queue, assigning it an ID if it doesn't already
// have one, and persists the queue atomically.
func (q *AuxiliaryQueue) Append(item domain.AuxiliaryItem) (domain.AuxiliaryItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	items, err := q.readLocked()
	if err != nil {
		return domain.AuxiliaryItem{}, err
	}
	items = append(items, item)
	if err := q.writeLocked(items); err != nil {
		return domain.AuxiliaryItem{}, err
	}
	return item, nil
}

// List returns a copy of every item currently queued.
func (q *AuxiliaryQueue) List() ([]domain.AuxiliaryItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.readLocked()
}

// RemoveByPredicate deletes every item for which keep returns false,
// persisting the result atomically, and returns the removed items.
func (q *AuxiliaryQueue) RemoveByPredicate(keep func(domain.AuxiliaryItem) bool) ([]domain.AuxiliaryItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.readLocked()
	if err != nil {
		return nil, err
	}

	var kept, removed []domain.AuxiliaryItem
	for _, it := range items {
		if keep(it) {
			kept = append(kept, it)
		} else {
			removed = append(removed, it)
		}
	}
	if err := q.writeLocked(kept); err != nil {
		return nil, err
	}
	return removed, nil
}

// UpdateByID applies mutate to the item with the given ID and persists the
// result atomically. It is a no-op (returning no error) if no item with
// that ID is queued — recovery may race a concurrent removal.
func (q *AuxiliaryQueue) UpdateByID(id string, mutate func(*domain.AuxiliaryItem)) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.readLocked()
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == id {
			mutate(&items[i])
			break
		}
	}
	return q.writeLocked(items)
}

// SnapshotForCrashMarker returns the current queue contents for embedding in
// a crash marker file (spec §4.5/§4.6) without mutating the queue.
func (q *AuxiliaryQueue) SnapshotForCrashMarker() ([]domain.AuxiliaryItem, error) {
	return q.List()
}

func (q *AuxiliaryQueue) readLocked() ([]domain.AuxiliaryItem, error) {
	data, err := os.ReadFile(q.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading auxiliary queue %s: %w", q.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var items []domain.AuxiliaryItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding auxiliary queue %s: %w", q.path, err)
	}
	return items, nil
}

// writeLocked persists items via write-then-rename so a crash mid-write
// never leaves a torn file behind — the same renameio.NewPendingFile /
// CloseAtomicallyReplace idiom the teacher's M3U/XMLTV writers use.
func (q *AuxiliaryQueue) writeLocked(items []domain.AuxiliaryItem) error {
	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		return fmt.Errorf("creating queue directory: %w", err)
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding auxiliary queue: %w", err)
	}

	pending, err := renameio.NewPendingFile(q.path)
	if err != nil {
		return fmt.Errorf("creating pending queue file: %w", err)
	}
	defer pending.Cleanup()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("writing pending queue file: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("committing queue file: %w", err)
	}
	return nil
}
