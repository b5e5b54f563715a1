package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"github.com/mextic/rechargefleet/internal/domain"
)

// CrashMarker is the per-service `<dataDir>/<service>_crash_recovery.json`
// file of spec §6: written before a cycle begins mutating external state
// and cleared once the cycle reaches a safe point, so a process restart can
// tell whether it died mid-cycle and needs to run recovery (spec §4.6,
// C6) before starting a fresh one.
type CrashMarker struct {
	path string
}

// CrashState is the marker's on-disk shape.
type CrashState struct {
	WasProcessing  bool                    `json:"wasProcessing"`
	ItemsInProcess []domain.AuxiliaryItem  `json:"itemsInProcess"`
	RecordedAt     time.Time               `json:"recordedAt"`
}

// NewCrashMarker returns the CrashMarker for service under dataDir.
func NewCrashMarker(dataDir, service string) *CrashMarker {
	return &CrashMarker{path: filepath.Join(dataDir, service+"_crash_recovery.json")}
}

// Set marks the service as mid-cycle, embedding a snapshot of the
// auxiliary queue's current contents so recovery has something to act on
// even if the queue file itself is later found corrupt.
func (m *CrashMarker) Set(snapshot []domain.AuxiliaryItem, now time.Time) error {
	state := CrashState{WasProcessing: true, ItemsInProcess: snapshot, RecordedAt: now}
	return m.write(state)
}

// Clear marks the service as idle — called once a cycle reaches a point
// where no further recovery would be needed if the process died right now.
func (m *CrashMarker) Clear() error {
	return m.write(CrashState{WasProcessing: false})
}

// Read returns the current marker state. A missing file reads as a clean
// (not-processing) state.
func (m *CrashMarker) Read() (CrashState, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return CrashState{}, nil
	}
	if err != nil {
		return CrashState{}, fmt.Errorf("reading crash marker %s: %w", m.path, err)
	}
	if len(data) == 0 {
		return CrashState{}, nil
	}
	var state CrashState
	if err := json.Unmarshal(data, &state); err != nil {
		return CrashState{}, fmt.Errorf("decoding crash marker %s: %w", m.path, err)
	}
	return state, nil
}

func (m *CrashMarker) write(state CrashState) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("creating crash marker directory: %w", err)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding crash marker: %w", err)
	}

	pending, err := renameio.NewPendingFile(m.path)
	if err != nil {
		return fmt.Errorf("creating pending crash marker file: %w", err)
	}
	defer pending.Cleanup()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("writing pending crash marker file: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("committing crash marker file: %w", err)
	}
	return nil
}
