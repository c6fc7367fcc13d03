package stella

import "sync/atomic"

type SyncState uint32

const (
	NothingNew   SyncState = iota // Consumer has adopted the latest table
	UpdateValues                  // Channel values changed, a rebuild is owed
	NewValues                     // Rebuilt table is waiting to be adopted by the consumer
)

func (s SyncState) String() string {
	switch s {
	case NothingNew:
		return "nothing new"
	case UpdateValues:
		return "update values"
	case NewValues:
		return "new values"
	default:
		return "invalid sync state"
	}
}

const (
	syncStateMask = 0x3
	activeBit     = 0x4
)

// syncWord packs the sync state and the index of the table read by the consumer,
// so that adopting a table and resetting the state is a single CAS.
type syncWord struct {
	v atomic.Uint32
}

func (w *syncWord) load() (SyncState, int) {
	v := w.v.Load()
	return SyncState(v & syncStateMask), int(v&activeBit) >> 2
}

func pack(state SyncState, active int) uint32 {
	return uint32(state) | uint32(active)<<2
}

func (w *syncWord) setState(state SyncState) {
	for {
		old := w.v.Load()
		if w.v.CompareAndSwap(old, old&activeBit|uint32(state)) {
			return
		}
	}
}

// swapFrom sets the state to 'to' only if it is currently 'from'.
func (w *syncWord) swapFrom(from, to SyncState) bool {
	for {
		old := w.v.Load()
		if SyncState(old&syncStateMask) != from {
			return false
		}
		if w.v.CompareAndSwap(old, old&activeBit|uint32(to)) {
			return true
		}
	}
}

func (e *Engine) markUpdate() {
	e.sync.setState(UpdateValues)
}

// Sync returns the current sync state. Safe to call from any goroutine.
func (e *Engine) Sync() SyncState {
	state, _ := e.sync.load()
	return state
}

// calcTable returns the table that is not visible to the consumer.
// The consumer only flips tables in the NewValues state, which the rebuild never overlaps with.
func (e *Engine) calcTable() *Table {
	_, active := e.sync.load()
	return &e.tables[1-active]
}

// AdoptTable is called by the consumer at every cycle boundary. If a rebuilt table
// is pending, it becomes the active table and the sync state is reset to NothingNew.
// The returned table must be treated as read-only and is valid until the next call.
// Safe to call from a different goroutine than the rest of the engine.
func (e *Engine) AdoptTable() *Table {
	for {
		old := e.sync.v.Load()
		active := int(old&activeBit) >> 2
		if SyncState(old&syncStateMask) != NewValues {
			return &e.tables[active]
		}
		active = 1 - active
		if e.sync.v.CompareAndSwap(old, pack(NothingNew, active)) {
			return &e.tables[active]
		}
	}
}

// ActiveTable returns the table the consumer walks. Like the control surface, it
// must be called from the goroutine that runs Process.
func (e *Engine) ActiveTable() *Table {
	_, active := e.sync.load()
	return &e.tables[active]
}
