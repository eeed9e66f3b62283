package bridge

import (
	"strconv"
	"sync/atomic"
)

// Inventory is the domain.Inventory view of the polled host inventory
type Inventory struct {
	host       *Host
	includeAux bool

	cachedItem atomic.Uint32
	cachedSet  atomic.Bool
}

// NewInventory creates an inventory adapter. includeAux makes the cached slot
// count auxiliary storage too, matching what full counts are asked for.
func NewInventory(host *Host, includeAux bool) *Inventory {
	return &Inventory{host: host, includeAux: includeAux}
}

func (i *Inventory) GetCount(itemID uint32, includeAuxiliaryStorage bool) int {
	state, _ := i.host.current()
	if state == nil {
		return 0
	}
	key := strconv.FormatUint(uint64(itemID), 10)
	count := state.Inventory.Counts[key]
	if includeAuxiliaryStorage {
		count += state.Inventory.Auxiliary[key]
	}
	return count
}

// InitializeFastPath points the cached slot at itemID. It fails while the host
// state is stale, since the slot would be unusable anyway.
func (i *Inventory) InitializeFastPath(itemID uint32) bool {
	i.cachedItem.Store(itemID)
	i.cachedSet.Store(true)
	_, fresh := i.host.current()
	return fresh
}

// CachedCount reports ok=false when no slot is prepared or the poll went stale
func (i *Inventory) CachedCount() (int, bool) {
	if !i.cachedSet.Load() {
		return 0, false
	}
	if _, fresh := i.host.current(); !fresh {
		return 0, false
	}
	return i.GetCount(i.cachedItem.Load(), i.includeAux), true
}

func (i *Inventory) OnChanged(handler func()) func() {
	return i.host.subscribeChanged(handler)
}
