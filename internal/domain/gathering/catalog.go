package gathering

import "sort"

// StaticCatalog is an immutable in-memory ItemCatalog
type StaticCatalog struct {
	items map[uint32]ItemInfo
}

// NewStaticCatalog indexes items by id; later duplicates win
func NewStaticCatalog(items []ItemInfo) *StaticCatalog {
	c := &StaticCatalog{items: make(map[uint32]ItemInfo, len(items))}
	for _, item := range items {
		c.items[item.ItemID] = item
	}
	return c
}

func (c *StaticCatalog) Lookup(itemID uint32) (ItemInfo, bool) {
	item, ok := c.items[itemID]
	return item, ok
}

// Len returns the number of known items
func (c *StaticCatalog) Len() int {
	return len(c.items)
}

// Items lists the catalog ordered by item id
func (c *StaticCatalog) Items() []ItemInfo {
	items := make([]ItemInfo, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })
	return items
}
