package pagetl

import "strings"

// DiffResult represents the difference between two scans of a page.
type DiffResult struct {
	// Added contains items whose content is new.
	Added []TranslatableItem

	// Removed contains items whose content no longer appears.
	Removed []TranslatableItem

	// Unchanged contains items present in both scans.
	Unchanged []TranslatableItem

	// Modified pairs a removed and an added item that sit at the same origin,
	// or share kind and context, and are therefore taken as an edit.
	Modified []ModifiedItem
}

// ModifiedItem represents an item whose content was edited.
type ModifiedItem struct {
	Old TranslatableItem
	New TranslatableItem
}

// Stats returns summary statistics for the diff.
func (d *DiffResult) Stats() DiffStats {
	return DiffStats{
		Added:     len(d.Added),
		Removed:   len(d.Removed),
		Unchanged: len(d.Unchanged),
		Modified:  len(d.Modified),
	}
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	Added     int
	Removed   int
	Unchanged int
	Modified  int
}

// HasChanges returns true if there are any differences.
func (d *DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Modified) > 0
}

// NeedsTranslation returns the items that need to be translated: new items
// and the new side of modified ones.
func (d *DiffResult) NeedsTranslation() []TranslatableItem {
	result := make([]TranslatableItem, 0, len(d.Added)+len(d.Modified))
	result = append(result, d.Added...)
	for _, m := range d.Modified {
		result = append(result, m.New)
	}
	return result
}

// DiffItems compares two scans by content and pairs up edits. Output keeps
// the scan order of its inputs; repeated content counts once.
func DiffItems(oldItems, newItems []TranslatableItem) *DiffResult {
	result := &DiffResult{}

	oldSeen := make(map[string]bool)
	newHashes := make(map[string]bool)
	for _, item := range newItems {
		newHashes[itemHash(item)] = true
	}

	for _, item := range oldItems {
		h := itemHash(item)
		if oldSeen[h] {
			continue
		}
		oldSeen[h] = true
		if newHashes[h] {
			result.Unchanged = append(result.Unchanged, item)
		} else {
			result.Removed = append(result.Removed, item)
		}
	}

	added := make(map[string]bool)
	for _, item := range newItems {
		h := itemHash(item)
		if oldSeen[h] || added[h] {
			continue
		}
		added[h] = true
		result.Added = append(result.Added, item)
	}

	pairEdits(result)
	return result
}

// pairEdits moves removed/added pairs that look like the same location into
// Modified. Same origin wins over same context.
func pairEdits(result *DiffResult) {
	if len(result.Added) == 0 || len(result.Removed) == 0 {
		return
	}

	addedMatched := make(map[int]bool)
	removedMatched := make(map[int]bool)

	match := func(same func(a, b TranslatableItem) bool) {
		for ri, removed := range result.Removed {
			if removedMatched[ri] {
				continue
			}
			for ai, added := range result.Added {
				if addedMatched[ai] || !same(removed, added) {
					continue
				}
				result.Modified = append(result.Modified, ModifiedItem{Old: removed, New: added})
				addedMatched[ai] = true
				removedMatched[ri] = true
				break
			}
		}
	}
	match(func(a, b TranslatableItem) bool {
		return a.Origin.Node != nil && a.Origin.key() == b.Origin.key()
	})
	match(func(a, b TranslatableItem) bool {
		ctx := itemContext(a)
		return ctx != "" && a.Kind == b.Kind && a.Depth == b.Depth && ctx == itemContext(b)
	})

	var added, removed []TranslatableItem
	for i, item := range result.Added {
		if !addedMatched[i] {
			added = append(added, item)
		}
	}
	for i, item := range result.Removed {
		if !removedMatched[i] {
			removed = append(removed, item)
		}
	}
	result.Added = added
	result.Removed = removed
}

func itemHash(item TranslatableItem) string {
	return HashText(strings.TrimSpace(item.Content))
}
