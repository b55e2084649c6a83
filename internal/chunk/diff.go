package chunk

import (
	"sort"
)

// DiffResult partitions a previous tile set against a new target set.
type DiffResult struct {
	// Kept holds the previous entries whose keys are still targeted.
	Kept map[Key]*Entry
	// ToBuild holds target specs with no previous entry, ordered by key.
	ToBuild []Spec
	// ToRetire holds previous entries no longer targeted, ordered by key.
	ToRetire []*Entry
}

// Diff compares previous against target. It does not modify either map.
func Diff(previous map[Key]*Entry, target map[Key]Spec) DiffResult {
	res := DiffResult{Kept: make(map[Key]*Entry, len(target))}

	for k, e := range previous {
		if _, ok := target[k]; ok {
			res.Kept[k] = e
		} else {
			res.ToRetire = append(res.ToRetire, e)
		}
	}
	for k, s := range target {
		if _, ok := previous[k]; !ok {
			res.ToBuild = append(res.ToBuild, s)
		}
	}

	sort.Slice(res.ToBuild, func(i, j int) bool { return res.ToBuild[i].Key.Less(res.ToBuild[j].Key) })
	sort.Slice(res.ToRetire, func(i, j int) bool { return res.ToRetire[i].Key.Less(res.ToRetire[j].Key) })
	return res
}
