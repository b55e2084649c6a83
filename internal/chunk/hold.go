package chunk

// Hold works out which part of a build/retire request has to wait so that
// the area under each key in missing keeps its current tiles. A retirement
// is held when it overlaps a missing key or a held build, and a build is
// held when it overlaps a held retirement. The returned sets hold indexes
// into build and retire.
func Hold(missing, build, retire []Key) (heldBuild, heldRetire map[int]bool) {
	heldBuild = make(map[int]bool)
	heldRetire = make(map[int]bool)

	pending := append([]Key(nil), missing...)
	for len(pending) > 0 {
		k := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		for i, r := range retire {
			if heldRetire[i] || !r.Overlaps(k) {
				continue
			}
			heldRetire[i] = true
			for j, b := range build {
				if !heldBuild[j] && b.Overlaps(r) {
					heldBuild[j] = true
					pending = append(pending, b)
				}
			}
		}
	}
	return heldBuild, heldRetire
}

func entryKeys(entries []*Entry) []Key {
	out := make([]Key, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}
