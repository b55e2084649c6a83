package chunk

// Pool holds destroyed tiles by width so same-size tiles can be reused
// instead of reallocated.
type Pool struct {
	free map[int64][]Tile
	size int
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{free: make(map[int64][]Tile)}
}

// Put stores a destroyed tile for later reuse.
func (p *Pool) Put(t Tile) {
	w := quantize(t.Width())
	p.free[w] = append(p.free[w], t)
	p.size++
}

// Take pops a tile of the given width, if any.
func (p *Pool) Take(width float64) (Tile, bool) {
	w := quantize(width)
	bucket := p.free[w]
	if len(bucket) == 0 {
		return nil, false
	}
	t := bucket[len(bucket)-1]
	bucket[len(bucket)-1] = nil
	p.free[w] = bucket[:len(bucket)-1]
	p.size--
	return t, true
}

// Len returns the number of pooled tiles across all widths.
func (p *Pool) Len() int {
	return p.size
}

// Drain empties the pool and returns its tiles.
func (p *Pool) Drain() []Tile {
	out := make([]Tile, 0, p.size)
	for w, bucket := range p.free {
		out = append(out, bucket...)
		delete(p.free, w)
	}
	p.size = 0
	return out
}
