package cell

// Binding is a read-write handle onto a cell that carries no state of its own.
// It lets a collaborator read and write a value without holding the cell.
type Binding[V any] struct {
	get func() V
	set func(V) error
}

// Binding returns a handle whose Get and Set delegate to the cell.
func (c *Cell[V]) Binding() Binding[V] {
	return Binding[V]{get: c.Get, set: c.Set}
}

// Get returns the cell's cached value.
func (b Binding[V]) Get() V {
	return b.get()
}

// Set writes through the cell.
func (b Binding[V]) Set(v V) error {
	return b.set(v)
}
