package cell

type observer[V any] struct {
	id uint64
	fn func(V)
}

// Subscribe registers fn to be called with the new value after every
// successful write, in registration order, before the write returns.
// fn may call Get but must not write to the same cell.
// The returned function removes the subscription.
func (c *Cell[V]) Subscribe(fn func(V)) (cancel func()) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.nextID++
	id := c.nextID
	c.observers = append(c.observers, observer[V]{id: id, fn: fn})
	return func() { c.unsubscribe(id) }
}

func (c *Cell[V]) unsubscribe(id uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for i, o := range c.observers {
		if o.id == id {
			c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
			return
		}
	}
}
