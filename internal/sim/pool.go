package sim

import (
	"sync"

	"github.com/san-kum/pollinet/internal/dynamo"
)

// StatePool recycles snapshot buffers between steady-state runs. Buffers are
// pooled per state shape.
type StatePool struct {
	mu    sync.Mutex
	pools map[[3]int]*sync.Pool
}

func NewStatePool() *StatePool {
	return &StatePool{pools: make(map[[3]int]*sync.Pool)}
}

func shapeOf(x dynamo.State) [3]int {
	return [3]int{x.Plants(), x.Insects(), x.Patches()}
}

func (p *StatePool) poolFor(shape [3]int) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool, ok := p.pools[shape]
	if !ok {
		pool = &sync.Pool{
			New: func() interface{} {
				s, _ := dynamo.NewState(shape[0], shape[1], shape[2])
				return &s
			},
		}
		p.pools[shape] = pool
	}
	return pool
}

// GetAndCopy returns a pooled state holding a copy of src.
func (p *StatePool) GetAndCopy(src dynamo.State) *dynamo.State {
	dst := p.poolFor(shapeOf(src)).Get().(*dynamo.State)
	copy(dst.Vec(), src.Vec())
	return dst
}

func (p *StatePool) Put(s *dynamo.State) {
	p.poolFor(shapeOf(*s)).Put(s)
}
