package block

import "fmt"

// Options carries configuration-time capabilities of a Store.
type Options struct {
	// Differentiated allocates a shadow mirror for every differentiable
	// primal array in every block. The capability is fixed at store
	// construction; there is no runtime toggle, so mirror presence is
	// uniform across the whole store.
	Differentiated bool
}

// Handle identifies a block in a Store. Handles are generation-checked:
// after Release, outstanding copies of the handle are rejected instead
// of resolving to whatever block reuses the slot.
type Handle struct {
	index int
	gen   uint32
}

type slot struct {
	block *Block
	gen   uint32
	binds int
	live  bool
}

// Store owns the full set of grid blocks in one arena and sizes every
// per-block array. It is the sole allocation and release path; views
// and kernels never hold raw references across store operations.
//
// A Store is confined to one execution context; the external scheduler
// serializes any cross-context access.
type Store struct {
	opts  Options
	slots []slot
	free  []int
	nLive int
}

// NewStore creates an empty store with the given capabilities.
func NewStore(opts Options) *Store {
	return &Store{opts: opts}
}

// Differentiated reports whether shadow mirrors exist store-wide.
func (s *Store) Differentiated() bool { return s.opts.Differentiated }

// Len returns the number of live blocks.
func (s *Store) Len() int { return s.nLive }

// Allocate constructs a block with the given extents, halo width, and
// level/instance counts, sizing every owned array (shadow mirrors
// included when the store is differentiated).
func (s *Store) Allocate(spec Spec) (Handle, error) {
	spec.normalize()
	if err := spec.validate(); err != nil {
		return Handle{}, fmt.Errorf("allocate block %v: %w", spec.Key, err)
	}

	blk := newBlock(spec, s.opts.Differentiated)

	var idx int
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.slots = append(s.slots, slot{})
		idx = len(s.slots) - 1
	}
	sl := &s.slots[idx]
	sl.gen++
	sl.block = blk
	sl.binds = 0
	sl.live = true
	s.nLive++
	return Handle{index: idx, gen: sl.gen}, nil
}

// Get resolves a handle to its block.
func (s *Store) Get(h Handle) (*Block, error) {
	sl, err := s.lookup(h)
	if err != nil {
		return nil, err
	}
	return sl.block, nil
}

// Resize reallocates every owned array of the block, at every multigrid
// level and time-spectral instance, to the new finest-level extents.
// Shadow mirrors resize in lockstep. No view may be active on the block
// across a resize.
func (s *Store) Resize(h Handle, ext Extent) error {
	sl, err := s.lookup(h)
	if err != nil {
		return err
	}
	if sl.binds > 0 {
		return fmt.Errorf("resize block %v: %w (%d active views)",
			sl.block.Spec.Key, ErrHandleInUse, sl.binds)
	}
	spec := sl.block.Spec
	spec.Extent = ext
	if err := spec.validate(); err != nil {
		return fmt.Errorf("resize block %v: %w", sl.block.Spec.Key, err)
	}
	sl.block.Spec = spec
	sl.block.allocStates(s.opts.Differentiated)
	return nil
}

// Release frees every array owned by the block, shadow mirrors
// included, and invalidates the handle. Fails while any view is bound.
func (s *Store) Release(h Handle) error {
	sl, err := s.lookup(h)
	if err != nil {
		return err
	}
	if sl.binds > 0 {
		return fmt.Errorf("release block %v: %w (%d active views)",
			sl.block.Spec.Key, ErrHandleInUse, sl.binds)
	}
	sl.block = nil
	sl.live = false
	s.free = append(s.free, h.index)
	s.nLive--
	return nil
}

// Bind marks the block as referenced by an active view and returns it.
// Only the view activation protocol calls Bind; kernels go through a
// View. Every successful Bind is paired with exactly one Unbind.
func (s *Store) Bind(h Handle) (*Block, error) {
	sl, err := s.lookup(h)
	if err != nil {
		return nil, err
	}
	sl.binds++
	return sl.block, nil
}

// Unbind drops one view reference from the block. Unbinding a released
// or never-bound handle is a no-op.
func (s *Store) Unbind(h Handle) {
	sl, err := s.lookup(h)
	if err != nil || sl.binds == 0 {
		return
	}
	sl.binds--
}

// Bound reports how many views are currently bound to the block.
func (s *Store) Bound(h Handle) int {
	sl, err := s.lookup(h)
	if err != nil {
		return 0
	}
	return sl.binds
}

func (s *Store) lookup(h Handle) (*slot, error) {
	if h.index < 0 || h.index >= len(s.slots) {
		return nil, fmt.Errorf("%w: handle index %d of %d slots",
			ErrSelectionNotFound, h.index, len(s.slots))
	}
	sl := &s.slots[h.index]
	if !sl.live || sl.gen != h.gen {
		return nil, fmt.Errorf("%w: handle generation %d, slot generation %d",
			ErrSelectionNotFound, h.gen, sl.gen)
	}
	return sl, nil
}
