// Package layout assigns blocks to execution contexts. The block layer
// requires that at most one worker touches a block per solver pass; the
// external scheduler satisfies that by building a Layout once and
// iterating each worker's block list with its own private view.
package layout

import (
	"fmt"
	"sort"
)

// Strategy defines how blocks are grouped onto workers.
type Strategy int

const (
	// Contiguous assigns consecutive block ids to each worker.
	Contiguous Strategy = iota
	// RoundRobin distributes block ids cyclically.
	RoundRobin
	// Greedy assigns blocks largest-first to the least-loaded worker.
	Greedy
)

// Builder constructs layouts from per-block cell counts.
type Builder struct {
	Workers  int
	Strategy Strategy
}

// Layout is a complete block-to-worker decomposition.
type Layout struct {
	// BlockToWorker maps block id to worker id.
	BlockToWorker []int

	// WorkerBlocks lists each worker's block ids in iteration order.
	WorkerBlocks [][]int

	// WorkerCells is the total cell count assigned to each worker.
	WorkerCells []int

	NumWorkers  int
	TotalCells  int
	NumBlocks   int
	MaxCellsOne int // largest per-worker load
}

// Build assigns every block to a worker. cells[b] is the interior cell
// count of block b at the level the sweep runs on.
func (bd *Builder) Build(cells []int) (*Layout, error) {
	if bd.Workers <= 0 {
		return nil, fmt.Errorf("invalid worker count %d", bd.Workers)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("no blocks to assign")
	}
	for b, c := range cells {
		if c <= 0 {
			return nil, fmt.Errorf("block %d has non-positive cell count %d", b, c)
		}
	}

	n := len(cells)
	l := &Layout{
		BlockToWorker: make([]int, n),
		WorkerBlocks:  make([][]int, bd.Workers),
		WorkerCells:   make([]int, bd.Workers),
		NumWorkers:    bd.Workers,
		NumBlocks:     n,
	}

	switch bd.Strategy {
	case Contiguous:
		per := (n + bd.Workers - 1) / bd.Workers
		for b := range cells {
			l.BlockToWorker[b] = b / per
		}
	case RoundRobin:
		for b := range cells {
			l.BlockToWorker[b] = b % bd.Workers
		}
	case Greedy:
		order := make([]int, n)
		for b := range order {
			order[b] = b
		}
		sort.Slice(order, func(i, j int) bool {
			if cells[order[i]] != cells[order[j]] {
				return cells[order[i]] > cells[order[j]]
			}
			return order[i] < order[j]
		})
		for _, b := range order {
			w := 0
			for cand := 1; cand < bd.Workers; cand++ {
				if l.WorkerCells[cand] < l.WorkerCells[w] {
					w = cand
				}
			}
			l.BlockToWorker[b] = w
			l.WorkerCells[w] += cells[b]
		}
	default:
		return nil, fmt.Errorf("unknown strategy %d", bd.Strategy)
	}

	// Rebuild per-worker bookkeeping uniformly for all strategies.
	for w := range l.WorkerCells {
		l.WorkerCells[w] = 0
	}
	for b, w := range l.BlockToWorker {
		l.WorkerBlocks[w] = append(l.WorkerBlocks[w], b)
		l.WorkerCells[w] += cells[b]
		l.TotalCells += cells[b]
	}
	for _, c := range l.WorkerCells {
		if c > l.MaxCellsOne {
			l.MaxCellsOne = c
		}
	}
	return l, nil
}

// Worker returns the worker owning a block, or -1 for an unknown id.
func (l *Layout) Worker(blockID int) int {
	if blockID < 0 || blockID >= len(l.BlockToWorker) {
		return -1
	}
	return l.BlockToWorker[blockID]
}

// Imbalance returns max worker load over mean worker load; 1.0 is a
// perfect balance.
func (l *Layout) Imbalance() float64 {
	if l.TotalCells == 0 {
		return 1.0
	}
	mean := float64(l.TotalCells) / float64(l.NumWorkers)
	return float64(l.MaxCellsOne) / mean
}

// Validate checks internal consistency of the layout.
func (l *Layout) Validate() error {
	counted := 0
	for w, blocks := range l.WorkerBlocks {
		for _, b := range blocks {
			if l.BlockToWorker[b] != w {
				return fmt.Errorf("block %d listed under worker %d but mapped to %d",
					b, w, l.BlockToWorker[b])
			}
			counted++
		}
	}
	if counted != l.NumBlocks {
		return fmt.Errorf("worker lists cover %d blocks, expected %d", counted, l.NumBlocks)
	}
	for b, w := range l.BlockToWorker {
		if w < 0 || w >= l.NumWorkers {
			return fmt.Errorf("block %d mapped to invalid worker %d", b, w)
		}
	}
	return nil
}
