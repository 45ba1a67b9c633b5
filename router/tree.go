package router

import (
	"sync"
	"time"
)

// treeNode represents one token position on a path from the root. Children
// are keyed by the next token ID. The workers set is allocated only at
// block-boundary depths; elsewhere it stays nil.
type treeNode struct {
	children map[int]*treeNode
	workers  map[int]struct{}
	// lastAccess is stamped (unix nanos) only when eviction is enabled.
	// Traversal goes through ancestors, so an ancestor's stamp is always
	// >= every descendant's: a stale node implies a stale subtree.
	lastAccess int64
}

func newTreeNode() *treeNode {
	return &treeNode{children: make(map[int]*treeNode)}
}

// PrefixMatch is the result of a longest-prefix lookup. MatchedTokens is
// always a multiple of the block size; Workers is a snapshot copy, never a
// live view into the tree.
type PrefixMatch struct {
	MatchedTokens int
	MatchedBlocks int
	Workers       map[int]struct{}
}

// TreeStats reports tree size for external reporting. TotalCachedBlocks
// counts (block boundary, worker) marks, so a boundary cached by two workers
// contributes two.
type TreeStats struct {
	TotalNodes        int64 `json:"total_nodes"`
	TotalCachedBlocks int64 `json:"total_cached_blocks"`
}

// RadixTree tracks, per block-aligned prefix, which workers hold that prefix
// cached. One node per token position; insert and lookup are O(len(tokens))
// regardless of how many sequences are stored. Growth is unbounded unless a
// TTL is configured: the simulated cache never evicts by default, which is a
// documented property, not a leak.
//
// A single RWMutex guards the whole tree. Lookups take the read lock,
// inserts and eviction the write lock; interleaving them in any order is
// safe.
type RadixTree struct {
	mu           sync.RWMutex
	blockSize    int
	root         *treeNode
	nodeCount    int64 // nodes excluding the root
	cachedBlocks int64 // (boundary, worker) marks
	ttl          time.Duration
	now          func() time.Time // injectable for eviction tests
}

// NewRadixTree creates an empty tree with the given block size. ttl of zero
// disables eviction and last-access stamping entirely.
// Panics if blockSize is not positive; Config.Validate catches this earlier
// on every external construction path.
func NewRadixTree(blockSize int, ttl time.Duration) *RadixTree {
	if blockSize <= 0 {
		panic("NewRadixTree: blockSize must be > 0")
	}
	return &RadixTree{
		blockSize: blockSize,
		root:      newTreeNode(),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Insert walks (creating as needed) the node path for tokens and marks
// workerID cached at every complete block boundary along it. Returns the
// number of boundaries newly marked for this worker, which feeds the
// worker's cached_blocks counter.
//
// Marking every boundary up to len(tokens) is what keeps cache coverage
// monotone along a prefix: a worker present at depth d is present at every
// shallower boundary of the same path.
func (rt *RadixTree) Insert(tokens []int, workerID int) int {
	if len(tokens) == 0 {
		return 0
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	var stamp int64
	if rt.ttl > 0 {
		stamp = rt.now().UnixNano()
	}

	newBlocks := 0
	node := rt.root
	for i, tok := range tokens {
		child, ok := node.children[tok]
		if !ok {
			child = newTreeNode()
			node.children[tok] = child
			rt.nodeCount++
		}
		node = child
		if rt.ttl > 0 {
			node.lastAccess = stamp
		}
		depth := i + 1
		if depth%rt.blockSize == 0 {
			if node.workers == nil {
				node.workers = make(map[int]struct{})
			}
			if _, marked := node.workers[workerID]; !marked {
				node.workers[workerID] = struct{}{}
				rt.cachedBlocks++
				newBlocks++
			}
		}
	}
	return newBlocks
}

// FindLongestPrefix walks the tree along tokens and returns the deepest
// block boundary that was reached and has a non-empty cached-worker set.
// The matched length is truncated down to that boundary: partial trailing
// blocks never count. Returns a zero match (empty worker set) when no such
// boundary exists, which covers both empty input and a completely cold
// first block.
func (rt *RadixTree) FindLongestPrefix(tokens []int) PrefixMatch {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	match := PrefixMatch{Workers: map[int]struct{}{}}
	node := rt.root
	for i, tok := range tokens {
		child, ok := node.children[tok]
		if !ok {
			break
		}
		node = child
		depth := i + 1
		if depth%rt.blockSize == 0 && len(node.workers) > 0 {
			match.MatchedTokens = depth
			match.MatchedBlocks = depth / rt.blockSize
			// Snapshot of the deepest qualifying set so far. Monotone
			// coverage makes it a subset of every shallower set.
			workers := make(map[int]struct{}, len(node.workers))
			for id := range node.workers {
				workers[id] = struct{}{}
			}
			match.Workers = workers
		}
	}
	return match
}

// Stats returns current node and cached-block counts.
func (rt *RadixTree) Stats() TreeStats {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return TreeStats{TotalNodes: rt.nodeCount, TotalCachedBlocks: rt.cachedBlocks}
}

// EvictExpired prunes subtrees whose most recent access is older than the
// configured TTL. No-op when eviction is disabled. Returns the number of
// nodes removed. Because last-access stamps are monotone down the tree, a
// stale child can be cut together with its whole subtree.
//
// Eviction changes steady-state cache-hit statistics, which is why it is
// off by default.
func (rt *RadixTree) EvictExpired() int {
	if rt.ttl <= 0 {
		return 0
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	cutoff := rt.now().Add(-rt.ttl).UnixNano()
	removed := 0
	for tok, child := range rt.root.children {
		if child.lastAccess < cutoff {
			nodes, marks := subtreeCounts(child)
			delete(rt.root.children, tok)
			rt.nodeCount -= nodes
			rt.cachedBlocks -= marks
			removed += int(nodes)
		} else {
			removed += rt.evictExpiredFrom(child, cutoff)
		}
	}
	return removed
}

func (rt *RadixTree) evictExpiredFrom(node *treeNode, cutoff int64) int {
	removed := 0
	for tok, child := range node.children {
		if child.lastAccess < cutoff {
			nodes, marks := subtreeCounts(child)
			delete(node.children, tok)
			rt.nodeCount -= nodes
			rt.cachedBlocks -= marks
			removed += int(nodes)
		} else {
			removed += rt.evictExpiredFrom(child, cutoff)
		}
	}
	return removed
}

// subtreeCounts returns the node count and cached-block mark count of the
// subtree rooted at node (inclusive).
func subtreeCounts(node *treeNode) (nodes, marks int64) {
	nodes = 1
	marks = int64(len(node.workers))
	for _, child := range node.children {
		n, m := subtreeCounts(child)
		nodes += n
		marks += m
	}
	return nodes, marks
}
