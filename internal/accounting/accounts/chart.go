package accounts

import (
	"sort"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// Chart is an arena of one organization's accounts indexed by id. Parent
// links are plain ids so the tree never owns its nodes.
type Chart struct {
	nodes    map[int64]Account
	children map[int64][]int64
}

// NewChart indexes the supplied accounts.
func NewChart(accounts []Account) *Chart {
	c := &Chart{
		nodes:    make(map[int64]Account, len(accounts)),
		children: make(map[int64][]int64),
	}
	for _, a := range accounts {
		c.nodes[a.ID] = a
	}
	for _, a := range accounts {
		if a.ParentID != nil {
			c.children[*a.ParentID] = append(c.children[*a.ParentID], a.ID)
		}
	}
	for id := range c.children {
		ids := c.children[id]
		sort.Slice(ids, func(i, j int) bool { return c.nodes[ids[i]].Code < c.nodes[ids[j]].Code })
	}
	return c
}

// Get returns the account stored under id.
func (c *Chart) Get(id int64) (Account, bool) {
	a, ok := c.nodes[id]
	return a, ok
}

// Len returns the number of accounts in the chart.
func (c *Chart) Len() int {
	return len(c.nodes)
}

// Ancestors walks parent links from id to the root, nearest first. A chain
// longer than MaxDepth or one that revisits a node is reported as invalid.
func (c *Chart) Ancestors(id int64) ([]int64, error) {
	node, ok := c.nodes[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	var out []int64
	seen := map[int64]struct{}{id: {}}
	for node.ParentID != nil {
		parentID := *node.ParentID
		if _, dup := seen[parentID]; dup {
			return nil, shared.ErrInvalidParent
		}
		parent, ok := c.nodes[parentID]
		if !ok {
			return nil, shared.ErrInvalidParent
		}
		out = append(out, parentID)
		if len(out) >= MaxDepth {
			return nil, shared.ErrInvalidParent
		}
		seen[parentID] = struct{}{}
		node = parent
	}
	return out, nil
}

// Depth returns the level of id, root accounts being level 1.
func (c *Chart) Depth(id int64) (int, error) {
	ancestors, err := c.Ancestors(id)
	if err != nil {
		return 0, err
	}
	return len(ancestors) + 1, nil
}

// IsDescendant reports whether id sits below ancestor.
func (c *Chart) IsDescendant(id, ancestor int64) bool {
	ancestors, err := c.Ancestors(id)
	if err != nil {
		return false
	}
	for _, a := range ancestors {
		if a == ancestor {
			return true
		}
	}
	return false
}

// Children returns the direct children of id ordered by code.
func (c *Chart) Children(id int64) []Account {
	ids := c.children[id]
	out := make([]Account, 0, len(ids))
	for _, child := range ids {
		out = append(out, c.nodes[child])
	}
	return out
}

// Subtree lists id and every descendant, breadth first.
func (c *Chart) Subtree(id int64) []int64 {
	queue := []int64{id}
	var out []int64
	for len(queue) > 0 {
		head := queue[0]
		queue = queue[1:]
		out = append(out, head)
		queue = append(queue, c.children[head]...)
	}
	return out
}

// Height returns the number of levels in the subtree rooted at id.
func (c *Chart) Height(id int64) int {
	height := 1
	for _, child := range c.children[id] {
		if h := c.Height(child) + 1; h > height {
			height = h
		}
	}
	return height
}

// Roots returns the top-level accounts ordered by code.
func (c *Chart) Roots() []Account {
	var out []Account
	for _, a := range c.nodes {
		if a.ParentID == nil {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
