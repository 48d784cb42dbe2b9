package category

import (
	"sort"
	"strings"

	"github.com/epi-platform/admin-api/internal/model"
)

// MaxDepth caps how deep the tree is expanded, independently of cycle checks.
const MaxDepth = 10

type TreeNode struct {
	Category  model.Category `json:"category"`
	Depth     int            `json:"depth"`
	Children  []*TreeNode    `json:"children,omitempty"`
	Circular  bool           `json:"circular,omitempty"`
	Truncated bool           `json:"truncated,omitempty"`
}

type treeBuilder struct {
	byID     map[string]model.Category
	children map[string][]model.Category
	reached  map[string]bool
	maxDepth int
}

// BuildTree nests a flat category list under its roots. Categories without a
// parent, or whose parent is missing, are roots. Parent chains that loop back
// on themselves are entered once at a member of the loop, and the revisit is
// returned as a Circular node.
func BuildTree(categories []model.Category) []*TreeNode {
	return buildTree(categories, MaxDepth)
}

func buildTree(categories []model.Category, maxDepth int) []*TreeNode {
	b := &treeBuilder{
		byID:     make(map[string]model.Category, len(categories)),
		children: make(map[string][]model.Category),
		reached:  make(map[string]bool, len(categories)),
		maxDepth: maxDepth,
	}

	ordered := make([]model.Category, len(categories))
	copy(ordered, categories)
	sortCategories(ordered)

	for _, c := range ordered {
		if _, dup := b.byID[c.ID]; dup {
			continue
		}
		b.byID[c.ID] = c
	}

	var roots []model.Category
	seen := make(map[string]bool, len(ordered))
	for _, c := range ordered {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true

		parent := c.ParentID()
		if _, ok := b.byID[parent]; parent == "" || !ok {
			roots = append(roots, c)
			continue
		}
		b.children[parent] = append(b.children[parent], c)
	}

	var tree []*TreeNode
	for _, r := range roots {
		tree = append(tree, b.build(r, 0, map[string]bool{}))
	}

	// whatever is still unreached hangs off a parent loop
	for _, c := range ordered {
		if b.reached[c.ID] {
			continue
		}
		entry := b.loopEntry(c)
		tree = append(tree, b.build(entry, 0, map[string]bool{}))
	}

	return tree
}

func (b *treeBuilder) build(c model.Category, depth int, branch map[string]bool) *TreeNode {
	node := &TreeNode{Category: c, Depth: depth}

	if branch[c.ID] {
		node.Circular = true
		return node
	}
	if depth >= b.maxDepth {
		node.Truncated = true
		b.markReached(c.ID)
		return node
	}

	b.reached[c.ID] = true
	branch[c.ID] = true
	for _, child := range b.children[c.ID] {
		node.Children = append(node.Children, b.build(child, depth+1, branch))
	}
	delete(branch, c.ID)

	return node
}

// markReached marks a hidden subtree so it is not mistaken for a loop.
func (b *treeBuilder) markReached(id string) {
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if b.reached[cur] {
			continue
		}
		b.reached[cur] = true
		for _, child := range b.children[cur] {
			stack = append(stack, child.ID)
		}
	}
}

// loopEntry follows parent pointers from c until one repeats. The repeated
// category sits on the loop.
func (b *treeBuilder) loopEntry(c model.Category) model.Category {
	visited := map[string]bool{}
	cur := c
	for !visited[cur.ID] {
		visited[cur.ID] = true
		parent, ok := b.byID[cur.ParentID()]
		if !ok {
			return cur
		}
		cur = parent
	}
	return cur
}

// WouldCycle reports whether moving id under parentID would make id its own
// ancestor.
func WouldCycle(categories []model.Category, id, parentID string) bool {
	if parentID == "" || id == "" {
		return false
	}
	if parentID == id {
		return true
	}

	byID := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	visited := map[string]bool{}
	cur := parentID
	for cur != "" && !visited[cur] {
		if cur == id {
			return true
		}
		visited[cur] = true
		c, ok := byID[cur]
		if !ok {
			return false
		}
		cur = c.ParentID()
	}
	return false
}

// Descendants returns the ids below id, guarding against loops.
func Descendants(categories []model.Category, id string) []string {
	children := make(map[string][]string)
	for _, c := range categories {
		if p := c.ParentID(); p != "" {
			children[p] = append(children[p], c.ID)
		}
	}

	var out []string
	visited := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range children[cur] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

func sortCategories(cs []model.Category) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].DisplayOrder != cs[j].DisplayOrder {
			return cs[i].DisplayOrder < cs[j].DisplayOrder
		}
		return strings.ToLower(cs[i].Name) < strings.ToLower(cs[j].Name)
	})
}
