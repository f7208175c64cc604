// Package tasktree walks the parent_task_id hierarchy. The upstream API never
// enforced cycle prevention, so malformed data (a task that is its own
// ancestor) must terminate cleanly instead of recursing forever.
package tasktree

import (
	"github.com/ZhiruiFeng/zflow-gateway/internal/domain"
)

// maxDepth bounds every walk. Real task trees are a handful of levels deep;
// anything past this is malformed data.
const maxDepth = 64

// Index is a lookup structure over a task snapshot.
type Index struct {
	byID     map[string]domain.Task
	children map[string][]string
}

// NewIndex builds an Index from a flat task list. Later duplicates of an id
// win, matching how the client reconciled refetched state.
func NewIndex(tasks []domain.Task) *Index {
	idx := &Index{
		byID:     make(map[string]domain.Task, len(tasks)),
		children: make(map[string][]string),
	}
	for _, t := range tasks {
		idx.byID[t.ID] = t
	}
	for _, t := range idx.byID {
		if t.ParentTaskID != "" {
			idx.children[t.ParentTaskID] = append(idx.children[t.ParentTaskID], t.ID)
		}
	}
	return idx
}

// Get returns the task for id.
func (idx *Index) Get(id string) (domain.Task, bool) {
	t, ok := idx.byID[id]
	return t, ok
}

// Ancestors returns the chain of parents from id's direct parent upward,
// nearest first. The walk stops at a missing parent, a repeated id, or the
// depth bound, whichever comes first.
func (idx *Index) Ancestors(id string) []domain.Task {
	var out []domain.Task
	visited := map[string]bool{id: true}

	cur, ok := idx.byID[id]
	for depth := 0; ok && cur.ParentTaskID != "" && depth < maxDepth; depth++ {
		if visited[cur.ParentTaskID] {
			break
		}
		parent, found := idx.byID[cur.ParentTaskID]
		if !found {
			break
		}
		visited[parent.ID] = true
		out = append(out, parent)
		cur = parent
	}
	return out
}

// Descendants returns every task below id, breadth-first. Cycles and repeated
// ids are skipped; the walk is bounded by maxDepth levels.
func (idx *Index) Descendants(id string) []domain.Task {
	var out []domain.Task
	visited := map[string]bool{id: true}

	frontier := []string{id}
	for depth := 0; len(frontier) > 0 && depth < maxDepth; depth++ {
		var next []string
		for _, cur := range frontier {
			for _, childID := range idx.children[cur] {
				if visited[childID] {
					continue
				}
				visited[childID] = true
				if child, ok := idx.byID[childID]; ok {
					out = append(out, child)
					next = append(next, childID)
				}
			}
		}
		frontier = next
	}
	return out
}

// Roots returns tasks whose parent is absent from the snapshot (including
// tasks with no parent at all), in input-map iteration-independent order:
// callers that need ordering sort the result themselves.
func (idx *Index) Roots() []domain.Task {
	var out []domain.Task
	for _, t := range idx.byID {
		if t.ParentTaskID == "" {
			out = append(out, t)
			continue
		}
		if _, ok := idx.byID[t.ParentTaskID]; !ok {
			out = append(out, t)
		}
	}
	return out
}
