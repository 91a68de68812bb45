package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// CycleError reports a dependency cycle found by TopoSort.
type CycleError struct {
	// Node is the name that was reached again while still in progress.
	Node string
	// Path runs from Node through its dependents back to Node.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency found in definition `%s`: %s", e.Node, strings.Join(e.Path, " -> "))
}

type color uint8

const (
	white color = iota // unvisited
	grey               // in progress
	black              // done
)

// TopoSort orders the keys of graph so that every name comes after the
// names it depends on. graph maps a name to the names it reads.
//
// The algorithm:
//  1. Reverse the edges: d -> n for every n that reads d
//  2. Depth-first search over dependents with three-colour marking, visiting
//     nodes and their dependents in lexicographic order
//  3. Reverse the postorder, producers first
//
// Dependencies that are not keys of graph (inputs, args, registers in the
// combinational graph, helpers) are leaves: they are visited so that their
// dependents are reached, but are not part of the returned order.
//
// Reaching a node that is still in progress means a cycle; it is returned as
// a *CycleError naming that node. The result is deterministic for a given
// graph.
func TopoSort(graph map[string][]string) ([]string, error) {
	dependents := make(map[string][]string)
	nodeSet := make(map[string]struct{})
	for n, deps := range graph {
		nodeSet[n] = struct{}{}
		for _, d := range deps {
			nodeSet[d] = struct{}{}
			dependents[d] = append(dependents[d], n)
		}
	}
	for _, ds := range dependents {
		sort.Strings(ds)
	}

	nodes := make([]string, 0, len(nodeSet))
	for n := range nodeSet {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	var (
		marks     = make(map[string]color, len(nodes))
		stack     []string
		postorder = make([]string, 0, len(nodes))
	)

	var visit func(n string) *CycleError
	visit = func(n string) *CycleError {
		switch marks[n] {
		case black:
			return nil
		case grey:
			return &CycleError{Node: n, Path: cyclePath(stack, n)}
		}

		marks[n] = grey
		stack = append(stack, n)
		for _, m := range dependents[n] {
			if err := visit(m); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		marks[n] = black
		postorder = append(postorder, n)
		return nil
	}

	for _, n := range nodes {
		if err := visit(n); err != nil {
			return nil, err
		}
	}

	order := make([]string, 0, len(graph))
	for i := len(postorder) - 1; i >= 0; i-- {
		if _, ok := graph[postorder[i]]; ok {
			order = append(order, postorder[i])
		}
	}
	return order, nil
}

// cyclePath extracts the cycle from the DFS stack: the suffix starting at
// node, closed by node again.
func cyclePath(stack []string, node string) []string {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == node {
			path := append([]string{}, stack[i:]...)
			return append(path, node)
		}
	}
	return []string{node, node}
}
