package taskgraph

import (
	"fmt"
	"io"
	"strings"
)

// WriteDot writes a GraphViz representation of the graph's structure to w.
// It consumes only the read-only structural view (node names and edges) and
// must not run concurrently with an executor that is mutating node state.
func (g *Graph) WriteDot(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph taskgraph {"); err != nil {
		return err
	}
	for _, n := range g.nodes {
		label := n.name
		if label == "" {
			label = fmt.Sprintf("node_%d", n.index)
		}
		if _, err := fmt.Fprintf(w, "  n%d [label=%q];\n", n.index, label); err != nil {
			return err
		}
	}
	for _, n := range g.nodes {
		for _, s := range n.succs {
			if _, err := fmt.Fprintf(w, "  n%d -> n%d;\n", n.index, s.index); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// Dot returns the GraphViz representation as a string.
func (g *Graph) Dot() string {
	var sb strings.Builder
	// strings.Builder writes never fail.
	_ = g.WriteDot(&sb)
	return sb.String()
}
