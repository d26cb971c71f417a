package atom

import (
	"fmt"
	"io"
	"strings"
)

// ContainerTypes lists the atom types whose payload is a plain sequence of
// child atoms. Dump only descends into these.
var ContainerTypes = map[string]bool{
	"moov": true,
	"trak": true,
	"edts": true,
	"mdia": true,
	"minf": true,
	"dinf": true,
	"stbl": true,
	"udta": true,
	"meta": true,
	"mvex": true,
	"moof": true,
	"traf": true,
}

// Dump writes one line per atom, indented by depth. Containers are expanded
// down to maxDepth levels below the top (0 = unlimited).
func (t *Tree) Dump(w io.Writer, maxDepth int) error {
	for _, id := range t.roots {
		if err := t.dump(w, id, 0, maxDepth); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) dump(w io.Writer, id NodeID, depth, maxDepth int) error {
	n := t.nodes[id]
	if _, err := fmt.Fprintf(w, "%s%s @%d for %d\n", strings.Repeat("  ", depth), n.Type, n.Offset, n.Length); err != nil {
		return err
	}
	if !ContainerTypes[n.Type] || (maxDepth > 0 && depth+1 >= maxDepth) {
		return nil
	}
	for _, child := range t.Children(id) {
		if err := t.dump(w, child, depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}
