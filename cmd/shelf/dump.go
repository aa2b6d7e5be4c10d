package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/alexhholmes/shelf"
	"github.com/alexhholmes/shelf/internal/catalog"
)

var (
	leafColor     = color.New(color.FgGreen)
	internalColor = color.New(color.FgYellow)
)

// renderTree draws the index one node per line. With titlesOnly, keys are
// shown without their ISBN suffix.
func renderTree(st *shelf.SerialTree, titlesOnly bool) string {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("B-tree t=%d", st.T))
	if st.Root != nil {
		addNode(tree, st.Root, titlesOnly)
	}
	return tree.String()
}

func addNode(parent treeprint.Tree, n *shelf.SerialNode, titlesOnly bool) {
	label := nodeLabel(n, titlesOnly)
	if n.Leaf {
		parent.AddNode(leafColor.Sprint(label))
		return
	}
	branch := parent.AddBranch(internalColor.Sprint(label))
	for _, child := range n.Children {
		addNode(branch, child, titlesOnly)
	}
}

func nodeLabel(n *shelf.SerialNode, titlesOnly bool) string {
	keys := n.Keys
	if titlesOnly {
		keys = make([]string, len(n.Keys))
		for i, k := range n.Keys {
			keys[i], _, _ = strings.Cut(k, catalog.KeySeparator)
		}
	}
	return "[" + strings.Join(keys, ", ") + "]"
}

func dump(w io.Writer, db *shelf.DB, asJSON, titlesOnly bool) error {
	st, err := db.Snapshot()
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(w, st)
	}
	_, err = io.WriteString(w, renderTree(st, titlesOnly))
	return err
}

func newDumpCmd(g *globalFlags) *cobra.Command {
	var asJSON, titlesOnly bool

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the index structure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			return dump(cmd.OutOrStdout(), s.db, asJSON, titlesOnly)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the serialized index as JSON")
	cmd.Flags().BoolVar(&titlesOnly, "titles", false, "Show titles without ISBNs")
	return cmd
}
