package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/cimworks/mockwbem/modelfile"
	"github.com/cimworks/mockwbem/repo"
)

// ClassesCmd prints the class hierarchy of a loaded model file.
var ClassesCmd = &cobra.Command{
	Use:   "classes <model-file> [namespace]",
	Short: "Show the class hierarchy of a loaded model",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		namespace := cfg.Repository.DefaultNamespace
		if len(args) == 2 {
			namespace = args[1]
		}

		r := newRepository()
		if err := modelfile.LoadFile(r, path); err != nil {
			return err
		}

		roots, err := r.EnumerateClassNames(namespace, "", false)
		if err != nil {
			return err
		}
		tree := pterm.TreeNode{Text: namespace}
		for _, root := range roots {
			node, err := classNode(r, namespace, root)
			if err != nil {
				return err
			}
			tree.Children = append(tree.Children, node)
		}
		return pterm.DefaultTree.WithRoot(tree).Render()
	},
}

func classNode(r *repo.Repository, namespace, classname string) (pterm.TreeNode, error) {
	c, err := r.GetClass(namespace, classname, repo.GetOptions{IncludeQualifiers: true})
	if err != nil {
		return pterm.TreeNode{}, err
	}
	label := c.Name
	if c.IsAssociation() {
		label += " [association]"
	}
	if c.IsAbstract() {
		label += " [abstract]"
	}
	node := pterm.TreeNode{Text: label}

	children, err := r.EnumerateClassNames(namespace, classname, false)
	if err != nil {
		return pterm.TreeNode{}, err
	}
	for _, child := range children {
		sub, err := classNode(r, namespace, child)
		if err != nil {
			return pterm.TreeNode{}, err
		}
		node.Children = append(node.Children, sub)
	}
	return node, nil
}
