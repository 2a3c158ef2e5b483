package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arborhq/arbor/internal/ui"
)

var showRoot string

var showCmd = &cobra.Command{
	Use:     "show",
	GroupID: "tree",
	Short:   "Print the tree",
	Long: `Print the family tree as an indented listing.

With --root, print only the subtree under the given node (the "view root")
preceded by its breadcrumb path from the true root.

Example:
  arbor show
  arbor show --root gen2-ruth`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ed, st, err := openEditor(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		defer ed.Close()

		r := ui.NewRenderer()

		root := ed.Tree()
		if showRoot != "" {
			if path := ed.Path(showRoot); len(path) > 1 {
				fmt.Println(r.Breadcrumb(path[:len(path)-1]))
			}
			if root = ed.Find(showRoot); root == nil {
				return fmt.Errorf("no such node: %s", showRoot)
			}
		}

		fmt.Print(r.Render(root))
		return nil
	},
}

var pathCmd = &cobra.Command{
	Use:     "path <id>",
	GroupID: "tree",
	Short:   "Print the ancestor chain of a node",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ed, st, err := openEditor(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		defer ed.Close()

		path := ed.Path(args[0])
		if len(path) == 0 {
			return fmt.Errorf("no such node: %s", args[0])
		}
		fmt.Println(ui.NewRenderer().Breadcrumb(path))
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&showRoot, "root", "", "render only the subtree under this node")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(pathCmd)
}
