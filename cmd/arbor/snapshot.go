package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arborhq/arbor/internal/tree"
)

var exportCmd = &cobra.Command{
	Use:     "export <file>",
	GroupID: "data",
	Short:   "Write the current tree to a snapshot file",
	Long: `Write the whole tree to a YAML snapshot file. Snapshots are the
hand-editable form of the tree; use 'arbor import' or 'arbor watch' to
bring an edited file back.

Example:
  arbor export family.yaml`,
	Args: cobra.ExactArgs(1),
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

		root := ed.Tree()
		if err := tree.WriteSnapshot(args[0], root); err != nil {
			return err
		}
		fmt.Printf("Exported %d nodes to %s\n", tree.Count(root), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file>",
	GroupID: "data",
	Short:   "Replace the stored tree with a snapshot",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := tree.ReadSnapshot(args[0])
		if err != nil {
			return err
		}

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

		if err := ed.Replace(cmd.Context(), adminToken, root); err != nil {
			return err
		}
		fmt.Printf("Imported %d nodes from %s\n", tree.Count(root), args[0])
		return nil
	},
}

var seedForce bool

var seedCmd = &cobra.Command{
	Use:     "seed",
	GroupID: "data",
	Short:   "Replace the stored tree with the sample tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !seedForce {
			return fmt.Errorf("seed overwrites the stored tree, pass --force to confirm")
		}

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

		sample := tree.Sample()
		if err := ed.Replace(cmd.Context(), adminToken, sample); err != nil {
			return err
		}
		fmt.Printf("Seeded sample tree (%d nodes)\n", tree.Count(sample))
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "confirm overwriting the stored tree")
	rootCmd.AddCommand(exportCmd, importCmd, seedCmd)
}
