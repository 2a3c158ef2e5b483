package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	personName string
	personBorn string
)

var personCmd = &cobra.Command{
	Use:     "person",
	GroupID: "tree",
	Short:   "Add, edit, and remove people",
}

var personAddCmd = &cobra.Command{
	Use:   "add <parent-id>",
	Short: "Add a child under an existing person",
	Long: `Add a new person as a child of the given parent.

When --name is omitted and stdin is a terminal, an interactive form
prompts for the details. Birth dates accept natural language ("june 4
1950") as well as YYYY-MM-DD.

Example:
  arbor person add gen2-ruth --name "Tessa Whitfield" --born 1981-03-12`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, born := personName, personBorn
		if name == "" {
			if err := promptPerson(&name, &born); err != nil {
				return err
			}
		}
		born, err := parseBorn(born)
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

		node, err := ed.AddChild(cmd.Context(), adminToken, args[0], name, born)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s (%s) under %s\n", node.Name, node.ID, args[0])
		return nil
	},
}

var personEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a person's name or birth date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, born := personName, personBorn
		if name == "" && born == "" {
			if err := promptPerson(&name, &born); err != nil {
				return err
			}
		}
		born, err := parseBorn(born)
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

		cur := ed.Find(args[0])
		if cur == nil {
			return fmt.Errorf("no such node: %s", args[0])
		}
		if name == "" {
			name = cur.Name
		}
		if born == "" {
			born = cur.Born
		}

		if err := ed.EditNode(cmd.Context(), adminToken, args[0], name, born); err != nil {
			return err
		}
		fmt.Printf("Updated %s\n", args[0])
		return nil
	},
}

var personRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Remove a person and their descendants",
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

		if err := ed.DeleteNode(cmd.Context(), adminToken, args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

var personAboveCmd = &cobra.Command{
	Use:   "above <id>",
	Short: "Insert a new parent above an existing person",
	Long: `Insert a new person between the given node and its current parent.
Used on the root, the new person becomes the root of the whole tree.

Example:
  arbor person above root --name "Edmund Whitfield"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := personName
		if name == "" {
			var born string
			if err := promptPerson(&name, &born); err != nil {
				return err
			}
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

		node, err := ed.AddParentAbove(cmd.Context(), adminToken, args[0], name)
		if err != nil {
			return err
		}
		fmt.Printf("Inserted %s (%s) above %s\n", node.Name, node.ID, args[0])
		return nil
	},
}

// promptPerson collects name and birth date interactively. Without a
// terminal the form runs in accessible line mode, which keeps the command
// scriptable through pipes.
func promptPerson(name, born *string) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Born").
				Description("Birth date, e.g. 1950-06-04 or \"june 4 1950\"").
				Value(born),
		),
	)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		form = form.WithAccessible(true)
	}
	return form.Run()
}

// parseBorn normalizes a birth date to YYYY-MM-DD. Natural language dates
// go through the when parser.
func parseBorn(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return s, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	r, err := w.Parse(s, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to parse birth date %q: %w", s, err)
	}
	if r == nil {
		return "", fmt.Errorf("unrecognized birth date %q", s)
	}
	return r.Time.Format("2006-01-02"), nil
}

func init() {
	for _, c := range []*cobra.Command{personAddCmd, personEditCmd, personAboveCmd} {
		c.Flags().StringVar(&personName, "name", "", "person's name")
	}
	personAddCmd.Flags().StringVar(&personBorn, "born", "", "birth date")
	personEditCmd.Flags().StringVar(&personBorn, "born", "", "birth date")
	personCmd.AddCommand(personAddCmd, personEditCmd, personRmCmd, personAboveCmd)
	rootCmd.AddCommand(personCmd)
}
