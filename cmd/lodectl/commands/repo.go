package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Inspect repositories",
	Long: `Inspect the repositories configured on a Lodestone server.

Examples:
  # List all repositories
  lodectl repo list

  # Show the resolved configuration of one repository
  lodectl repo get inventory

  # Show current namespace bindings
  lodectl repo namespaces inventory`,
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all repositories",
	RunE:  runRepoList,
}

var repoGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show the resolved configuration of a repository",
	Long: `Show the resolved configuration of a repository.

Inspection is read-only: it never constructs the repository. The LIVE
column reports whether the repository has already been constructed by
another caller.`,
	Args: cobra.ExactArgs(1),
	RunE: runRepoGet,
}

var repoNamespacesCmd = &cobra.Command{
	Use:   "namespaces <name>",
	Short: "Show the current namespace bindings of a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoNamespaces,
}

func init() {
	repoCmd.AddCommand(repoListCmd)
	repoCmd.AddCommand(repoGetCmd)
	repoCmd.AddCommand(repoNamespacesCmd)
}

// repoRow holds repository info for table display.
type repoRow struct {
	Name       string `json:"name" yaml:"name"`
	SourceName string `json:"source_name" yaml:"source_name"`
	Live       bool   `json:"live" yaml:"live"`
}

// repoList is a list of repositories for table rendering.
type repoList []repoRow

// Headers implements TableRenderer.
func (rl repoList) Headers() []string {
	return []string{"NAME", "SOURCE", "LIVE"}
}

// Rows implements TableRenderer.
func (rl repoList) Rows() [][]string {
	rows := make([][]string, 0, len(rl))
	for _, r := range rl {
		rows = append(rows, []string{r.Name, r.SourceName, yesNo(r.Live)})
	}
	return rows
}

func runRepoList(cmd *cobra.Command, args []string) error {
	client := getClient()
	printer, err := getPrinter()
	if err != nil {
		return err
	}

	names, err := client.ListRepositories()
	if err != nil {
		return err
	}

	list := make(repoList, 0, len(names))
	for _, name := range names {
		repo, err := client.GetRepository(name)
		if err != nil {
			// A repository can be misconfigured; still list its name.
			list = append(list, repoRow{Name: name, SourceName: "-"})
			continue
		}
		list = append(list, repoRow{
			Name:       repo.Name,
			SourceName: repo.SourceName,
			Live:       repo.Live,
		})
	}

	return printer.Print(list)
}

// repoDetail renders one repository for table display.
type repoDetail struct {
	Name        string            `json:"name" yaml:"name"`
	SourceName  string            `json:"source_name" yaml:"source_name"`
	Options     map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
	Descriptors map[string]string `json:"descriptors,omitempty" yaml:"descriptors,omitempty"`
	Live        bool              `json:"live" yaml:"live"`
}

// Headers implements TableRenderer.
func (repoDetail) Headers() []string {
	return []string{"FIELD", "VALUE"}
}

// Rows implements TableRenderer.
func (r repoDetail) Rows() [][]string {
	rows := [][]string{
		{"Name", r.Name},
		{"Source", r.SourceName},
		{"Live", yesNo(r.Live)},
	}
	for _, key := range sortedKeys(r.Options) {
		rows = append(rows, []string{"Option " + key, r.Options[key]})
	}
	for _, key := range sortedKeys(r.Descriptors) {
		rows = append(rows, []string{"Descriptor " + key, r.Descriptors[key]})
	}
	return rows
}

func runRepoGet(cmd *cobra.Command, args []string) error {
	client := getClient()
	printer, err := getPrinter()
	if err != nil {
		return err
	}

	repo, err := client.GetRepository(args[0])
	if err != nil {
		return fmt.Errorf("failed to get repository %q: %w", args[0], err)
	}

	return printer.Print(repoDetail{
		Name:        repo.Name,
		SourceName:  repo.SourceName,
		Options:     repo.Options,
		Descriptors: repo.Descriptors,
		Live:        repo.Live,
	})
}

// namespaceList renders prefix-to-URI bindings for table display.
type namespaceList map[string]string

// Headers implements TableRenderer.
func (namespaceList) Headers() []string {
	return []string{"PREFIX", "URI"}
}

// Rows implements TableRenderer.
func (nl namespaceList) Rows() [][]string {
	rows := make([][]string, 0, len(nl))
	for _, prefix := range sortedKeys(nl) {
		rows = append(rows, []string{prefix, nl[prefix]})
	}
	return rows
}

func runRepoNamespaces(cmd *cobra.Command, args []string) error {
	client := getClient()
	printer, err := getPrinter()
	if err != nil {
		return err
	}

	bindings, err := client.GetNamespaces(args[0])
	if err != nil {
		return fmt.Errorf("failed to get namespaces for %q: %w", args[0], err)
	}

	return printer.Print(namespaceList(bindings))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
