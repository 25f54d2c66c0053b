package commands

import (
	"errors"
	"strings"

	"github.com/lodestone-io/lodestone/pkg/apiclient"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Long: `Check the health of a Lodestone server.

Reports the engine state and, when ready, the repositories that are
currently live.

Examples:
  # Check health of the default server
  lodectl health

  # Check a remote server
  lodectl health --server http://lodestone.example.com:8080`,
	RunE: runHealth,
}

// healthView renders the health report for table output.
type healthView struct {
	State string   `json:"state" yaml:"state"`
	Live  []string `json:"live,omitempty" yaml:"live,omitempty"`
}

// Headers implements TableRenderer.
func (v healthView) Headers() []string {
	return []string{"STATE", "LIVE REPOSITORIES"}
}

// Rows implements TableRenderer.
func (v healthView) Rows() [][]string {
	live := "-"
	if len(v.Live) > 0 {
		live = strings.Join(v.Live, ", ")
	}
	return [][]string{{v.State, live}}
}

func runHealth(cmd *cobra.Command, args []string) error {
	client := getClient()
	printer, err := getPrinter()
	if err != nil {
		return err
	}

	health, err := client.Ready()
	if err != nil {
		// A draining or stopped engine fails readiness but still
		// answers liveness with its state.
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.IsUnavailable() {
			health, err = client.Healthz()
		}
		if err != nil {
			return err
		}
	}

	return printer.Print(healthView{State: health.State, Live: health.Live})
}
