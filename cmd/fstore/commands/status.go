package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/fstore/internal/cli/output"
	"github.com/marmos91/fstore/pkg/config"
)

var statusOutput string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store totals from a running server",
	Long: `Query a running fstore server's GET /status endpoint and display
the bucket count, object count, and total bytes stored.

Examples:
  fstore status
  fstore status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	url := "http://fstore/status"
	if !cfg.Listen.Unix {
		url = fmt.Sprintf("http://%s/status", cfg.Listen.Address)
	} else {
		client.Transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", cfg.Listen.Address)
			},
		}
	}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	var totals struct {
		Buckets   int   `json:"buckets" yaml:"buckets"`
		Objects   int   `json:"objects" yaml:"objects"`
		SpaceUsed int64 `json:"space_used" yaml:"space_used"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&totals); err != nil {
		return fmt.Errorf("failed to decode status response: %w", err)
	}

	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, totals)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, totals)
	default:
		fmt.Println()
		fmt.Println("fstore status")
		fmt.Println("=============")
		fmt.Printf("  Buckets:    %d\n", totals.Buckets)
		fmt.Printf("  Objects:    %d\n", totals.Objects)
		fmt.Printf("  Space used: %d bytes\n", totals.SpaceUsed)
		fmt.Println()
		return nil
	}
}
