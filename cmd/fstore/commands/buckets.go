package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/fstore/internal/cli/output"
)

var bucketsOutput string

var bucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "List every bucket in the metadata store",
	Long: `List every bucket directly against the metadata store, bypassing
the HTTP API. Useful when the server isn't running.

Examples:
  fstore buckets
  fstore buckets --output json`,
	RunE: runBuckets,
}

func init() {
	bucketsCmd.Flags().StringVarP(&bucketsOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runBuckets(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	buckets, err := store.GetBuckets(ctx)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(bucketsOutput)
	if err != nil {
		return err
	}
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, buckets)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, buckets)
	default:
		table := output.NewTableData("ID", "NAME", "CREATED")
		for _, b := range buckets {
			table.AddRow(b.ID.String(), b.Name, b.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
		}
		if len(buckets) == 0 {
			fmt.Println("no buckets")
			return nil
		}
		return output.PrintTable(os.Stdout, table)
	}
}
