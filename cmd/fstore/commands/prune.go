package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/fstore/internal/cli/prompt"
)

var pruneForce bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove every object with zero bucket associations",
	Long: `Remove every orphaned object: an object no longer associated with
any bucket is deleted from the metadata store in one transaction, then its
file is best-effort removed from the filesystem tree.`,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().BoolVarP(&pruneForce, "force", "f", false, "skip the confirmation prompt")
}

func runPrune(cmd *cobra.Command, args []string) error {
	ok, err := prompt.ConfirmWithForce("this permanently deletes every orphaned object's file, continue?", pruneForce)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("prune cancelled")
		return nil
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	removed, err := store.Prune(ctx)
	if err != nil {
		return err
	}

	var bytes int64
	for _, obj := range removed {
		bytes += obj.Size
	}
	fmt.Printf("prune complete: removed %d objects, %d bytes\n", len(removed), bytes)
	return nil
}
