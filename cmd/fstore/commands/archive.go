package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Dump the metadata database and sync every object to the archive tree",
	Long: `Run the archive job: dumps the Postgres metadata database via the
configured dump tool, removes files under the archive destination that no
longer correspond to a current object, then copies every current object
into the archive tree.

Requires archive.dir to be set in the configuration.`,
	RunE: runArchive,
}

func runArchive(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	p, err := store.Archive(ctx)
	if err != nil {
		return err
	}
	p.Finished()

	fmt.Printf("archive complete: %d/%d objects, %d errors, took %s\n",
		p.Completed(), p.Total(), p.Errors(), p.Elapsed())
	return nil
}
