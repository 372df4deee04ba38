package objectstore

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/marmos91/fstore/internal/logger"
)

// runDump shells out to the external database dump tool (pg_dump or
// equivalent), invoked as an opaque subprocess per spec.md §1's scoping.
// Grounded on the teacher's cmd/dittofs/commands/restore/controlplane.go
// psql-invocation pattern: exec.Command with explicit flags plus
// PGPASSWORD passed through the environment rather than the command line.
func runDump(ctx context.Context, tool string, db DumpDatabaseConfig, outputPath string) error {
	if _, err := exec.LookPath(tool); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", tool, err)
	}

	args := []string{
		"-h", db.Host,
		"-p", fmt.Sprintf("%d", db.Port),
		"-U", db.User,
		"-d", db.Database,
		"-f", outputPath,
		"--format=custom",
		"--no-password",
	}

	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("PGPASSWORD=%s", db.Password))

	output, err := cmd.CombinedOutput()
	if err != nil {
		logger.Error("database dump failed", "tool", tool, "output", string(output), "error", err)
		return fmt.Errorf("%s dump failed: %w", tool, err)
	}
	return nil
}
