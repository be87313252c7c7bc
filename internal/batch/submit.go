package batch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Runner executes one command line from dir.
type Runner func(ctx context.Context, dir string, args []string) error

// ExecRunner runs args as a child process wired to this process's output.
func ExecRunner(ctx context.Context, dir string, args []string) error {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Submitter runs plan jobs from a working root.
type Submitter struct {
	Root     string
	Template Template
	Run      Runner // nil prints the commands without running them
	Logger   *zap.SugaredLogger
}

// Submit creates each job's output directory and runs its command. A failing
// job is logged and the remaining jobs still run; the number of failures is
// returned as an error.
func (s *Submitter) Submit(ctx context.Context, jobs []Job) error {
	failed := 0
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		args := s.Template.Args(j)
		line := strings.Join(args, " ")

		if s.Run == nil {
			s.Logger.Infof("would execute: %s", line)
			continue
		}

		if err := os.MkdirAll(filepath.Join(s.Root, j.OutputDir()), 0o755); err != nil {
			return fmt.Errorf("batch %d: failed to create output directory: %w", j.Index, err)
		}
		if err := s.Run(ctx, s.Root, args); err != nil {
			s.Logger.Errorw("batch job failed", "batch", j.Index, "command", line, "error", err)
			failed++
			continue
		}
		s.Logger.Infow("executed", "batch", j.Index, "command", line)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d batch jobs failed", failed, len(jobs))
	}
	return nil
}
