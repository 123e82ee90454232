// Package main provides the watch command.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/funmagic/taskwatch/internal/taskprogress"
	"github.com/funmagic/taskwatch/internal/telemetry"
	"github.com/funmagic/taskwatch/internal/tui"
	"github.com/funmagic/taskwatch/internal/ui"
)

// errTaskFailed makes the process exit non-zero after a failed task.
var errTaskFailed = errors.New("task failed")

var watchCmd = &cobra.Command{
	Use:   "watch [task-id]",
	Short: "Stream a task's progress until it finishes",
	Long: `Stream a task's progress until it completes or fails.

The task's REST state is checked first, so finished tasks return at once.
Dropped or silent streams are reconnected a bounded number of times
(see 'taskwatch config show'); when the budget is spent the task is
reported as failed with "Connection lost".

A stream that goes silent after the budget is spent is kept open rather
than failed, so a half-open connection can wait indefinitely. Pass
--timeout to bound the whole watch.

With --id-file the task id is read from a file and re-read whenever the
file changes, switching to the new task; removing the file stops tracking.
In this mode watch runs until interrupted.

OUTPUT:
  terminal   live progress view
  --json     one JSON status object per line
  piped      one line per change

EXAMPLES:
  taskwatch watch 3f2a9c1e-7b1d-4c55-9d1e-0c5a8b2f4e11
  taskwatch watch 3f2a9c1e-... --copy
  taskwatch watch --id-file .current-task --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("id-file", "", "Read the task id from this file and follow changes to it")
	watchCmd.Flags().Bool("copy", false, "Copy the task output to the clipboard when it completes")
	watchCmd.Flags().Duration("timeout", 0, "Stop watching after this long (0 = no limit)")
	watchCmd.Flags().BoolP("verbose", "v", false, "Print status messages along with step changes")
}

func runWatch(cmd *cobra.Command, args []string) error {
	idFile, _ := cmd.Flags().GetString("id-file")
	copyOutput, _ := cmd.Flags().GetBool("copy")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	verbose, _ := cmd.Flags().GetBool("verbose")
	debug, _ := cmd.Flags().GetBool("debug")
	quiet, _ := cmd.Flags().GetBool("quiet")
	asJSON := jsonOutput(cmd)

	var taskID string
	switch {
	case len(args) == 1 && idFile != "":
		return fmt.Errorf("pass either a task id or --id-file, not both")
	case len(args) == 1:
		taskID = args[0]
		if err := validateTaskID(taskID); err != nil {
			return err
		}
	case idFile == "":
		return fmt.Errorf("a task id or --id-file is required")
	}
	follow := idFile != ""

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	client, err := newAPIClient(cmd, settings)
	if err != nil {
		return err
	}

	useTUI := tui.ShouldRunTUI(asJSON, quiet)
	logger := log.Default()
	if useTUI && !debug {
		// the live view owns the terminal
		logger = log.New(io.Discard)
	}

	tp := telemetry.InitTracerProvider("taskwatch", version, logger)
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tracker := taskprogress.New(client,
		taskprogress.WithSettings(settings.Stream),
		taskprogress.WithLogger(logger),
		taskprogress.WithTracer(tp.Tracer("taskwatch")),
		taskprogress.WithOnFailed(func(reason string) {
			logger.Debug("Task failed", "reason", reason)
		}),
	)
	defer func() {
		tracker.Close()
		tracker.Wait()
	}()

	if follow {
		ids, err := watchIDFile(ctx, idFile, logger)
		if err != nil {
			return err
		}
		go tracker.BindFrom(ctx, ids)
	} else {
		tracker.Bind(taskID)
	}

	start := time.Now()
	var final *taskprogress.ProgressStatus
	switch {
	case useTUI:
		var cancelled bool
		final, cancelled, err = tui.RunWatch(ctx, tracker, tui.WatchOptions{Follow: follow, Version: version})
		if err != nil {
			return err
		}
		if cancelled {
			return nil
		}
	case asJSON:
		enc := json.NewEncoder(os.Stdout)
		final = followStatus(ctx, tracker, follow, func(st *taskprogress.ProgressStatus) {
			if st != nil {
				_ = enc.Encode(st)
			}
		})
	default:
		steps := ui.NewStepTracker(os.Stdout, verbose)
		final = followStatus(ctx, tracker, follow, func(st *taskprogress.ProgressStatus) {
			if st != nil && !ui.IsQuietMode() {
				steps.Update(ui.StepStatus{
					Status:      string(st.Status),
					CurrentStep: st.CurrentStep,
					Progress:    st.Progress,
					Message:     st.Message,
				})
			}
		})
	}

	return finishWatch(ctx, final, finishOptions{
		copyOutput: copyOutput,
		printBox:   !useTUI && !asJSON,
		elapsed:    time.Since(start),
	})
}

type finishOptions struct {
	copyOutput bool
	printBox   bool
	elapsed    time.Duration
}

// finishWatch reports the final status and picks the exit code.
func finishWatch(ctx context.Context, final *taskprogress.ProgressStatus, opts finishOptions) error {
	if final == nil || !final.IsTerminal() {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("timed out waiting for the task")
		}
		return nil
	}

	if opts.printBox {
		ui.PrintTaskResult(final.TaskID, string(final.Status), final.Output, final.Error,
			opts.elapsed.Truncate(time.Second).String())
	}

	if final.IsFailed() {
		return fmt.Errorf("%w: %s", errTaskFailed, final.Error)
	}

	if opts.copyOutput && len(final.Output) > 0 && string(final.Output) != "null" {
		if err := clipboard.WriteAll(string(final.Output)); err != nil {
			ui.PrintWarning("Failed to copy output: %v", err)
		} else {
			ui.PrintSuccess("Output copied to clipboard")
		}
	}
	return nil
}

// followStatus feeds tracker snapshots to fn until a terminal status (unless
// follow is set) or until ctx ends.
//
// Returns:
//   - *taskprogress.ProgressStatus: The last snapshot seen, or nil
func followStatus(ctx context.Context, tr *taskprogress.Tracker, follow bool, fn func(*taskprogress.ProgressStatus)) *taskprogress.ProgressStatus {
	ch := make(chan *taskprogress.ProgressStatus, 64)
	unsubscribe := tr.Subscribe(func(p *taskprogress.ProgressStatus) {
		var snapshot *taskprogress.ProgressStatus
		if p != nil {
			c := *p
			snapshot = &c
		}
		select {
		case ch <- snapshot:
		default:
			// Channel full -- drop the oldest snapshot, keep the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	})
	defer unsubscribe()

	var last *taskprogress.ProgressStatus
	for {
		select {
		case <-ctx.Done():
			return last
		case st := <-ch:
			fn(st)
			last = st
			if st != nil && st.IsTerminal() && !follow {
				return last
			}
		}
	}
}
