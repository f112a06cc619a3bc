package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/markprof/internal/profiler"
	"github.com/wesleyorama2/markprof/internal/workload"
)

var fibCmd = &cobra.Command{
	Use:   "fib",
	Short: "Run the instrumented fibonacci workload",
	Long: `Compute fibonacci numbers inside nested regions.

By default the computation is bracketed by id-based records
(total, fib, total_loops, loop_1, loop_2). With --recursive every call of
the recursion is its own region, producing one call-tree level per depth.

Examples:
  markprof fib -n 25 -i 2
  markprof fib -n 15 --recursive --components wall_clock,cpu_clock`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("nfib")
		iterations, _ := cmd.Flags().GetInt("iterations")
		recursive, _ := cmd.Flags().GetBool("recursive")

		mgr, err := newManager(cmd, args)
		if err != nil {
			return err
		}
		return runFib(cmd.Context(), mgr, cmd.OutOrStdout(), n, iterations, recursive)
	},
}

func runFib(ctx context.Context, mgr *profiler.Manager, out io.Writer, n, iterations int, recursive bool) error {
	if n < 0 {
		return fmt.Errorf("nfib must be non-negative, got %d", n)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	t := mgr.NewThread()
	var (
		ans int
		err error
	)
	if recursive {
		ans, err = workload.New().Fibonacci(profiler.WithThread(ctx, t), n)
	} else {
		ans, err = workload.Loops(t, n, iterations)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Answer = %d\n", ans)
	return mgr.Finalize()
}

func init() {
	fibCmd.Flags().IntP("nfib", "n", 25, "Fibonacci value")
	fibCmd.Flags().IntP("iterations", "i", 2, "Loop iterations")
	fibCmd.Flags().Bool("recursive", false, "Measure every recursive call")
}
