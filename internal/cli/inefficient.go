package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/markprof/internal/profiler"
	"github.com/wesleyorama2/markprof/internal/workload"
)

var inefficientCmd = &cobra.Command{
	Use:   "inefficient",
	Short: "Run the instrumented fibonacci + inefficient summation workload",
	Long: `Run fibonacci(n) + fibonacci(n%5+1) followed by a deliberately wasteful
summation, each in its own region. With --threads the workload runs
concurrently on several threads whose results are merged at finalize.

Examples:
  markprof inefficient -n 19
  markprof inefficient -n 15 --threads 4 --timing-units msec`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("nfib")
		threads, _ := cmd.Flags().GetInt("threads")
		extra, _ := cmd.Flags().GetStringSlice("extra")

		mgr, err := newManager(cmd, args)
		if err != nil {
			return err
		}
		return runInefficient(cmd.Context(), mgr, cmd.OutOrStdout(), n, threads, extra)
	},
}

func runInefficient(ctx context.Context, mgr *profiler.Manager, out io.Writer, n, threads int, extra []string) error {
	if n < 0 {
		return fmt.Errorf("nfib must be non-negative, got %d", n)
	}
	if threads < 1 {
		threads = 1
	}
	if ctx == nil {
		ctx = context.Background()
	}

	w := workload.New(extra...)
	mgr.AddMetadata("nfib", n)
	mgr.AddMetadata("threads", threads)

	results := make([]float64, threads)
	errs := make([]error, threads)
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tctx := profiler.WithThread(ctx, mgr.NewThread())
			results[i], errs[i] = profiler.ScopeValue(tctx, "main", w.Provider, func(ctx context.Context) (float64, error) {
				return w.Run(ctx, n)
			})
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Solution           :  %12.6e\n", results[0])
	fmt.Fprintf(out, "Elapsed time (sec) :  %12.6f\n", elapsed.Seconds())
	return mgr.Finalize()
}

func init() {
	inefficientCmd.Flags().IntP("nfib", "n", 19, "Fibonacci value")
	inefficientCmd.Flags().IntP("threads", "t", 1, "Number of concurrent threads")
	inefficientCmd.Flags().StringSlice("extra", nil, "Components measured in addition to the global components")
}
