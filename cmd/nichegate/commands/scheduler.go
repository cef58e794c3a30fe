package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/nichegate/internal/scheduler"
	"github.com/wonny/nichegate/internal/scheduler/jobs"
	"github.com/wonny/nichegate/pkg/config"
	"github.com/wonny/nichegate/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Background refresh and re-score jobs",
	Long: `Starts the scheduler or runs its jobs once.

Jobs:
  history_refresh  - recompute stability / trend for every market (HISTORY_REFRESH_SCHEDULE)
  market_rescore   - score every market and store verdicts (MARKET_RESCORE_SCHEDULE)

Subcommands:
  start   - run the scheduler until Ctrl+C
  list    - list registered jobs
  run     - run one job now and wait for it

Example:
  go run ./cmd/nichegate scheduler start
  go run ./cmd/nichegate scheduler run market_rescore`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// registerJobs adds the refresh and re-score jobs
func registerJobs(sched *scheduler.Scheduler, p jobs.MarketPipeline, cfg *config.Config, log *logger.Logger) error {
	if err := sched.AddJob(jobs.NewHistoryRefreshJob(p, cfg.Schedule.HistoryRefresh, log)); err != nil {
		return err
	}
	return sched.AddJob(jobs.NewMarketRescoreJob(p, cfg.Schedule.MarketRescore, cfg.Schedule.Workers, log))
}

func initScheduler(ctx context.Context) (*scheduler.Scheduler, *app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(log)
	if err := registerJobs(sched, a.service, cfg, log); err != nil {
		a.Close()
		return nil, nil, fmt.Errorf("register jobs: %w", err)
	}
	return sched, a, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler(context.Background())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.JobNames() {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// listing needs no connections
	sched := scheduler.New(logger.Nop())
	if err := registerJobs(sched, nil, cfg, logger.Nop()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Registered jobs:")
	stats := sched.Stats()
	for _, name := range sched.JobNames() {
		fmt.Fprintf(out, "  - %-16s %s\n", name, stats[name].Schedule)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	name := args[0]
	fmt.Printf("Running job: %s\n", name)

	sched, a, err := initScheduler(context.Background())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	result, err := sched.RunJob(name)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("job %s failed after %d attempts: %s", name, result.Attempts, result.Error)
	}
	fmt.Printf("✅ Job %s completed in %v\n", name, result.Duration)
	return nil
}
