package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"

	"github.com/privacyops/footprint/internal/api"
	"github.com/privacyops/footprint/internal/browser"
	"github.com/privacyops/footprint/internal/config"
	"github.com/privacyops/footprint/internal/db"
	"github.com/privacyops/footprint/internal/notify"
	"github.com/privacyops/footprint/internal/pipeline"
	"github.com/privacyops/footprint/internal/registry"
	"github.com/privacyops/footprint/internal/removers"
	"github.com/privacyops/footprint/internal/report"
	"github.com/privacyops/footprint/internal/scanners"
	"github.com/privacyops/footprint/internal/schedule"
	"github.com/privacyops/footprint/internal/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the components every command needs. Heavier pieces (browser,
// scanners, scheduler) are built on demand by the commands that use them.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	stores *store.Stores
}

func (a *app) Close() {
	_ = a.logger.Sync()
}

// setup loads configuration, opens the database and builds the logger. The
// scheduler log file sits beside the database so one directory holds all
// engine state.
func setup(logLevel string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := buildLogger(logLevel, filepath.Join(cfg.DataDir(), "scheduler.log"))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	database, err := db.New(db.Config{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DBPath,
		Logger:   logger,
		LogLevel: gormlogger.Warn,
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, stores: store.New(database)}, nil
}

// buildLogger writes structured logs to stderr at the requested level and
// mirrors them into the log file beside the database.
func buildLogger(level, logPath string) (*zap.Logger, error) {
	var lvl zapcore.Level
	switch level {
	case "debug":
		lvl = zap.DebugLevel
	case "warn":
		lvl = zap.WarnLevel
	case "error":
		lvl = zap.ErrorLevel
	default:
		lvl = zap.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), lvl),
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err == nil {
		if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(f), lvl))
		}
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}

// runE wraps a command body with app setup and teardown.
func runE(logLevel *string, fn func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := setup(*logLevel)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), a, cmd, args)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "footprint",
		Short: "footprint - digital footprint protection engine",
		Long: `footprint discovers where your personal data is exposed (data brokers,
credential breaches, dark web indexes, online accounts), submits opt-out
requests, verifies removals over time, and keeps watch on a schedule.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOrDefault("DIGITAL_FOOTPRINT_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newServeCmd(&logLevel))
	root.AddCommand(newScheduleCmd(&logLevel))
	root.AddCommand(newProtectCmd(&logLevel))
	root.AddCommand(newPersonCmd(&logLevel))
	root.AddCommand(newBrokerCmd(&logLevel))
	root.AddCommand(newRemovalCmd(&logLevel))
	root.AddCommand(newScanCmd(&logLevel))
	root.AddCommand(newReportCmd(&logLevel))
	root.AddCommand(newStatusCmd(&logLevel))

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("footprint %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// buildScheduler wires the scheduler with its four jobs. The funcs map is
// created empty first because JobSet needs the scheduler for store access.
func buildScheduler(a *app) *schedule.Scheduler {
	funcs := map[string]schedule.JobFunc{}
	sched := schedule.New(a.stores, funcs, a.logger)

	breaches := scanners.NewBreachScanner(a.cfg.HIBPAPIKey, a.cfg.DehashedEmail, a.cfg.DehashedAPIKey, a.logger)
	darkWeb := scanners.NewDarkWebScanner(a.cfg.HIBPAPIKey, a.logger)
	alerter := pipeline.NewAlerter(a.cfg, notify.NewSMTPSender(a.cfg), a.logger)

	prober := scanners.NewBrokerScanner(browser.NewOpener(a.logger), a.logger)
	verifier := removers.NewVerifier(a.stores.Persons, a.stores.Brokers, a.stores.Removals, prober, a.logger)

	js := &schedule.JobSet{
		Scheduler: sched,
		Breaches:  breaches,
		DarkWeb:   darkWeb,
		VerifyDue: func(ctx context.Context, now time.Time) (int, int, int, int, int, error) {
			r, err := verifier.VerifyDue(ctx, now)
			if err != nil {
				return 0, 0, 0, 0, 0, err
			}
			return r.Checked, r.Confirmed, r.StillFound, r.Failed, r.Skipped, nil
		},
		Alerter:    alerter,
		ReportsDir: a.cfg.ReportsDir(),
		Logger:     a.logger,
	}
	for name, fn := range js.Funcs() {
		funcs[name] = fn
	}
	return sched
}

func buildOrchestrator(a *app) *removers.Orchestrator {
	open := browser.NewOpener(a.logger)
	sender := notify.NewSMTPSender(a.cfg)
	return removers.NewOrchestrator(
		a.stores.Persons, a.stores.Brokers, a.stores.Removals,
		removers.NewEmailRemover(sender, a.cfg.SMTPConfigured(), a.logger),
		removers.NewWebFormRemover(open, a.cfg.ScreenshotDir, a.logger),
		removers.NewManualRemover(),
		a.logger,
	)
}

func buildPipeline(a *app) *pipeline.Pipeline {
	breaches := scanners.NewBreachScanner(a.cfg.HIBPAPIKey, a.cfg.DehashedEmail, a.cfg.DehashedAPIKey, a.logger)
	darkWeb := scanners.NewDarkWebScanner(a.cfg.HIBPAPIKey, a.logger)
	return pipeline.New(a.stores, breaches, darkWeb, a.logger)
}

func newServeCmd(logLevel *string) *cobra.Command {
	var addr string
	var tickInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server with the background scheduler",
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			sched := buildScheduler(a)
			router := api.NewRouter(api.RouterConfig{
				Stores:       a.stores,
				Scheduler:    sched,
				Pipeline:     buildPipeline(a),
				Orchestrator: buildOrchestrator(a),
				Logger:       a.logger,
			})

			// The daemon ticks well below the shortest job interval; each
			// tick only runs jobs that are actually overdue.
			cron, err := gocron.NewScheduler()
			if err != nil {
				return fmt.Errorf("create scheduler daemon: %w", err)
			}
			_, err = cron.NewJob(
				gocron.DurationJob(tickInterval),
				gocron.NewTask(func() {
					if _, err := sched.RunScheduledJobs(context.Background()); err != nil {
						a.logger.Error("scheduled pass failed", zap.Error(err))
					}
				}),
				gocron.WithSingletonMode(gocron.LimitModeReschedule),
			)
			if err != nil {
				return fmt.Errorf("register scheduler tick: %w", err)
			}
			cron.Start()
			defer func() { _ = cron.Shutdown() }()

			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("http server listening", zap.String("addr", addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		}),
	}
	cmd.Flags().StringVar(&addr, "addr", envOrDefault("DIGITAL_FOOTPRINT_HTTP_ADDR", "127.0.0.1:8787"), "HTTP listen address")
	cmd.Flags().DurationVar(&tickInterval, "tick", time.Hour, "How often the daemon checks for overdue jobs")
	return cmd
}

func newScheduleCmd(logLevel *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run or inspect the recurring job schedule",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run all overdue jobs once and exit",
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			sched := buildScheduler(a)
			outcomes, err := sched.RunScheduledJobs(ctx)
			if err != nil {
				return err
			}
			if len(outcomes) == 0 {
				fmt.Println("No jobs due.")
				return nil
			}
			for _, o := range outcomes {
				line := fmt.Sprintf("%-18s %-8s %s", o.JobName, o.Status, o.CompletedAt.Sub(o.StartedAt).Round(time.Millisecond))
				if o.Error != "" {
					line += "  " + o.Error
				}
				fmt.Println(line)
			}
			if schedule.Failed(outcomes) {
				// Partial failure still exits non-zero so cron notices.
				os.Exit(1)
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show each job's last run and next due time",
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			sched := buildScheduler(a)
			status, err := sched.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%-18s %-9s %-20s %-20s %s\n", "JOB", "INTERVAL", "LAST RUN", "NEXT DUE", "STATUS")
			for _, j := range status.Jobs {
				last := "never"
				if j.LastRun != nil {
					last = j.LastRun.Format("2006-01-02 15:04:05")
				}
				s := j.Status
				if j.Overdue {
					s += " (overdue)"
				}
				fmt.Printf("%-18s %dd%-7s %-20s %-20s %s\n", j.Name, j.IntervalDays, "", last, j.NextDue, s)
			}
			return nil
		}),
	})

	return cmd
}

func newProtectCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "protect <person-id>",
		Short: "Run the full protection pipeline for one person",
		Args:  cobra.ExactArgs(1),
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			result, err := buildPipeline(a).ProtectPerson(ctx, id)
			if err != nil {
				return err
			}
			if result.Status == "error" {
				return fmt.Errorf("protection run failed: %s", result.Error)
			}
			fmt.Println(result.Report)
			fmt.Printf("Breaches: %d  Dark web: %d  Accounts: %d  Risk score: %d (%s)\n",
				result.BreachesFound, result.DarkWebFindings, result.AccountsFound,
				result.RiskScore, report.RiskLabel(result.RiskScore))
			return nil
		}),
	}
}

func newPersonCmd(logLevel *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Manage protected persons",
	}

	var (
		name, relation, dob                  string
		emails, phones, addresses, usernames []string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a person to protect",
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			person := &db.Person{
				Name:      name,
				Relation:  relation,
				Emails:    db.JSONList(emails),
				Phones:    db.JSONList(phones),
				Addresses: db.JSONList(addresses),
				Usernames: db.JSONList(usernames),
			}
			if dob != "" {
				person.DateOfBirth = &dob
			}
			if err := a.stores.Persons.Create(ctx, person); err != nil {
				return err
			}
			fmt.Printf("Added person %d: %s\n", person.ID, person.Name)
			return nil
		}),
	}
	add.Flags().StringVar(&name, "name", "", "Full name")
	add.Flags().StringVar(&relation, "relation", "self", "Relation (self, spouse, child, parent, other)")
	add.Flags().StringSliceVar(&emails, "email", nil, "Email address (repeatable)")
	add.Flags().StringSliceVar(&phones, "phone", nil, "Phone number (repeatable)")
	add.Flags().StringSliceVar(&addresses, "address", nil, "Postal address (repeatable)")
	add.Flags().StringSliceVar(&usernames, "username", nil, "Online username (repeatable)")
	add.Flags().StringVar(&dob, "date-of-birth", "", "Date of birth (YYYY-MM-DD)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List protected persons",
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			persons, err := a.stores.Persons.List(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%-5s %-25s %-10s %s\n", "ID", "NAME", "RELATION", "EMAILS")
			for _, p := range persons {
				fmt.Printf("%-5d %-25s %-10s %d\n", p.ID, p.Name, p.Relation, len(p.Emails))
			}
			return nil
		}),
	})

	return cmd
}

func newBrokerCmd(logLevel *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "broker",
		Short: "Manage the data broker registry",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "load [dir]",
		Short: "Load broker definitions from a YAML directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			dir := a.cfg.BrokersDir
			if len(args) == 1 {
				dir = args[0]
			}
			result, err := registry.New(a.stores.Brokers, a.logger).LoadDir(ctx, dir)
			if err != nil {
				return err
			}
			fmt.Printf("Loaded %d brokers from %s\n", result.Loaded, dir)
			for _, e := range result.Errors {
				fmt.Printf("  skipped %s: %s\n", e.File, e.Reason)
			}
			return nil
		}),
	})

	var category, difficulty string
	var automatable bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List registered brokers",
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			filter := store.BrokerFilter{Category: category, Difficulty: difficulty}
			if cmd.Flags().Changed("automatable") {
				filter.Automatable = &automatable
			}
			brokers, err := a.stores.Brokers.List(ctx, filter)
			if err != nil {
				return err
			}
			fmt.Printf("%-25s %-15s %-10s %-10s %s\n", "SLUG", "CATEGORY", "METHOD", "DIFFICULTY", "AUTO")
			for _, b := range brokers {
				fmt.Printf("%-25s %-15s %-10s %-10s %v\n", b.Slug, b.Category, b.OptOutMethod, b.Difficulty, b.Automatable)
			}
			return nil
		}),
	}
	list.Flags().StringVar(&category, "category", "", "Filter by category")
	list.Flags().StringVar(&difficulty, "difficulty", "", "Filter by difficulty")
	list.Flags().BoolVar(&automatable, "automatable", false, "Filter by automatable")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show registry breakdown",
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			stats, err := a.stores.Brokers.Stats(ctx)
			if err != nil {
				return err
			}
			return printJSON(stats)
		}),
	})

	return cmd
}

func newRemovalCmd(logLevel *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "removal",
		Short: "Submit and track opt-out requests",
	}

	var personID int64
	var brokerSlug string
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Submit one opt-out request",
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if personID == 0 || brokerSlug == "" {
				return fmt.Errorf("--person and --broker are required")
			}
			outcome, err := buildOrchestrator(a).SubmitRemoval(ctx, personID, brokerSlug)
			if err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", outcome.Status)
			if outcome.ReferenceID != "" {
				fmt.Printf("Reference: %s\n", outcome.ReferenceID)
			}
			if outcome.Instructions != "" {
				fmt.Println()
				fmt.Println(outcome.Instructions)
			}
			if outcome.Message != "" {
				fmt.Println(outcome.Message)
			}
			return nil
		}),
	}
	submit.Flags().Int64Var(&personID, "person", 0, "Person ID")
	submit.Flags().StringVar(&brokerSlug, "broker", "", "Broker slug")
	cmd.AddCommand(submit)

	cmd.AddCommand(&cobra.Command{
		Use:   "status <person-id>",
		Short: "Show removal status for a person",
		Args:  cobra.ExactArgs(1),
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := buildOrchestrator(a).Status(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(status)
		}),
	})

	return cmd
}

func newScanCmd(logLevel *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run individual scanners",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "breach <email>",
		Short: "Check an email against breach databases",
		Args:  cobra.ExactArgs(1),
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			breaches := scanners.NewBreachScanner(a.cfg.HIBPAPIKey, a.cfg.DehashedEmail, a.cfg.DehashedAPIKey, a.logger)
			rep, err := breaches.Scan(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(rep)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "darkweb <email>",
		Short: "Scan pastes, dark web indexes and account registrations",
		Args:  cobra.ExactArgs(1),
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			darkWeb := scanners.NewDarkWebScanner(a.cfg.HIBPAPIKey, a.logger)
			scan, err := darkWeb.Scan(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println(scanners.FormatReport(scan))
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "username <username>",
		Short: "Enumerate accounts registered under a username",
		Args:  cobra.ExactArgs(1),
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			accounts, err := scanners.NewUsernameScanner(a.logger).Scan(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Found %d accounts for %q\n", len(accounts), args[0])
			for _, acct := range accounts {
				fmt.Printf("  [%-6s] %-20s %s\n", acct.RiskLevel(), acct.SiteName, acct.URL)
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "social <profile-url>...",
		Short: "Audit public social profiles for exposed PII",
		Args:  cobra.MinimumNArgs(1),
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			auditor := scanners.NewSocialAuditor(browser.NewOpener(a.logger), a.logger)
			return printJSON(auditor.AuditAll(ctx, args))
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "brokers <person-id>",
		Short: "Probe broker people-search pages for a person's listing",
		Args:  cobra.ExactArgs(1),
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			person, err := a.stores.Persons.GetByID(ctx, id)
			if err != nil {
				return err
			}
			brokers, err := a.stores.Brokers.List(ctx, store.BrokerFilter{})
			if err != nil {
				return err
			}
			first, last := removers.SplitName(person.Name)
			scanner := scanners.NewBrokerScanner(browser.NewOpener(a.logger), a.logger)
			hits := scanner.ScanAll(ctx, brokers, first, last, "", "")
			for _, hit := range hits {
				mark := " "
				if hit.Found {
					mark = "!"
				}
				fmt.Printf("%s %-25s found=%v %s\n", mark, hit.BrokerSlug, hit.Found, hit.Error)
			}
			return nil
		}),
	})

	var dorkEmail, dorkPhone, dorkAddress string
	dork := &cobra.Command{
		Use:   "dork <name>",
		Short: "Print search engine dork queries for manual exposure checks",
		Args:  cobra.ExactArgs(1),
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			for _, q := range scanners.BuildDorkQueries(args[0], dorkEmail, dorkPhone, dorkAddress) {
				fmt.Println(q)
			}
			return nil
		}),
	}
	dork.Flags().StringVar(&dorkEmail, "email", "", "Include email queries")
	dork.Flags().StringVar(&dorkPhone, "phone", "", "Include phone queries")
	dork.Flags().StringVar(&dorkAddress, "address", "", "Include address queries")
	cmd.AddCommand(dork)

	return cmd
}

func newReportCmd(logLevel *string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "report <person-id>",
		Short: "Render an exposure report from stored scan results",
		Args:  cobra.ExactArgs(1),
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			person, err := a.stores.Persons.GetByID(ctx, id)
			if err != nil {
				return err
			}
			breaches, err := a.stores.Breaches.ListByPerson(ctx, id)
			if err != nil {
				return err
			}

			rep := &scanners.BreachReport{}
			for _, row := range breaches {
				if row.Source != "hibp" {
					continue
				}
				rep.HIBPBreaches = append(rep.HIBPBreaches, scanners.HIBPBreach{
					Name:        row.BreachName,
					BreachDate:  row.BreachDate,
					DataClasses: []string(row.DataTypes),
				})
			}
			in := &report.Input{PersonName: person.Name, Breaches: rep}

			now := time.Now()
			rendered := report.Render(in, now)
			if out == "" {
				fmt.Println(rendered)
				return nil
			}
			path := schedule.ReportPath(out, person.Name, now)
			if err := schedule.WriteReport(path, rendered); err != nil {
				return err
			}
			fmt.Printf("Report written to %s\n", path)
			return nil
		}),
	}
	cmd.Flags().StringVar(&out, "out", "", "Directory to write the report into (default: print to stdout)")
	return cmd
}

func newStatusCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show aggregate engine status",
		RunE: runE(logLevel, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			status, err := a.stores.Status(ctx)
			if err != nil {
				return err
			}
			return printJSON(status)
		}),
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func parseID(s string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
