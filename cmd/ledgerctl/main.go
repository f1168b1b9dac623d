// Command ledgerctl runs operator tasks against the ledger database and
// job queues: schema migrations, CSV journal imports and job triggers.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/google/subcommands"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-ledger/cmd/ledgerctl/cli"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/app"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&migrateCmd{}, "database")
	commander.Register(&importCmd{}, "ledger")
	commander.Register(&jobsCmd{}, "jobs")

	flag.Parse()
	ctx, stop := app.SignalContext(context.Background())
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

func loadConfig() (*app.Config, *slog.Logger, bool) {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return nil, nil, false
	}
	return cfg, app.NewLogger(cfg), true
}

type migrateCmd struct {
	steps int
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply or roll back ledger schema migrations" }
func (*migrateCmd) Usage() string {
	return `ledgerctl migrate [-steps n] up|down|version

  up      applies every pending migration.
  down    rolls back -steps migrations (default 1).
  version prints the current schema version.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.steps, "steps", 1, "number of migrations to roll back with down")
}

func (c *migrateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	cfg, logger, ok := loadConfig()
	if !ok {
		return subcommands.ExitFailure
	}
	migrator, err := db.NewMigrator(cfg.PGDSN, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		return subcommands.ExitFailure
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			logger.Warn("close migrator", slog.Any("error", err))
		}
	}()

	switch f.Arg(0) {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down(c.steps)
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = migrator.Version()
		if err == nil {
			fmt.Printf("version %d (dirty=%t)\n", version, dirty)
		}
	default:
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type importCmd struct {
	org     int64
	actor   int64
	file    string
	mode    string
	jsonOut bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import journal drafts from a CSV file" }
func (*importCmd) Usage() string {
	return `ledgerctl import -org <id> -file <path|-> [-mode dry|apply] [-actor <id>] [-json]

  Reads journal lines with columns ref,date,account,debit,credit and the
  optional description,memo. Lines sharing a ref form one journal. The dry
  mode validates balances and account codes; apply creates drafts after
  confirmation. Exit code 10 means the dry run found problems.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.org, "org", 0, "organisation id")
	f.Int64Var(&c.actor, "actor", 0, "user id recorded as the draft author")
	f.StringVar(&c.file, "file", "-", "CSV source, - for stdin")
	f.StringVar(&c.mode, "mode", string(cli.ImportModeDry), "dry or apply")
	f.BoolVar(&c.jsonOut, "json", false, "print the summary as JSON")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, ok := loadConfig()
	if !ok {
		return subcommands.ExitFailure
	}
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 2})
	if err != nil {
		fmt.Fprintf(os.Stderr, "import: %v\n", err)
		return subcommands.ExitFailure
	}
	defer pool.Close()

	ledger := accounting.New(accounting.Options{
		Pool:              pool,
		Logger:            logger,
		ApprovalThreshold: cfg.ApprovalThreshold,
	})
	importer := cli.NewJournalImporter(ledger.Accounts, ledger.Journals)
	code := importer.ImportCommand(ctx, cli.ImportOptions{
		OrgID:      c.org,
		ActorID:    c.actor,
		Mode:       cli.ImportMode(c.mode),
		Source:     c.file,
		JSONOutput: c.jsonOut,
	})
	return subcommands.ExitStatus(code)
}

type jobsCmd struct {
	jsonOut bool
}

func (*jobsCmd) Name() string     { return "jobs" }
func (*jobsCmd) Synopsis() string { return "trigger ledger jobs or inspect their queues" }
func (*jobsCmd) Usage() string {
	return fmt.Sprintf(`ledgerctl jobs [-json] trigger <job>|stats

  trigger enqueues one of: %s
  stats   prints pending, active and failed counts per queue.
`, strings.Join(cli.TriggerableJobs, ", "))
}

func (c *jobsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.jsonOut, "json", false, "print JSON output")
}

func (c *jobsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	cfg, logger, ok := loadConfig()
	if !ok {
		return subcommands.ExitFailure
	}
	jobsCLI := cli.NewJobsCLI(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer func() {
		if err := jobsCLI.Close(); err != nil {
			logger.Warn("close jobs cli", slog.Any("error", err))
		}
	}()

	switch f.Arg(0) {
	case "trigger":
		if f.NArg() != 2 {
			fmt.Fprint(os.Stderr, c.Usage())
			return subcommands.ExitUsageError
		}
		info, err := jobsCLI.Trigger(ctx, f.Arg(1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs trigger: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
	case "stats":
		stats, err := jobsCLI.InspectQueues(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs stats: %v\n", err)
			return subcommands.ExitFailure
		}
		if c.jsonOut {
			if err := json.NewEncoder(os.Stdout).Encode(stats); err != nil {
				fmt.Fprintf(os.Stderr, "jobs stats: %v\n", err)
				return subcommands.ExitFailure
			}
			return subcommands.ExitSuccess
		}
		for _, s := range stats {
			fmt.Printf("%-8s pending=%d active=%d scheduled=%d retry=%d archived=%d\n", s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived)
		}
	default:
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return subcommands.ExitSuccess
}
