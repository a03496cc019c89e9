package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/simaogato/fintrack-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/fintrack-backend/internal/config"
	"github.com/simaogato/fintrack-backend/internal/domain"
	"github.com/simaogato/fintrack-backend/internal/usecase/audit"
	"github.com/simaogato/fintrack-backend/internal/usecase/dashboard"
)

var commands = []subcommands.Command{
	&migrateCmd{},
	&auditCmd{},
	&evolutionCmd{},
}

// openDB connects to the configured database. The memory driver is
// rejected: it has nothing to administer.
func openDB() (*postgres.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return nil, fmt.Errorf("ledgeradmin needs STORE_DRIVER=%s, got %s", config.StoreDriverPostgres, cfg.StoreDriver)
	}
	return postgres.NewDB(cfg.DBConnStr)
}

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending schema migrations" }
func (*migrateCmd) Usage() string {
	return `ledgeradmin migrate

  Applies every embedded migration not yet recorded in schema_migrations.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, err := openDB()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type auditCmd struct {
	user string
}

func (*auditCmd) Name() string     { return "audit" }
func (*auditCmd) Synopsis() string { return "compare cached account balances with their transaction log" }
func (*auditCmd) Usage() string {
	return `ledgeradmin audit -user <user_id>

  Reports every account whose balance differs from the sum of its
  transactions. Nothing is repaired. Exits with status 1 when drift is found.
`
}

func (c *auditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "The user whose accounts are checked.")
}

func (c *auditCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		return subcommands.ExitUsageError
	}
	db, err := openDB()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	return runAudit(ctx, postgres.NewStore(db), c.user, os.Stdout)
}

func runAudit(ctx context.Context, store domain.Store, userID string, w io.Writer) subcommands.ExitStatus {
	report, err := audit.NewAuditService(store).Run(ctx, userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(w, "%d accounts checked, %d with drift\n", report.AccountsChecked, len(report.Drifts))
	if report.Clean() {
		return subcommands.ExitSuccess
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCACHED\tLOG\tDIFFERENCE")
	for _, d := range report.Drifts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ItemID, d.Name, d.CachedBalance, d.LogBalance, d.Difference())
	}
	tw.Flush()
	return subcommands.ExitFailure
}

type evolutionCmd struct {
	user     string
	currency string
}

func (*evolutionCmd) Name() string     { return "evolution" }
func (*evolutionCmd) Synopsis() string { return "print the daily balance series of a currency" }
func (*evolutionCmd) Usage() string {
	return `ledgeradmin evolution -user <user_id> -currency <label>

  Prints the reconstructed end of day totals of every account using the
  currency, with the largest accounts of each day.
`
}

func (c *evolutionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "The owner of the accounts.")
	f.StringVar(&c.currency, "currency", "", "The currency label, as typed on the accounts.")
}

func (c *evolutionCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" || c.currency == "" {
		fmt.Fprintln(os.Stderr, "-user and -currency are required")
		return subcommands.ExitUsageError
	}
	db, err := openDB()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	return runEvolution(ctx, postgres.NewStore(db), c.user, c.currency, os.Stdout)
}

func runEvolution(ctx context.Context, store domain.Store, userID, currency string, w io.Writer) subcommands.ExitStatus {
	points, err := dashboard.NewDashboardService(store).GetCurrencyEvolutionData(ctx, currency, userID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tVALUE\tTOP ACCOUNTS")
	for _, p := range points {
		top := make([]string, 0, len(p.TopAccounts))
		for _, a := range p.TopAccounts {
			top = append(top, fmt.Sprintf("%s=%s", a.Name, a.Balance.StringFixed(2)))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Date.Format("2006-01-02"), p.Value.StringFixed(2), strings.Join(top, ", "))
	}
	tw.Flush()
	return subcommands.ExitSuccess
}
