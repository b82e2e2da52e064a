package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"rumclub/internal/auth"
	"rumclub/internal/backend"
	"rumclub/internal/config"
	"rumclub/internal/core"
	"rumclub/internal/export"
	"rumclub/internal/log"
	"rumclub/internal/services"
	"rumclub/internal/storage"
)

var errUsage = errors.New("usage error")

const usage = `usage: rumclub-admin <command> [flags]

commands:
  hash-password [-file path]         read a new club password from stdin and store its hash
  import <roster.csv>                replace the roster with a semicolon member file
  summary [-json]                    print the annual figures
  export -format zip|xlsx -o <path>  write the reports to a file
  roll-balance -yes                  make the current treasury the opening balance
  reset-year -yes                    clear the yearly data, keeping roster and balance
  start-year -yes                    roll the balance forward then reset the year
  history [-n 20]                    list saved versions (sqlite backend)
  restore -yes <id>                  make a saved version current (sqlite backend)
`

type admin struct {
	cfg    *config.Config
	logger *log.Logger
	stdin  io.Reader
	stdout io.Writer
}

func (a *admin) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "hash-password":
		return a.hashPassword(rest)
	case "import":
		return a.importRoster(ctx, rest)
	case "summary":
		return a.summary(ctx, rest)
	case "export":
		return a.export(ctx, rest)
	case "roll-balance", "reset-year", "start-year":
		return a.yearEnd(ctx, cmd, rest)
	case "history":
		return a.history(ctx, rest)
	case "restore":
		return a.restore(ctx, rest)
	case "help", "-h", "--help":
		_, err := fmt.Fprint(a.stdout, usage)
		return err
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *admin) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

// openStore opens the configured backend. The memory backend would start
// empty and be thrown away, so it is refused.
func (a *admin) openStore(ctx context.Context) (*backend.BackendResult, error) {
	if a.cfg.DataBackend == config.BackendMemory {
		return nil, errors.New("admin commands need a persistent backend, DATA_BACKEND is memory")
	}
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(a.logger).CreateBackend(ctx, bcfg)
}

// withLedger runs fn against a ledger service over the configured store.
func (a *admin) withLedger(ctx context.Context, fn func(*services.LedgerService) error) error {
	res, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := res.Cleanup(); cerr != nil {
			a.logger.Warn("Backend cleanup failed", log.FieldError, cerr)
		}
	}()

	svc := a.newService(ctx, res)
	if report := svc.LoadReport(); report.Fallback && !errors.Is(report.Cause, storage.ErrNotFound) {
		return fmt.Errorf("saved ledger unreadable, refusing to continue: %w", report.Cause)
	}
	return fn(svc)
}

// newService builds a ledger service over res. Saved changes are announced
// on the broker like the server's.
func (a *admin) newService(ctx context.Context, res *backend.BackendResult) *services.LedgerService {
	opts := []services.Option{services.WithLogger(a.logger)}
	if res.AMQP != nil {
		opts = append(opts, services.WithPublisher(res.AMQP))
	}
	return services.NewLedgerService(ctx, res.Store, a.cfg.Policy(), opts...)
}

func (a *admin) hashPassword(args []string) error {
	fs := a.flags("hash-password")
	path := fs.String("file", a.cfg.PasswordHashFile, "hash file to write")
	if err := parse(fs, args); err != nil {
		return err
	}

	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	hash, err := auth.HashPassword(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return err
	}
	if err := auth.WriteHashFile(*path, hash); err != nil {
		return err
	}
	a.logger.Info("Club password updated", "path", *path)
	return nil
}

func (a *admin) importRoster(ctx context.Context, args []string) error {
	fs := a.flags("import")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: import takes one roster file", errUsage)
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	return a.withLedger(ctx, func(svc *services.LedgerService) error {
		rep, err := svc.ImportMembers(ctx, f)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(a.stdout, "%d rows, %d members, %d skipped, %d duplicates\n",
			rep.Rows, len(rep.Members), rep.Skipped, rep.Duplicates)
		return err
	})
}

func (a *admin) summary(ctx context.Context, args []string) error {
	fs := a.flags("summary")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	return a.withLedger(ctx, func(svc *services.LedgerService) error {
		sum := svc.Summary()
		if *asJSON {
			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summaryJSON(sum))
		}
		return writeSummary(a.stdout, sum)
	})
}

// summaryJSON flattens the annual figures to euros for scripting.
func summaryJSON(s core.AnnualSummary) map[string]any {
	return map[string]any{
		"opening_balance":      s.OpeningBalance.Float(),
		"sample_quantity":      s.SampleQuantity,
		"sample_margin":        s.SampleMargin.Float(),
		"dues_paid":            s.Dues.Paid,
		"dues_members":         s.Dues.Members,
		"dues_revenue":         s.Dues.Revenue.Float(),
		"tasting_margin":       s.TastingMargin.Float(),
		"treasury":             s.Treasury.Float(),
		"theoretical_treasury": s.TheoreticalTreasury.Float(),
		"latent_stock_value":   s.LatentStockValue.Float(),
		"archive_value":        s.ArchiveValue.Float(),
	}
}

func writeSummary(w io.Writer, s core.AnnualSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	rows := []struct {
		label string
		value string
	}{
		{"Solde d'ouverture", s.OpeningBalance.String()},
		{"Cotisations", fmt.Sprintf("%d/%d  %s", s.Dues.Paid, s.Dues.Members, s.Dues.Revenue)},
		{"Marge échantillons", fmt.Sprintf("%d  %s", s.SampleQuantity, s.SampleMargin)},
		{"Marge dégustations", s.TastingMargin.String()},
		{"Trésorerie", s.Treasury.String()},
		{"Trésorerie théorique", s.TheoreticalTreasury.String()},
		{"Stock latent", s.LatentStockValue.String()},
		{"Bibliothèque", s.ArchiveValue.String()},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t\n", r.label, r.value)
	}
	return tw.Flush()
}

func (a *admin) export(ctx context.Context, args []string) error {
	fs := a.flags("export")
	format := fs.String("format", "zip", "zip or xlsx")
	out := fs.String("o", "", "output file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("%w: export needs -o", errUsage)
	}
	if *format != "zip" && *format != "xlsx" {
		return fmt.Errorf("%w: unknown export format %q", errUsage, *format)
	}

	return a.withLedger(ctx, func(svc *services.LedgerService) error {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("create export: %w", err)
		}
		l := svc.Ledger()
		if *format == "xlsx" {
			err = export.WriteWorkbook(f, l)
		} else {
			err = export.WriteZip(ctx, f, l)
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(*out)
			return fmt.Errorf("write export: %w", err)
		}
		a.logger.Info("Export written", "path", *out, "format", *format)
		return nil
	})
}

// yearEnd runs the destructive year-end operations; they need -yes.
func (a *admin) yearEnd(ctx context.Context, cmd string, args []string) error {
	fs := a.flags(cmd)
	yes := fs.Bool("yes", false, "confirm")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !*yes {
		return fmt.Errorf("%w: %s changes the ledger for good, pass -yes to confirm", errUsage, cmd)
	}

	return a.withLedger(ctx, func(svc *services.LedgerService) error {
		var (
			balance core.Money
			err     error
		)
		switch cmd {
		case "roll-balance":
			balance, err = svc.RollBalanceForward(ctx)
		case "start-year":
			balance, err = svc.StartNewYear(ctx)
		default:
			err = svc.ResetYear(ctx)
			balance = svc.Summary().OpeningBalance
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(a.stdout, "opening balance: %s\n", balance)
		return err
	})
}

// snapshotStore is implemented by stores that keep every saved version.
type snapshotStore interface {
	Snapshots(ctx context.Context, limit int) ([]storage.Snapshot, error)
	Snapshot(ctx context.Context, id int64, policy core.Policy) (*core.Ledger, error)
}

func (a *admin) snapshots(ctx context.Context, fn func(snapshotStore, *backend.BackendResult) error) error {
	res, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := res.Cleanup(); cerr != nil {
			a.logger.Warn("Backend cleanup failed", log.FieldError, cerr)
		}
	}()
	snaps, ok := res.Store.(snapshotStore)
	if !ok {
		return fmt.Errorf("the %s backend keeps no history, use DATA_BACKEND=sqlite", a.cfg.DataBackend)
	}
	return fn(snaps, res)
}

func (a *admin) history(ctx context.Context, args []string) error {
	fs := a.flags("history")
	n := fs.Int("n", 20, "versions to list")
	if err := parse(fs, args); err != nil {
		return err
	}
	return a.snapshots(ctx, func(s snapshotStore, _ *backend.BackendResult) error {
		list, err := s.Snapshots(ctx, *n)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSAVED\tTREASURY")
		for _, snap := range list {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", snap.ID, snap.CreatedAt.Local().Format("2006-01-02 15:04:05"), snap.Treasury)
		}
		return tw.Flush()
	})
}

func (a *admin) restore(ctx context.Context, args []string) error {
	fs := a.flags("restore")
	yes := fs.Bool("yes", false, "confirm")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: restore takes one version id", errUsage)
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: version id %q is not a number", errUsage, fs.Arg(0))
	}
	if !*yes {
		return fmt.Errorf("%w: restore replaces the current ledger, pass -yes to confirm", errUsage)
	}
	return a.snapshots(ctx, func(s snapshotStore, res *backend.BackendResult) error {
		l, err := s.Snapshot(ctx, id, a.cfg.Policy())
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no saved version %d", id)
		}
		if err != nil {
			return err
		}
		// Restoring also replaces an unreadable current document.
		if err := a.newService(ctx, res).Replace(ctx, l); err != nil {
			return err
		}
		a.logger.Info("Ledger restored", "snapshot_id", id, log.FieldTreasury, l.Treasury().Cents)
		_, err = fmt.Fprintf(a.stdout, "restored version %d, treasury %s\n", id, l.Treasury())
		return err
	})
}
