package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"pocketbook/internal/amqp"
	"pocketbook/internal/cli"
	"pocketbook/internal/config"
	"pocketbook/internal/core"
	"pocketbook/internal/log"
	"pocketbook/internal/query"
	"pocketbook/internal/services"
	"pocketbook/internal/store"
	"pocketbook/internal/worker"
)

const usage = `pocketbook - personal expense tracker

Usage:
  pocketbook <command> [flags]

Commands:
  add         add an expense
  list        list expenses for a month
  delete      delete an expense by id
  update      update fields of an expense
  budget      set the budget limit for a category
  budgets     show budget limits
  income      set the monthly income
  insights    show spending insights for a month
  trend       show the spending trend over recent months
  export      export a month to CSV
  clear       delete every expense of a month
  categories  list the known categories
  shell       interactive session with periodic autosave

Run 'pocketbook <command> -h' for command flags.
`

func main() {
	cli.LoadEnvFile()

	// Command output goes to stdout; keep log noise down to warnings.
	logCfg := log.DefaultConfig()
	logCfg.Level = slog.LevelWarn
	logCfg.Component = log.ComponentCLI
	logger := log.New(logCfg)
	log.SetDefault(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]
	args := os.Args[2:]

	if command == "-h" || command == "--help" || command == "help" {
		fmt.Print(usage)
		return
	}

	cfg := cli.LoadAndValidateConfig(logger)
	ctx := context.Background()

	result := cli.InitStorage(ctx, logger, cfg)
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Storage cleanup failed", "error", err)
			}
		}
	}()

	opts := []services.Option{services.WithLogger(logger)}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Change feed unavailable, continuing without it", "error", err)
		} else {
			defer client.Close()
			opts = append(opts, services.WithPublisher(client))
		}
	}

	svc := services.New(ctx, store.New(result.Storage), opts...)

	if err := run(ctx, svc, cfg, command, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *services.TrackerService, cfg *config.Config, command string, args []string) error {
	switch command {
	case "add":
		return runAdd(ctx, svc, args)
	case "list":
		return runList(svc, args)
	case "delete":
		return runDelete(ctx, svc, args)
	case "update":
		return runUpdate(ctx, svc, args)
	case "budget":
		return runBudget(ctx, svc, args)
	case "budgets":
		return runBudgets(svc)
	case "income":
		return runIncome(ctx, svc, args)
	case "insights":
		return runInsights(svc, args)
	case "trend":
		return runTrend(svc, cfg.TrendMonths, args)
	case "export":
		return runExport(svc, args)
	case "clear":
		return runClear(ctx, svc, args)
	case "categories":
		return runCategories()
	case "shell":
		return runShell(ctx, svc, cfg, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func runAdd(ctx context.Context, svc *services.TrackerService, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	name := fs.String("name", "", "expense name")
	category := fs.String("category", "", "expense category")
	amount := fs.String("amount", "", "amount, e.g. 3.50")
	date := fs.String("date", "", "date as YYYY-MM-DD")
	notes := fs.String("notes", "", "optional notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// A bad amount string leaves the draft at zero and fails validation
	// together with anything else wrong with the input.
	amountMoney, _ := core.ParseMoney(*amount)

	draft := core.ExpenseDraft{
		Name:     strings.TrimSpace(*name),
		Category: core.Category(*category),
		Amount:   amountMoney,
		Date:     core.Date(*date),
		Notes:    *notes,
	}

	e, err := svc.AddExpense(ctx, draft)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			for _, reason := range verr.Reasons {
				fmt.Fprintln(os.Stderr, "-", reason)
			}
			return fmt.Errorf("expense rejected")
		}
		return err
	}

	fmt.Printf("added expense %d: %s %s (%s)\n", e.ID, e.Name, e.Amount.Format(svc.Currency()), e.Category)
	return nil
}

func runList(svc *services.TrackerService, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	monthFlag := fs.String("month", "", "month as YYYY-MM (default: current)")
	search := fs.String("search", "", "filter by name, category or notes")
	sortKey := fs.String("sort", "date", "sort key: date|amount|name|category")
	order := fs.String("order", "desc", "sort order: asc|desc")
	if err := fs.Parse(args); err != nil {
		return err
	}

	month, err := monthOrCurrent(svc, *monthFlag)
	if err != nil {
		return err
	}

	expenses := svc.MonthExpenses(month, *search, query.SortKey(*sortKey), query.SortOrder(*order))
	if len(expenses) == 0 {
		fmt.Printf("no expenses for %s\n", month.Label())
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tNAME\tCATEGORY\tAMOUNT\tNOTES")
	for _, e := range expenses {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Date, e.Name, e.Category, e.Amount.String(), e.Notes)
	}
	w.Flush()

	fmt.Printf("\ntotal for %s: %s\n", month.Label(), svc.MonthTotal(month).Format(svc.Currency()))
	return nil
}

func runDelete(ctx context.Context, svc *services.TrackerService, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	id := fs.Int64("id", 0, "expense id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *id == 0 {
		return fmt.Errorf("-id is required")
	}
	if !svc.DeleteExpense(ctx, *id) {
		return fmt.Errorf("no expense with id %d", *id)
	}
	fmt.Printf("deleted expense %d\n", *id)
	return nil
}

func runUpdate(ctx context.Context, svc *services.TrackerService, args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	id := fs.Int64("id", 0, "expense id")
	name := fs.String("name", "", "new name")
	category := fs.String("category", "", "new category")
	amount := fs.String("amount", "", "new amount, e.g. 3.50")
	date := fs.String("date", "", "new date as YYYY-MM-DD")
	notes := fs.String("notes", "", "new notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *id == 0 {
		return fmt.Errorf("-id is required")
	}

	var patch store.ExpensePatch
	var patchErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			patch.Name = name
		case "category":
			c := core.Category(*category)
			if !c.Valid() {
				patchErr = fmt.Errorf("unknown category %q (see 'pocketbook categories')", *category)
				return
			}
			patch.Category = &c
		case "amount":
			m, err := core.ParseMoney(*amount)
			if err != nil {
				patchErr = fmt.Errorf("invalid amount %q: %w", *amount, err)
				return
			}
			patch.Amount = &m
		case "date":
			d := core.Date(*date)
			patch.Date = &d
		case "notes":
			patch.Notes = notes
		}
	})
	if patchErr != nil {
		return patchErr
	}

	if !svc.UpdateExpense(ctx, *id, patch) {
		return fmt.Errorf("no expense with id %d", *id)
	}
	fmt.Printf("updated expense %d\n", *id)
	return nil
}

func runBudget(ctx context.Context, svc *services.TrackerService, args []string) error {
	fs := flag.NewFlagSet("budget", flag.ContinueOnError)
	category := fs.String("category", "", "category name")
	limit := fs.String("limit", "", "monthly limit, e.g. 500.00")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := core.ParseMoney(*limit)
	if err != nil {
		return fmt.Errorf("invalid limit %q: %w", *limit, err)
	}
	if !svc.SetBudget(ctx, core.Category(*category), m) {
		return fmt.Errorf("unknown category %q (see 'pocketbook categories')", *category)
	}
	fmt.Printf("budget for %s set to %s\n", *category, m.Format(svc.Currency()))
	return nil
}

func runBudgets(svc *services.TrackerService) error {
	budgets := svc.Budgets()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tLIMIT")
	for _, c := range core.Categories() {
		fmt.Fprintf(w, "%s\t%s\n", c, budgets[c].Format(svc.Currency()))
	}
	return w.Flush()
}

func runIncome(ctx context.Context, svc *services.TrackerService, args []string) error {
	fs := flag.NewFlagSet("income", flag.ContinueOnError)
	amount := fs.String("amount", "", "monthly income, e.g. 160000")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := core.ParseMoney(*amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", *amount, err)
	}
	svc.SetMonthlyIncome(ctx, m)
	fmt.Printf("monthly income set to %s\n", m.Format(svc.Currency()))
	return nil
}

func runInsights(svc *services.TrackerService, args []string) error {
	fs := flag.NewFlagSet("insights", flag.ContinueOnError)
	monthFlag := fs.String("month", "", "month as YYYY-MM (default: current)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	month, err := monthOrCurrent(svc, *monthFlag)
	if err != nil {
		return err
	}

	ins := svc.Insights(month)
	currency := svc.Currency()

	fmt.Printf("insights for %s\n\n", month.Label())
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "total spent\t%s\n", ins.TotalSpent.Format(currency))
	fmt.Fprintf(w, "remaining\t%s\n", ins.Remaining.Format(currency))
	fmt.Fprintf(w, "savings rate\t%.2f%%\n", ins.SavingsRate)
	if ins.HighestCategory != "" {
		fmt.Fprintf(w, "highest category\t%s (%s)\n", ins.HighestCategory, ins.HighestCategoryAmount.Format(currency))
	}
	fmt.Fprintf(w, "over budget\t%d categories\n", ins.OverBudgetCount)
	fmt.Fprintf(w, "average expense\t%s\n", ins.AverageExpense.Format(currency))
	fmt.Fprintf(w, "expense count\t%d\n", ins.ExpenseCount)
	return w.Flush()
}

func runTrend(svc *services.TrackerService, trendMonths int, args []string) error {
	fs := flag.NewFlagSet("trend", flag.ContinueOnError)
	months := fs.Int("months", trendMonths, "number of months to include")
	if err := fs.Parse(args); err != nil {
		return err
	}

	points := svc.Trend(*months)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MONTH\tTOTAL")
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%s\n", p.Label, p.Total.Format(svc.Currency()))
	}
	return w.Flush()
}

func runExport(svc *services.TrackerService, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	monthFlag := fs.String("month", "", "month as YYYY-MM (default: current)")
	out := fs.String("out", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	month, err := monthOrCurrent(svc, *monthFlag)
	if err != nil {
		return err
	}

	filename, csv := svc.ExportMonthCSV(month)
	path := filepath.Join(*out, filename)
	if err := os.WriteFile(path, []byte(csv), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("exported %s\n", path)
	return nil
}

func runClear(ctx context.Context, svc *services.TrackerService, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	monthFlag := fs.String("month", "", "month as YYYY-MM (default: current)")
	confirm := fs.Bool("yes", false, "confirm clearing the month")
	if err := fs.Parse(args); err != nil {
		return err
	}

	month, err := monthOrCurrent(svc, *monthFlag)
	if err != nil {
		return err
	}
	if !*confirm {
		return fmt.Errorf("clearing %s deletes its expenses; re-run with -yes to confirm", month)
	}

	removed := svc.ClearMonth(ctx, month)
	fmt.Printf("removed %d expenses from %s\n", removed, month.Label())
	return nil
}

func runCategories() error {
	for _, c := range core.Categories() {
		fmt.Println(c)
	}
	return nil
}

func runShell(ctx context.Context, svc *services.TrackerService, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("shell", flag.ContinueOnError)
	interval := fs.Duration("autosave", cfg.AutosaveInterval, "autosave interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	autosaver := worker.NewAutosaver(svc, *interval)
	go autosaver.Run(ctx)

	fmt.Printf("pocketbook shell, %s. Type a command, 'help' or 'quit'.\n", svc.CurrentMonth().Label())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			if !svc.Save(ctx) {
				fmt.Fprintln(os.Stderr, "warning: final save failed; recent changes may be lost")
			}
			return nil
		case "help":
			fmt.Print(usage)
		case "shell":
			fmt.Fprintln(os.Stderr, "already in a shell")
		default:
			if err := run(ctx, svc, cfg, fields[0], fields[1:]); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
		}
	}

	svc.Save(ctx)
	return scanner.Err()
}

func monthOrCurrent(svc *services.TrackerService, s string) (core.YearMonth, error) {
	if s == "" {
		return svc.CurrentMonth(), nil
	}
	ym, err := core.ParseYearMonth(s)
	if err != nil {
		return core.YearMonth{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return ym, nil
}
