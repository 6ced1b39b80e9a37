package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"thanwia-dashboard/config"
	"thanwia-dashboard/dashboard"
	"thanwia-dashboard/export"
	"thanwia-dashboard/loader"
	"thanwia-dashboard/logging"
	"thanwia-dashboard/models"
)

type queryOptions struct {
	name       string
	seat       string
	top        int
	exportPath string
}

func newQueryCmd() *cobra.Command {
	var opts queryOptions
	cmd := &cobra.Command{
		Use:   "query [results.xlsx]",
		Short: "Search a results file and print statistics from the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if opts.top == 0 {
				opts.top = cfg.Data.TopN
			}
			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
			parser := loader.NewExcelLoader(loader.Columns{
				Seating: cfg.Data.SeatingColumns,
				Name:    cfg.Data.NameColumns,
				Score:   cfg.Data.ScoreColumns,
			}, logger)
			return runQuery(cmd.OutOrStdout(), parser, args[0], opts, cfg.Data.HistogramBins)
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "Search by name or part of it")
	cmd.Flags().StringVar(&opts.seat, "seat", "", "Search by seating number")
	cmd.Flags().IntVar(&opts.top, "top", 0, "Number of top students to list (default from config)")
	cmd.Flags().StringVarP(&opts.exportPath, "export", "o", "", "Write the matching records to this CSV file")
	return cmd
}

func runQuery(out io.Writer, parser *loader.ExcelLoader, path string, opts queryOptions, bins int) error {
	ds, err := parser.LoadFile(path)
	if err != nil {
		printMessages(out, dashboard.Failed(err).Messages)
		return err
	}

	criteria := models.FilterCriteria{NamePattern: opts.name, SeatingPattern: opts.seat}
	view := dashboard.Build(ds, criteria, dashboard.Options{Bins: bins, TopN: opts.top})
	printMessages(out, view.Messages)

	if view.Matches != nil {
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Row", "Seating No", "Name", "Total Degree"})
		for _, r := range view.Matches {
			table.Append([]string{fmt.Sprint(r.Row), r.SeatingNumber, r.Name(), export.FormatScore(r.TotalDegree)})
		}
		table.Render()
	}

	if view.Stats != nil {
		fmt.Fprintln(out)
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Students", "Min", "Max", "Mean"})
		table.Append([]string{
			fmt.Sprint(view.Stats.Count),
			export.FormatScore(view.Stats.Min),
			export.FormatScore(view.Stats.Max),
			fmt.Sprintf("%.2f", view.Stats.Mean),
		})
		table.Render()

		fmt.Fprintln(out)
		table = tablewriter.NewWriter(out)
		table.SetHeader([]string{"Rank", "Seating No", "Name", "Total Degree"})
		for _, r := range view.Top {
			table.Append([]string{fmt.Sprint(r.Rank), r.SeatingNumber, r.ArabicName, export.FormatScore(r.TotalDegree)})
		}
		table.Render()
	}

	if opts.exportPath != "" {
		records := ds.Records
		if view.Matches != nil {
			records = view.Matches
		}
		f, err := os.Create(opts.exportPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", opts.exportPath, err)
		}
		if err := export.WriteCSV(f, records); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nWrote %d record(s) to %s\n", len(records), opts.exportPath)
	}
	return nil
}

func printMessages(out io.Writer, messages []dashboard.Message) {
	for _, m := range messages {
		c := color.New(color.FgCyan)
		switch m.Level {
		case dashboard.LevelSuccess:
			c = color.New(color.FgGreen)
		case dashboard.LevelWarning:
			c = color.New(color.FgYellow)
		case dashboard.LevelError:
			c = color.New(color.FgRed, color.Bold)
		}
		c.Fprintln(out, m.Text)
	}
}
