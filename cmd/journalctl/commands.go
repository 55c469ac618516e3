package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/username/tradejournal/backend/src/clients/kite"
	"github.com/username/tradejournal/backend/src/config"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers"
	"github.com/username/tradejournal/backend/src/processors"
	"github.com/username/tradejournal/backend/src/services"
)

func commands(out io.Writer) []subcommands.Command {
	return []subcommands.Command{
		&importCmd{out: out},
		&syncCmd{out: out},
	}
}

// dryRunOutput is what both commands print.
type dryRunOutput struct {
	Report models.ImportReport      `json:"report"`
	Trades []models.NormalizedTrade `json:"trades,omitempty"`
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type importCmd struct {
	out     io.Writer
	format  string
	maxRows int
	trades  bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "parse a broker export and print the import report" }
func (*importCmd) Usage() string {
	return `journalctl import [-format auto|zerodha|groww] [-trades] <file.csv>

  Reads a Zerodha or Groww export, runs it through classification, extraction,
  normalization and in-file duplicate detection, and prints the report as JSON.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "auto", "Broker format of the file.")
	f.IntVar(&c.maxRows, "max-rows", config.Defaults().MaxImportRows, "Reject files with more data rows than this.")
	f.BoolVar(&c.trades, "trades", false, "Also print the normalized trades.")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "import requires exactly one file argument")
		return subcommands.ExitUsageError
	}
	format, err := models.ParseFormat(c.format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	file, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	rows, err := parsers.ReadRows(file, c.maxRows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	result, err := processors.NewImportPipeline().Run(rows, format, models.NewKeySet(), time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return c.print(result)
}

func (c *importCmd) print(result *processors.PipelineResult) subcommands.ExitStatus {
	output := dryRunOutput{Report: result.Report}
	if c.trades {
		output.Trades = result.Accepted
	}
	if err := writeJSON(c.out, output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type syncCmd struct {
	out         io.Writer
	baseURL     string
	apiKey      string
	accessToken string
	timeout     time.Duration
	trades      bool
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "fetch today's executed orders from Kite and print the report" }
func (*syncCmd) Usage() string {
	return `journalctl sync -api-key <key> -access-token <token> [-base-url <url>] [-trades]

  Fetches orders and positions from the Kite API and prints the report the
  sync would produce for an empty journal. The access token can also be
  given through KITE_ACCESS_TOKEN.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	defaults := config.Defaults()
	f.StringVar(&c.baseURL, "base-url", defaults.KiteBaseURL, "Kite API base URL.")
	f.StringVar(&c.apiKey, "api-key", os.Getenv("KITE_API_KEY"), "Kite API key.")
	f.StringVar(&c.accessToken, "access-token", os.Getenv("KITE_ACCESS_TOKEN"), "Kite access token.")
	f.DurationVar(&c.timeout, "timeout", defaults.KiteHTTPTimeout, "HTTP timeout per request.")
	f.BoolVar(&c.trades, "trades", false, "Also print the normalized trades.")
}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	creds := models.Credentials{APIKey: c.apiKey, AccessToken: c.accessToken}
	if !creds.Complete() {
		fmt.Fprintln(os.Stderr, "sync requires -api-key and -access-token")
		return subcommands.ExitUsageError
	}
	client, err := kite.NewClient(c.baseURL, creds, c.timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	result, err := dryRunSync(ctx, client)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	output := dryRunOutput{Report: result.Report}
	if c.trades {
		output.Trades = result.Accepted
	}
	if err := writeJSON(c.out, output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func dryRunSync(ctx context.Context, client services.BrokerAPI) (*processors.PipelineResult, error) {
	orders, err := client.Orders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	lookup := services.PositionLookup{}
	if positions, err := client.Positions(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: positions unavailable, P&L omitted: %v\n", err)
	} else {
		lookup = services.NewPositionLookup(positions)
	}

	existing := models.NewKeySet()
	candidates, details := services.OrdersToCandidates(orders, lookup, existing)
	result := processors.NewImportPipeline().Finish(len(orders), candidates, details, existing, models.SourceSync, time.Now())
	result.Report.Format = models.FormatZerodha
	return result, nil
}
