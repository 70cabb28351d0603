package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/seenimoa/ratiobench/api"
	"github.com/seenimoa/ratiobench/internal/report"
	"github.com/seenimoa/ratiobench/internal/search"
	"github.com/seenimoa/ratiobench/internal/service"
	"github.com/seenimoa/ratiobench/pkg/utils"
)

// --- Compare Command ---

var compareCmd = &cobra.Command{
	Use:   "compare [ticker] [peer...]",
	Short: "Benchmark a company's ratios against the average of its peers",
	Long: `Benchmark a company's ratios against the average of its peers.

Peers are given with --peers, as extra arguments, or taken from the
company's sector in the built-in directory with --sector.

Examples:
  ratiobench compare TCS --peers INFY,WIPRO,HCLTECH
  ratiobench compare RELIANCE ONGC BPCL --format markdown
  ratiobench compare HDFCBANK --sector --format html -o report.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		peersFlag, _ := cmd.Flags().GetString("peers")
		sector, _ := cmd.Flags().GetBool("sector")

		rcfg, err := reportConfig(cmd)
		if err != nil {
			return err
		}

		comparer, closeFn, err := newComparer(cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		peers := append(utils.SplitTickerList(peersFlag), args[1:]...)
		if len(peers) == 0 && sector {
			peers = comparer.SectorPeers(args[0])
			if len(peers) == 0 {
				return fmt.Errorf("no sector peers known for %s", args[0])
			}
		}

		res, err := comparer.Compare(cmd.Context(), service.CompareRequest{Ticker: args[0], Peers: peers})
		if err != nil {
			return err
		}

		return withOutput(cmd, func(w io.Writer) error {
			return report.Render(w, res, rcfg)
		})
	},
}

func init() {
	compareCmd.Flags().StringP("peers", "p", "", "comma-separated competitor tickers")
	compareCmd.Flags().Bool("sector", false, "use the company's sector peers from the directory when no peers are given")
	addReportFlags(compareCmd)
}

// --- Ratios Command ---

var ratiosCmd = &cobra.Command{
	Use:   "ratios [ticker]",
	Short: "Show the ratio set of a single company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rcfg, err := reportConfig(cmd)
		if err != nil {
			return err
		}

		comparer, closeFn, err := newComparer(cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := comparer.Ratios(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return withOutput(cmd, func(w io.Writer) error {
			return report.RenderRatios(w, res, comparer.Policy(), rcfg)
		})
	},
}

func init() {
	addReportFlags(ratiosCmd)
}

// --- Companies Command ---

var companiesCmd = &cobra.Command{
	Use:   "companies [query]",
	Short: "Search the built-in company directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		dir, err := search.Default()
		if err != nil {
			return err
		}
		defer dir.Close()

		var companies []search.Company
		switch {
		case len(args) == 0 && limit <= 0:
			companies = dir.All()
		case len(args) == 0:
			companies, err = dir.Search("", limit)
		default:
			companies, err = dir.Search(args[0], limit)
		}
		if err != nil {
			return err
		}
		if len(companies) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No matching companies.")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TICKER\tNAME\tSECTOR")
		for _, c := range companies {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Ticker, c.Name, c.Sector)
		}
		return tw.Flush()
	},
}

func init() {
	companiesCmd.Flags().IntP("limit", "n", 0, "maximum results (0 lists every company when no query is given)")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.API.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.API.Port = port
		}
		noUI, _ := cmd.Flags().GetBool("no-ui")

		comparer, closeFn, err := newComparer(cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		srv := api.NewServer(cfg, comparer, version)
		if noUI {
			srv.SetServeUI(false)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Starting ratiobench API server on %s\n", cfg.API.Addr())
		return srv.ListenAndServe(cmd.Context(), cfg.API.Addr())
	},
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (overrides api.host)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides api.port)")
	serveCmd.Flags().Bool("no-ui", false, "do not serve the landing page at /")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		dirSize := 0
		if dir, err := search.Default(); err == nil {
			dirSize = dir.Len()
			dir.Close()
		}

		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  ratiobench — System Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintf(out, "  Time (IST):    %s\n", utils.FormatDateTimeIST(utils.NowIST()))
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    Data sources:  %s\n", strings.Join(cfg.DataSource.Sources(), " → "))
		fmt.Fprintf(out, "    Fetching:      %d concurrent, %ds timeout, %d req/s\n",
			cfg.DataSource.ConcurrentFetches, cfg.DataSource.TimeoutSec, cfg.DataSource.RateLimit)
		fmt.Fprintf(out, "    Report:        %s, %d decimals\n", cfg.Report.DefaultFormat, cfg.Report.Decimals)
		fmt.Fprintf(out, "    API Server:    %s\n", cfg.API.Addr())
		fmt.Fprintf(out, "    Logging:       %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
		fmt.Fprintf(out, "    Tracing:       %t\n", cfg.Tracing.Enabled)
		fmt.Fprintf(out, "    Directory:     %d companies\n", dirSize)
		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}

// --- Helpers ---

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "", "output format: text, markdown, html, json, yaml (default: report.default_format)")
	cmd.Flags().Int("decimals", -1, "decimals for ratio values (default: report.decimals)")
	cmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
}

// reportConfig resolves the report flags against the loaded config.
func reportConfig(cmd *cobra.Command) (report.Config, error) {
	name, _ := cmd.Flags().GetString("format")
	if name == "" {
		name = cfg.Report.DefaultFormat
	}
	format, err := report.ParseFormat(name)
	if err != nil {
		return report.Config{}, err
	}

	decimals, _ := cmd.Flags().GetInt("decimals")
	if decimals < 0 {
		decimals = cfg.Report.Decimals
	}
	return report.Config{Format: format, Decimals: decimals}, nil
}

// withOutput runs render against the --output file, or stdout when unset.
func withOutput(cmd *cobra.Command, render func(io.Writer) error) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return render(cmd.OutOrStdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
	return nil
}
