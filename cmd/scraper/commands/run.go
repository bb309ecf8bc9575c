package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/grez-lucas/traffic-scraper/internal/config"
	"github.com/grez-lucas/traffic-scraper/internal/runner"
	"github.com/grez-lucas/traffic-scraper/internal/scraper/source"
	"github.com/grez-lucas/traffic-scraper/internal/scraper/source/dashboard"
	"github.com/grez-lucas/traffic-scraper/internal/table"
	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var runFlags struct {
	envFiles  []string
	source    string
	mode      string
	domains   string
	output    string
	overwrite bool
	headless  bool
}

func init() {
	f := runCmd.Flags()
	f.StringSliceVar(&runFlags.envFiles, "env", []string{".env"}, "Env files to load. Missing files are skipped.")
	f.StringVar(&runFlags.source, "source", "", "Record source: dom or api. Overrides SOURCE.")
	f.StringVar(&runFlags.mode, "mode", "", "Match mode. Overrides MODE and skips the prompt.")
	f.StringVar(&runFlags.domains, "domains", "", "Domains file. Overrides DOMAINS_FILENAME.")
	f.StringVarP(&runFlags.output, "output", "o", "", "Output table. Overrides OUTPUT_FILENAME.")
	f.BoolVar(&runFlags.overwrite, "overwrite", false, "Truncate the output on the first write instead of merging into it.")
	f.BoolVar(&runFlags.headless, "headless", true, "Run Chrome headless. Overrides HEADLESS.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--source dom|api] [--mode <mode>] [--output <path>] [--overwrite]",
	Short: "Scrapes every domain of the domains file and merges the results into the output table.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(runFlags.envFiles...)
		if err != nil {
			return err
		}
		applyRunFlags(cmd, &cfg)

		if cfg.Mode == "" && len(cfg.Modes) > 0 {
			cfg.Mode, err = promptMode(cmd.InOrStdin(), cmd.ErrOrStderr(), cfg.Modes)
			if err != nil {
				return err
			}
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		domains, err := runner.LoadDomains(cfg.DomainsPath)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		log := slog.Default()

		src, closeSrc, err := openSource(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer closeSrc()

		r := &runner.Runner{
			Source:     src,
			Writer:     &table.Writer{Comma: cfg.Delimiter},
			OutputPath: cfg.OutputPath,
			Overwrite:  runFlags.overwrite,
			Logger:     log,
		}
		sum, err := r.Run(ctx, domains)
		if err != nil {
			return err
		}

		printSummary(cmd.OutOrStdout(), sum, cfg.OutputPath)
		return nil
	},
}

func printSummary(w io.Writer, sum runner.Summary, output string) {
	t := prettytable.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(prettytable.Row{"Output", "Written", "Empty", "Total", "Limit reached"})
	t.AppendRow(prettytable.Row{output, sum.Written, sum.Empty, sum.Total, sum.LimitReached})
	t.SetStyle(prettytable.StyleRounded)
	t.Render()
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("source") {
		cfg.Source = source.Kind(runFlags.source)
	}
	if f.Changed("mode") {
		cfg.Mode = runFlags.mode
	}
	if f.Changed("domains") {
		cfg.DomainsPath = runFlags.domains
	}
	if f.Changed("output") {
		cfg.OutputPath = runFlags.output
	}
	if f.Changed("headless") {
		cfg.Headless = runFlags.headless
	}
}

// openSource builds the configured record source. The returned close func
// releases the browser and saves cookies.
func openSource(ctx context.Context, cfg config.Config, log *slog.Logger) (source.RecordSource, func(), error) {
	var session *dashboard.Session
	closers := []io.Closer{}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Warn("close failed", "err", err)
			}
		}
	}

	if cfg.NeedsBrowser() {
		creds, err := runner.LoadCredentials(cfg.CredentialsPath)
		if err != nil {
			return nil, nil, err
		}

		session, err = dashboard.NewSession(ctx, cfg.LoginURL,
			dashboard.WithHeadless(cfg.Headless),
			dashboard.WithBin(cfg.ChromeBin),
			dashboard.WithTimeouts(cfg.Timeouts),
			dashboard.WithLogger(log),
		)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, session)

		if err := session.Login(ctx, creds); err != nil {
			closeAll()
			return nil, nil, err
		}
	}

	switch cfg.Source {
	case source.KindAPI:
		var capturer dashboard.CookieCapturer = dashboard.StaticCookies(cfg.CookieHeader)
		if cfg.CookieHeader == "" {
			capturer = &dashboard.BrowserCookies{
				Session: session,
				BaseURL: cfg.BaseURL,
				Mode:    cfg.Mode,
				APIURL:  cfg.APIURL,
			}
		}
		api, err := dashboard.NewAPISource(dashboard.APIOptions{
			APIURL:   cfg.APIURL,
			Mode:     cfg.Mode,
			JarPath:  cfg.CookieJarPath,
			Timeout:  cfg.Timeouts.Load,
			Capturer: capturer,
			Logger:   log,
		})
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, api)
		return api, closeAll, nil

	default:
		return dashboard.NewDOMSource(session, cfg.BaseURL, cfg.Mode), closeAll, nil
	}
}
