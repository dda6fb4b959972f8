package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/etymologia/internal/logging"
	"github.com/ppiankov/etymologia/internal/pipeline"
	"github.com/ppiankov/etymologia/internal/store"
)

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich [epithets-file]",
	Short: "Look up the etymology of every word of every epithet",
	Long: `Enrich reads the "epithets" list, splits every epithet into normalized
Finnish words and queries the Kotus dictionary for each word that is not yet
recorded. The etymologies file is written after every epithet, so an
interrupted run resumes where it stopped.

Example:
  etymologia enrich epithets.json
  etymologia enrich --etymologies out/etymologies.json --overwrite
  etymologia enrich epithets.yaml --cache-dir ~/.etymologia/cache --rps 1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	f := enrichCmd.Flags()
	f.String("epithets", "", "input document with the \"epithets\" list (JSON or YAML)")
	f.String("etymologies", "", "etymologies file, read as cache and rewritten after every epithet")
	f.Bool("overwrite", false, "re-query words that are already recorded")
	f.Duration("timeout", 0, "per-request timeout")
	f.String("ua", "", "HTTP User-Agent")
	f.Bool("no-robots", false, "do not consult robots.txt")
	f.Float64("rps", 0, "maximum requests per second to the lexicon")
	f.Bool("no-cache", false, "disable the lexicon response cache")
	f.String("cache-dir", "", "persist lexicon responses under this directory")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("log-format", "", "log format (auto, text, json)")

	bind := map[string]string{
		"paths.epithets":                    "epithets",
		"paths.etymologies":                 "etymologies",
		"enrich.overwrite":                  "overwrite",
		"lexicon.timeout":                   "timeout",
		"lexicon.user_agent":                "ua",
		"rate_limiting.requests_per_second": "rps",
		"cache.dir":                         "cache-dir",
		"log.level":                         "log-level",
		"log.format":                        "log-format",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}
}

func runEnrich(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	applyNegatedFlags(cmd, v)

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Paths.Epithets = args[0]
	}

	logger, runID := logging.WithRun(logging.New(cfg.Log))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	epithets, err := pipeline.ReadEpithets(cfg.Paths.Epithets)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Paths.Etymologies, logger)
	if err != nil {
		return fmt.Errorf("open etymologies: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("release store lock", "error", err)
		}
	}()

	enricher, err := pipeline.New(cfg, st, logger)
	if err != nil {
		return err
	}

	logger.Info("run configured",
		"epithets_file", cfg.Paths.Epithets,
		"etymologies_file", cfg.Paths.Etymologies,
		"recorded_epithets", st.Len(),
		"cache", cfg.Cache.Enabled)

	summary, runErr := enricher.Run(ctx, epithets)
	writeSummary(cmd.OutOrStdout(), runID, len(epithets), summary)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("interrupted, progress saved to %s: %w", st.Path(), runErr)
		}
		return fmt.Errorf("enrichment failed, progress saved to %s: %w", st.Path(), runErr)
	}
	return nil
}

// applyNegatedFlags maps the --no-* switches onto their positive config keys
func applyNegatedFlags(cmd *cobra.Command, v *viper.Viper) {
	if noRobots, _ := cmd.Flags().GetBool("no-robots"); noRobots {
		v.Set("lexicon.respect_robots", false)
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		v.Set("cache.enabled", false)
	}
}

func writeSummary(w io.Writer, runID string, total int, s pipeline.Summary) {
	rows := [][]string{
		{"Run", runID},
		{"Epithets", fmt.Sprintf("%d / %d", s.Epithets, total)},
		{"Words", strconv.Itoa(s.Words)},
		{"Skipped (recorded)", strconv.Itoa(s.Skipped)},
		{"Found", strconv.Itoa(s.Found)},
		{"Absent", strconv.Itoa(s.Absent)},
		{"Anomalies", strconv.Itoa(s.Anomalies)},
		{"Cache hits", strconv.Itoa(s.CacheHits)},
		{"HTTP requests", strconv.FormatInt(s.Requests, 10)},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	}
	_, _ = fmt.Fprintln(w, renderTable([]string{"Summary", ""}, rows, []columnAlignment{alignLeft, alignRight}))
}
