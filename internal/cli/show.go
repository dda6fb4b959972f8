package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/etymologia/internal/logging"
	"github.com/ppiankov/etymologia/internal/store"
)

var (
	showEtymologies string
	showEpithet     string
	showAbsentOnly  bool
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show recorded etymologies as a table",
	Long: `Show prints the contents of the etymologies file, one row per
(epithet, word) pair. Words without an etymology are listed with "-".

Example:
  etymologia show
  etymologia show --epithet "vanha akka"
  etymologia show --absent`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVar(&showEtymologies, "etymologies", "", "etymologies file (default: paths.etymologies from config)")
	showCmd.Flags().StringVar(&showEpithet, "epithet", "", "only show this epithet")
	showCmd.Flags().BoolVar(&showAbsentOnly, "absent", false, "only show words without an etymology")
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	path := cfg.Paths.Etymologies
	if showEtymologies != "" {
		path = showEtymologies
	}

	logger := logging.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
	st, err := store.Load(path, logger)
	if err != nil {
		return err
	}

	if showEpithet != "" && !containsEpithet(st, showEpithet) {
		return fmt.Errorf("epithet %q is not recorded in %s", showEpithet, path)
	}

	writeEtymologies(cmd.OutOrStdout(), st, showEpithet, showAbsentOnly, logger)
	return nil
}

func containsEpithet(st *store.Store, epithet string) bool {
	for _, e := range st.Epithets() {
		if e == epithet {
			return true
		}
	}
	return false
}

func writeEtymologies(w io.Writer, st *store.Store, only string, absentOnly bool, logger *slog.Logger) {
	var rows [][]string
	var found, absent int

	for _, epithet := range st.Epithets() {
		if only != "" && epithet != only {
			continue
		}

		entries := st.Get(epithet)
		words := make([]string, 0, len(entries))
		for word := range entries {
			words = append(words, word)
		}
		sort.Strings(words)

		for _, word := range words {
			etym := entries[word]
			if etym == nil {
				absent++
				rows = append(rows, []string{epithet, word, "-", ""})
				continue
			}
			found++
			if absentOnly {
				continue
			}
			rows = append(rows, []string{epithet, word, etym.Definition, etym.URL})
		}
	}

	logger.Debug("rendering etymologies", slog.Int("rows", len(rows)))

	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "No etymologies recorded.")
		return
	}
	_, _ = fmt.Fprintln(w, renderTable([]string{"Epithet", "Word", "Definition", "URL"}, rows, nil))
	_, _ = fmt.Fprintf(w, "%d words with etymology, %d without\n", found, absent)
}
