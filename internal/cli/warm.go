package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"kbsearch/internal/adapter/vectorindex"
	"kbsearch/internal/usecase"
)

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Load the model and build the index",
	Long: `Scan the knowledge base, load the embedding model and embed every example.
With a cache_path configured, later runs reuse the stored model outputs.

Examples:
  kbsearch warm
  kbsearch warm --root ./knowledge_base`,
	Args: cobra.NoArgs,
	RunE: runWarm,
}

func init() {
	rootCmd.AddCommand(warmCmd)
}

func runWarm(cmd *cobra.Command, args []string) error {
	svc, err := openService(GetConfig())
	if err != nil {
		return err
	}
	defer svc.Close()

	start := time.Now()
	if err := warm(svc, cmd.ErrOrStderr()); err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	st := svc.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nIndex ready:\n")
	fmt.Fprintf(out, "  Examples:   %d\n", st.Items)
	fmt.Fprintf(out, "  Categories: %d\n", len(st.Categories))
	fmt.Fprintf(out, "  Model:      %s\n", st.Model)
	fmt.Fprintf(out, "  Took:       %s\n", formatDuration(time.Since(start)))
	return nil
}

// warm builds the index while drawing a progress bar on w.
func warm(svc *usecase.Service, w io.Writer) error {
	var (
		bar       *progressbar.ProgressBar
		barMu     sync.Mutex
		startTime time.Time
	)

	var progress vectorindex.ProgressFunc = func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(w)
				}),
			)
		}

		bar.Set(done)

		if done > 0 && done < total {
			rate := float64(done) / time.Since(startTime).Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	return svc.Warm(progress)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
