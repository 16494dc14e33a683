// ABOUTME: Eval command scores answers and retrieval against a case file
// ABOUTME: Reports faithfulness, context recall, and coverage, with an optional threshold sweep
package commands

import (
	"fmt"
	"strconv"

	"github.com/harper/content-assistant/internal/eval"
	"github.com/harper/content-assistant/internal/logging"
	"github.com/spf13/cobra"
)

// NewEvalCmd creates the eval command
func NewEvalCmd() *cobra.Command {
	var (
		output    string
		sweep     string
		passScore float64
	)

	cmd := &cobra.Command{
		Use:   "eval <cases.yaml>",
		Short: "Evaluate answers against expected content",
		Long: `Run every case in a YAML file through the full pipeline and score it.

Each case lists phrases the answer must contain, phrases it must not,
passages retrieval should find, and whether the library covers the
question at all. Use --sweep to compare context recall across
similarity thresholds without calling the chat model.`,
		Example: `  assistant eval cases.yaml --output results.json
  assistant eval cases.yaml --sweep 0.3,0.4,0.5,0.6`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cases, err := eval.LoadCases(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			runner := eval.NewRunner(a.pipeline, a.embedder, a.engine, eval.RunnerConfig{
				Limit:     cfg.SearchLimit,
				Sentinel:  cfg.Policy().Sentinel,
				PassScore: passScore,
				Logger:    logging.New("eval"),
			})
			out := cmd.OutOrStdout()

			if sweep != "" {
				thresholds, err := parseThresholds(sweep)
				if err != nil {
					return err
				}
				points, err := runner.Sweep(cmd.Context(), cases, thresholds)
				if err != nil {
					return err
				}
				if resolveFormat(format, out) == formatJSON {
					return printJSON(out, points)
				}
				rows := make([][]string, 0, len(points))
				for _, p := range points {
					rows = append(rows, []string{
						strconv.FormatFloat(p.Threshold, 'f', 2, 64),
						strconv.FormatFloat(p.MeanRecall, 'f', 3, 64),
						strconv.FormatFloat(p.MeanRetrieved, 'f', 1, 64),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Threshold", "Recall", "Retrieved"}, rows, 0, 1, 2))
				return nil
			}

			results, err := runner.RunAll(cmd.Context(), cases)
			if err != nil {
				return err
			}
			summary := eval.Summarize(results)

			if output != "" {
				if err := eval.ExportResults(summary, output); err != nil {
					return err
				}
			}

			if resolveFormat(format, out) == formatJSON {
				return printJSON(out, summary)
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{
					r.CaseID,
					truncate(r.Question, 40),
					strconv.FormatFloat(r.FaithfulnessScore, 'f', 2, 64),
					strconv.FormatFloat(r.ContextRecallScore, 'f', 2, 64),
					strconv.FormatBool(r.Covered),
					r.Status,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Case", "Question", "Faithfulness", "Recall", "Covered", "Status"},
				rows, 2, 3))
			fmt.Fprintf(out, "%d/%d passed (faithfulness %.2f, recall %.2f)\n",
				summary.Passed, summary.TotalCases, summary.MeanFaithfulness, summary.MeanRecall)
			if output != "" {
				fmt.Fprintf(out, "Results written to %s\n", output)
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d case(s) failed", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write full results as JSON to this file")
	cmd.Flags().StringVar(&sweep, "sweep", "", "Comma separated thresholds to compare retrieval recall")
	cmd.Flags().Float64Var(&passScore, "pass-score", eval.DefaultPassScore, "Minimum overall score for a case to pass")
	return cmd
}
