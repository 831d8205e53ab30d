// Package pipeline provides the "xlkit run" command for YAML batch scripts.
package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/klytics/xlkit/cmd/cmdutil"
	"github.com/klytics/xlkit/internal/output"
	pipelinepkg "github.com/klytics/xlkit/internal/pipeline"
	"github.com/klytics/xlkit/internal/pipeline/actions"
	"github.com/klytics/xlkit/internal/progress"
)

type jsonStep struct {
	StepID  string `json:"stepId"`
	Op      string `json:"op,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type jsonRun struct {
	Pipeline string     `json:"pipeline,omitempty"`
	Workbook string     `json:"workbook"`
	DryRun   bool       `json:"dryRun"`
	Saved    bool       `json:"saved"`
	Steps    []jsonStep `json:"steps"`
}

// NewCommand returns the run command.
func NewCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Apply a YAML script of workbook changes in one save",
		Long: `Runs the steps of a YAML script against one workbook and saves it once
at the end. A failing step stops the run and nothing is saved, unless the
step sets on_failure: skip.

The workbook comes from --file or, failing that, the script's "workbook"
key, resolved relative to the script.

Example script:

  workbook: report.xlsx
  steps:
    - action: sheet.create
      sheet: Data
    - action: cell.update
      sheet: Data
      cell: B2
      value: 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipelinepkg.LoadPipeline(args[0])
			if err != nil {
				return err
			}

			path, _ := cmd.Flags().GetString("file")
			if path == "" && p.Workbook != "" {
				path = p.Workbook
				if !filepath.IsAbs(path) {
					path = filepath.Join(filepath.Dir(args[0]), path)
				}
			}
			if path == "" {
				return fmt.Errorf("no workbook — set \"workbook\" in %s or pass --file", args[0])
			}

			h, err := cmdutil.HandleFor(cmd, path)
			if err != nil {
				return err
			}

			executor := pipelinepkg.NewExecutor(cmdutil.Logger(cmd))
			executor.SetDryRun(dryRun)
			actions.RegisterAll(executor)

			bar := progress.New(cmd.ErrOrStderr(), filepath.Base(args[0]), len(p.Steps))
			executor.OnStep(func(r pipelinepkg.StepResult) {
				bar.Increment(r.StepID)
			})

			results, execErr := executor.Apply(cmd.Context(), h, p)
			bar.Finish()

			w := cmdutil.Writer(cmd)
			if w.Format() == output.FormatJSON {
				if execErr != nil {
					return execErr
				}
				out := jsonRun{
					Pipeline: p.Name,
					Workbook: h.Path(),
					DryRun:   dryRun,
					Saved:    !dryRun,
					Steps:    make([]jsonStep, len(results)),
				}
				for i, r := range results {
					out.Steps[i] = jsonStep{StepID: r.StepID, Op: r.Result.Op, Message: r.Result.Message}
					if r.Result.Outcome != 0 {
						out.Steps[i].Outcome = r.Result.Outcome.String()
					}
					if r.Error != nil {
						out.Steps[i].Error = r.Error.Error()
					}
				}
				return output.PrintJSON(w.Dest(), cmdutil.Name(cmd), out)
			}

			for _, r := range results {
				switch {
				case r.Error != nil:
					fmt.Fprintf(cmd.ErrOrStderr(), "Step %s: FAILED — %s\n", r.StepID, r.Error)
				default:
					fmt.Fprintf(w.Dest(), "Step %s: %s — %s\n", r.StepID, r.Result.Outcome, r.Result.Message)
				}
			}
			if execErr != nil {
				return execErr
			}

			if dryRun {
				return w.WriteLn(fmt.Sprintf("Dry run: %s not saved", h.Path()))
			}
			return w.WriteLn(fmt.Sprintf("Saved %s (%d steps)", h.Path(), len(results)))
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the steps without saving the workbook")

	return cmd
}
