// Command predict runs the yield predictor from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"cropyield/config"
	"cropyield/ml"
	"cropyield/presentation"
)

const exitInputError = 2

type options struct {
	configPath   string
	pipelinePath string
	catalogPath  string
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode returns 2 for caller errors and 1 for everything else.
func exitCode(err error) int {
	switch ml.CodeOf(err) {
	case ml.CodeInvalidCategory, ml.CodeInvalidMagnitude:
		return exitInputError
	}
	return 1
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "predict",
		Short:         "Predict crop yield from a trained pipeline artifact",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "config file providing artifact defaults")
	root.PersistentFlags().StringVar(&opts.pipelinePath, "pipeline", "", "pipeline artifact (default from config)")
	root.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "reference table (default from config)")

	root.AddCommand(newRunCmd(opts), newCatalogCmd(opts), newInspectCmd(opts))
	return root
}

// resolve fills unset artifact paths from the config file and environment.
func (o *options) resolve() error {
	if o.pipelinePath != "" && o.catalogPath != "" {
		return nil
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.pipelinePath == "" {
		o.pipelinePath = cfg.Artifacts.PipelinePath
	}
	if o.catalogPath == "" {
		o.catalogPath = cfg.Artifacts.CatalogPath
	}
	return nil
}

func (o *options) loadPredictor(ctx context.Context) (*ml.Predictor, error) {
	if err := o.resolve(); err != nil {
		return nil, err
	}
	return ml.LoadPredictor(ctx, o.pipelinePath, o.catalogPath)
}

func newRunCmd(opts *options) *cobra.Command {
	var req ml.Request
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Predict the yield for one set of inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			predictor, err := opts.loadPredictor(cmd.Context())
			if err != nil {
				return err
			}
			result, err := predictor.Predict(req)
			if err != nil {
				return err
			}

			tier := presentation.Classify(result.Yield)
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"yield": result.Yield,
					"raw":   result.Raw,
					"tier":  tier,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Predicted crop yield = %s Tons/Hectares\n", presentation.FormatYield(presentation.Negotiate(""), result.Yield))
			msg := presentation.TierMessage(tier)
			fmt.Fprintln(cmd.OutOrStdout(), msg.En)
			fmt.Fprintln(cmd.OutOrStdout(), msg.Hi)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Crop, "crop", "", "crop name")
	f.StringVar(&req.Season, "season", "", "season name")
	f.StringVar(&req.State, "state", "", "state name")
	f.Float64Var(&req.Area, "area", 0, "area in hectares")
	f.Float64Var(&req.Fertilizer, "fertilizer", 0, "fertilizer usage in kg")
	f.Float64Var(&req.Pesticide, "pesticide", 0, "pesticide usage in kg")
	f.Float64Var(&req.AnnualRainfall, "rainfall", 0, "annual rainfall in mm")
	f.Float64Var(&req.Production, "production", 0, "production in tons")
	f.BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("crop")
	_ = cmd.MarkFlagRequired("season")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

func newCatalogCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the crops, seasons and states the model accepts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(); err != nil {
				return err
			}
			catalog, err := ml.LoadCatalog(opts.catalogPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Crops:   %s\n", strings.Join(catalog.Crops(), ", "))
			fmt.Fprintf(out, "Seasons: %s\n", strings.Join(catalog.Seasons(), ", "))
			fmt.Fprintf(out, "States:  %s\n", strings.Join(catalog.States(), ", "))
			return nil
		},
	}
}

func newInspectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print pipeline artifact metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			predictor, err := opts.loadPredictor(cmd.Context())
			if err != nil {
				return err
			}
			meta := predictor.Pipeline().Metadata()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(meta); err != nil {
				return err
			}
			if predictor.Pipeline().TargetDefaulted() {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: target_transform not declared, assuming log")
			}
			return nil
		},
	}
}
