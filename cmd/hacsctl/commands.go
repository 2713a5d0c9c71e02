package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ZanzyTHEbar/hacs-api/internal/analysis"
	"github.com/ZanzyTHEbar/hacs-api/internal/config"
	"github.com/ZanzyTHEbar/hacs-api/internal/document"
	"github.com/ZanzyTHEbar/hacs-api/internal/features"
	"github.com/ZanzyTHEbar/hacs-api/internal/model"
	"github.com/ZanzyTHEbar/hacs-api/internal/monitoring"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	modelDir   string
	topN       int
	logLevel   string
}

// featureValue is one entry of the features command output
type featureValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "hacsctl",
		Short: "Classify asteroid documents offline",
		Long: `hacsctl runs the same feature extraction, classification and explanation
pipeline as the API server against a local model directory.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: $HACS_CONFIG)")
	root.PersistentFlags().StringVar(&opts.modelDir, "model-dir", "", "model artifact directory (overrides model.dir)")
	root.PersistentFlags().IntVar(&opts.topN, "top", 0, "number of influential features to report (overrides explain.top_n)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "log level written to stderr")

	root.AddCommand(newPredictCmd(opts))
	root.AddCommand(newFeaturesCmd(opts))
	return root
}

// loadConfig merges the config file, environment and command line flags
func (o *rootOptions) loadConfig(errOut io.Writer) (*config.Config, error) {
	slog.SetDefault(slog.New(monitoring.NewHandler(errOut, o.logLevel, "text")))

	path := o.configFile
	if path == "" {
		path = os.Getenv(config.EnvPrefix + "_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if o.modelDir != "" {
		cfg.Model.Dir = o.modelDir
	}
	if o.topN > 0 {
		cfg.Explain.TopN = o.topN
	}
	return cfg, cfg.Validate()
}

func newPredictCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "predict <file.yaml>",
		Short: "Classify a YAML asteroid document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			data, err := readDocument(args[0])
			if err != nil {
				return err
			}

			analyzer, err := openAnalyzer(cfg)
			if err != nil {
				return err
			}
			pred, err := analyzer.AnalyzeDocument(cmd.Context(), data)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), pred.Response())
		},
	}
}

func newFeaturesCmd(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "features <file.yaml>",
		Short: "Print the feature row derived from a YAML asteroid document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			data, err := readDocument(args[0])
			if err != nil {
				return err
			}
			raw, err := document.Parse(data)
			if err != nil {
				return err
			}

			var row *features.FeatureRow
			if all {
				row, err = features.BuildRow(raw)
			} else {
				var analyzer *analysis.Analyzer
				if analyzer, err = openAnalyzer(cfg); err != nil {
					return err
				}
				row, err = analyzer.Features(raw)
			}
			if err != nil {
				return err
			}

			out := make([]featureValue, 0, row.Len())
			values := row.Values()
			for i, name := range row.Names() {
				out = append(out, featureValue{Name: name, Value: values[i]})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "print every derived feature without matching the model's feature list")
	return cmd
}

// openAnalyzer fails fast on an unusable model directory instead of running degraded
func openAnalyzer(cfg *config.Config) (*analysis.Analyzer, error) {
	store := model.NewStore(cfg.Model.Dir)
	if !store.Ready() {
		return nil, fmt.Errorf("model directory %s is unusable: %w", store.Dir(), store.LoadErr())
	}
	return analysis.NewAnalyzer(store, cfg.Explain.TopN), nil
}

func readDocument(path string) ([]byte, error) {
	if !document.HasYAMLExtension(path) {
		return nil, fmt.Errorf("only YAML files are accepted: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}
