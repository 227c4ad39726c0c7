package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"despatch-advice-service/internal/config"
	"despatch-advice-service/internal/logging"
	"despatch-advice-service/internal/report"
	"despatch-advice-service/internal/service"
	"despatch-advice-service/internal/ubl"
)

func newRootCmd() *cobra.Command {
	var log *logrus.Logger

	root := &cobra.Command{
		Use:           "despatchctl",
		Short:         "Work with UBL Order and DespatchAdvice documents from the command line.",
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			log = logging.New(cfg.LogLevel, cfg.LogFormat)
			log.SetOutput(cmd.ErrOrStderr())
		},
	}

	root.AddCommand(newParseCmd(), newGenerateCmd(), newRenderCmd(func() *logrus.Logger { return log }))
	return root
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <order.xml>",
		Short: "Print the fields extracted from a UBL Order as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			order, err := ubl.ExtractOrder(string(raw))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(order)
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var overridesFile string

	cmd := &cobra.Command{
		Use:   "generate <order.xml>",
		Short: "Print the DespatchAdvice generated for a UBL Order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			order, err := ubl.ExtractOrder(string(raw))
			if err != nil {
				return err
			}

			inputs, err := readOverrides(overridesFile)
			if err != nil {
				return err
			}
			// Mismo allow-list que la API
			ov, err := service.ValidateOverrides(inputs)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), ubl.SynthesizeDespatchAdvice(*order, ov))
			return err
		},
	}
	cmd.Flags().StringVar(&overridesFile, "overrides", "", "YAML file with userInputs (deliveredQuantity, backorderReason, ...)")
	return cmd
}

func newRenderCmd(logger func() *logrus.Logger) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "render <despatch.xml>",
		Short: "Render a stored DespatchAdvice as a PDF report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			pdf, err := report.NewRenderer().RenderXML(string(raw))
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, pdf, 0o644); err != nil {
				return err
			}
			if log := logger(); log != nil {
				log.WithField("output", output).Info("report written")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "despatch-advice.pdf", "PDF output path")
	return cmd
}

// readOverrides lee un mapa plano clave: valor. Sin fichero no hay overrides.
func readOverrides(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var inputs map[string]string
	if err := yaml.Unmarshal(b, &inputs); err != nil {
		return nil, fmt.Errorf("overrides %s: %w", path, err)
	}
	return inputs, nil
}
