package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"chargecast/internal/artifact"
	"chargecast/internal/engine"
	"chargecast/internal/worker"
)

var (
	predictInput string
	predictDemo  bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Estimate charges for one request without a Temporal server",
	Long: `Reads an estimate request as JSON from a file (or stdin with "-"),
runs the full pipeline in process, and prints the response envelope.

Example request:
  {"age": 42, "sex": "female", "bmi": 27.5, "children": 2, "smoker": "no", "region": "southeast"}`,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVarP(&predictInput, "file", "f", "-", "request JSON file, - for stdin")
	predictCmd.Flags().BoolVar(&predictDemo, "demo", false, "use the built-in demo artifact")
}

func runPredict(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	var art *artifact.Artifact
	if predictDemo || cfg.ArtifactPath == "" {
		art = artifact.Fixture()
	} else {
		art, err = artifact.Load(cfg.ArtifactPath)
		if err != nil {
			return err
		}
	}

	data, err := readRequest(predictInput)
	if err != nil {
		return err
	}

	eng, err := engine.New(art, engine.Options{
		TopK:      cfg.Explain.TopK,
		LLMClient: worker.InitializeLLMClient(cfg.LLM, logger),
		LLMConfig: cfg.LLM,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	envelope, err := eng.EstimateJSON(cmd.Context(), data)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func readRequest(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
