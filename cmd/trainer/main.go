package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/OldStager01/healthcare-records/internal/dataset"
	"github.com/OldStager01/healthcare-records/internal/logger"
	"github.com/OldStager01/healthcare-records/internal/prediction"
	"github.com/OldStager01/healthcare-records/internal/training"
)

var (
	logLevel string

	dataPath string
	outDir   string
	version  string
	trees    int
	maxDepth int
	seed     int64
	workers  int
)

var rootCmd = &cobra.Command{
	Use:   "trainer",
	Short: "Offline training for the stroke risk model",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Setup(logLevel, "development")
	},
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the classifier and write the serving artifacts",
	Long: `Reads the stroke dataset CSV, fits label encoders, a standard scaler and
a random forest, prints an evaluation report for a stratified 80/20 split and
writes stroke_model.json, scaler.json and label_encoders.json to --out.`,
	RunE: runTrain,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")

	defaults := training.DefaultConfig()
	trainCmd.Flags().StringVar(&dataPath, "data", "data/healthcare-dataset-stroke-data.csv", "dataset CSV")
	trainCmd.Flags().StringVar(&outDir, "out", "ml_models", "artifact directory")
	trainCmd.Flags().StringVar(&version, "version", "", "artifact version (default: UTC timestamp)")
	trainCmd.Flags().IntVar(&trees, "trees", defaults.Forest.NTrees, "number of trees")
	trainCmd.Flags().IntVar(&maxDepth, "max-depth", defaults.Forest.Tree.MaxDepth, "maximum tree depth")
	trainCmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "random seed")
	trainCmd.Flags().IntVar(&workers, "workers", 0, "trees grown in parallel (0 = GOMAXPROCS)")

	rootCmd.AddCommand(trainCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if version == "" {
		version = time.Now().UTC().Format("20060102T150405Z")
	}

	patients, err := dataset.LoadFile(dataPath)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	logger.Infof("Loaded %s patients from %s", humanize.Comma(int64(len(patients))), dataPath)

	cfg := training.DefaultConfig()
	cfg.Version = version
	cfg.Seed = seed
	cfg.Forest.Seed = seed
	cfg.Forest.NTrees = trees
	cfg.Forest.Tree.MaxDepth = maxDepth
	cfg.Forest.Workers = workers

	model, report, err := training.Train(ctx, patients, cfg)
	if err != nil {
		return err
	}

	paths := prediction.DefaultPaths(outDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}
	if err := prediction.SaveModel(paths, model); err != nil {
		return err
	}

	printReport(cmd, report)
	fmt.Fprintf(cmd.OutOrStdout(), "\nArtifacts written to %s (version %s)\n", outDir, report.Version)
	return nil
}

func printReport(cmd *cobra.Command, r *training.Report) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Samples:   %s (%s dropped, %s with stroke)\n",
		humanize.Comma(int64(r.Samples)), humanize.Comma(int64(r.Dropped)), humanize.Comma(int64(r.Positives)))
	fmt.Fprintf(out, "Split:     %s train / %s test\n",
		humanize.Comma(int64(r.TrainSize)), humanize.Comma(int64(r.TestSize)))
	fmt.Fprintf(out, "Trained in %s\n\n", r.Duration.Round(time.Millisecond))

	fmt.Fprintf(out, "ROC AUC:   %.4f\n", r.ROCAUC)
	fmt.Fprintf(out, "Precision: %.4f  Recall: %.4f  F1: %.4f  Accuracy: %.4f\n",
		r.Confusion.Precision(), r.Confusion.Recall(), r.Confusion.F1(), r.Confusion.Accuracy())
	fmt.Fprintln(out, "Confusion matrix (rows actual, columns predicted):")
	fmt.Fprintf(out, "  %6d %6d\n  %6d %6d\n\n",
		r.Confusion[0][0], r.Confusion[0][1], r.Confusion[1][0], r.Confusion[1][1])

	fmt.Fprintln(out, "Top features:")
	for _, f := range r.TopFeatures {
		fmt.Fprintf(out, "  %-18s %.4f\n", f.Feature, f.Importance)
	}

	total := float64(r.Stratification.Total())
	if total == 0 {
		return
	}
	fmt.Fprintln(out, "\nRisk stratification:")
	for _, row := range []struct {
		name  string
		count int
	}{
		{prediction.CategoryLow.Label(), r.Stratification.Low},
		{prediction.CategoryMedium.Label(), r.Stratification.Medium},
		{prediction.CategoryHigh.Label(), r.Stratification.High},
	} {
		fmt.Fprintf(out, "  %-12s %8s  %5.1f%%\n", row.name, humanize.Comma(int64(row.count)), 100*float64(row.count)/total)
	}
}
