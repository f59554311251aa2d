package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyuri/kapconv/pkg/kap"
	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFile string
	log        = logrus.New()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kapconv",
	Short: "Inspect and rewrite BSB/KAP raster chart files",
	Long: `kapconv is a tool for working with BSB/KAP raster navigational charts.

It can show header metadata, validate files, dump color palettes and
rewrite charts, keeping unknown header records intact.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(viper.GetString("log-level"))
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		log.SetLevel(level)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: $HOME/.kapconv.yaml)")
	rootCmd.PersistentFlags().Int("workers", 0, "Raster worker goroutines (default: one per CPU)")
	rootCmd.PersistentFlags().Int("codepage", 28591, "Header text code page: 28591, 1252, 1250, 437 or 65001")
	rootCmd.PersistentFlags().String("log-level", "warning", "Log level: debug, info, warning, error")

	for _, key := range []string{"workers", "codepage", "log-level"} {
		viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
	}

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(recodeCmd)
	rootCmd.AddCommand(paletteCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads the config file and KAPCONV_* environment variables
func initConfig() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			log.WithError(err).Warn("cannot locate home directory")
		} else {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".kapconv")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("kapconv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			log.WithError(err).Warn("cannot read config file")
		}
		return
	}
	log.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
}

// codecOptions collects codec options from the flags, config file and environment
func codecOptions() kap.Options {
	return kap.Options{
		Workers:  viper.GetInt("workers"),
		CodePage: viper.GetInt("codepage"),
		Logger:   log,
	}
}

// loadChart reads and decodes a chart file
func loadChart(path string) (*kap.Chart, int64, error) {
	codec, err := kap.NewCodec(codecOptions())
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat input file: %w", err)
	}

	chart, err := codec.Read(f)
	if err != nil {
		return nil, 0, fmt.Errorf("parse chart %s: %w", filepath.Base(path), err)
	}
	return chart, stat.Size(), nil
}

// validate command
var validateCmd = &cobra.Command{
	Use:   "validate <input.kap>...",
	Short: "Validate chart files",
	Long: `Decode every given chart and report whether it is well formed.

The header, every raster row and every palette lookup are checked.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("palette", "", "Also resolve every pixel through this palette (e.g. DAY)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	kind, _ := cmd.Flags().GetString("palette")

	failed := 0
	for _, path := range args {
		// Decode chart; optionally resolve every pixel
		chart, _, err := loadChart(path)
		if err == nil && kind != "" {
			_, err = chart.Project(kap.PaletteKind(strings.ToUpper(kind)))
		}
		if err != nil {
			failed++
			fmt.Printf("✗ %s: %v\n", path, err)
			continue
		}
		fmt.Printf("✓ %s: %dx%d, depth %d\n", path, chart.Width(), chart.Height(), chart.Depth())
	}

	// Summarize failures
	if failed > 0 {
		return fmt.Errorf("validation failed for %d of %d files", failed, len(args))
	}
	return nil
}

// recode command
var recodeCmd = &cobra.Command{
	Use:   "recode <input.kap>",
	Short: "Decode and re-encode a chart",
	Long: `Decode a chart and write it back out.

Unknown header records, comments and field order are preserved. The header
text can be converted to another code page with --to-codepage, and the chart
name can be changed with --name.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecode,
}

func init() {
	recodeCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	recodeCmd.Flags().String("name", "", "Replace the chart name (BSB NA)")
	recodeCmd.Flags().Int("to-codepage", 0, "Code page for the output header (default: same as input)")
}

func runRecode(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	name, _ := cmd.Flags().GetString("name")
	toCodePage, _ := cmd.Flags().GetInt("to-codepage")

	// Parse input chart
	chart, _, err := loadChart(args[0])
	if err != nil {
		return err
	}

	// Override header fields if specified
	if name != "" {
		chart.Header().General.Name = name
	}

	// Output codec; keep the input code page unless another is requested
	opts := codecOptions()
	if toCodePage != 0 {
		opts.CodePage = toCodePage
	}
	codec, err := kap.NewCodec(opts)
	if err != nil {
		return err
	}

	// Determine output writer
	var output *os.File
	if outputPath == "" {
		output = os.Stdout
	} else {
		output, err = os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer output.Close()
	}

	// Write chart
	n, err := codec.WriteTo(output, chart)
	if err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	log.WithFields(logrus.Fields{
		"output": outputPath,
		"bytes":  n,
	}).Info("chart written")
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kapconv version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
	},
}
