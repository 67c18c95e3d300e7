package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/papergen/internal/bank"
	"github.com/pavelanni/papergen/internal/blueprint"
	"github.com/pavelanni/papergen/internal/config"
	"github.com/pavelanni/papergen/internal/export"
	"github.com/pavelanni/papergen/internal/generator"
	"github.com/pavelanni/papergen/internal/handler"
	"github.com/pavelanni/papergen/internal/llm"
	"github.com/pavelanni/papergen/internal/model"
	"github.com/pavelanni/papergen/internal/paper"
	"github.com/pavelanni/papergen/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "papergen",
		Short: "MCQ exam paper generator powered by local LLMs",
	}
	root.AddCommand(serveCmd(), buildCmd(), generateCmd(), exportCmd(), bankCmd())
	return root
}

func addCommonFlags(f *pflag.FlagSet) {
	f.String("db", "papergen.db", "SQLite database path")
	f.String("bank-state", "question_bank_state.json", "Question bank state file")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func addModelFlags(f *pflag.FlagSet) {
	d := config.DefaultLLM()
	dv := config.DefaultVLM()
	dg := config.DefaultGeneration()

	f.String("llm-url", d.BaseURL, "OpenAI-compatible API base URL")
	f.String("llm-key", d.APIKey, "API key for LLM")
	f.String("llm-model", d.Model, "LLM model name")
	f.Float64("temperature", float64(d.Temperature), "Sampling temperature")
	f.Int("max-tokens", d.MaxTokens, "Maximum tokens per completion")
	f.Duration("timeout", d.Timeout, "LLM request timeout")
	f.Int("max-retries", d.MaxRetries, "Transport-level retries per request")
	f.Duration("retry-delay", d.RetryDelay, "Delay between transport retries")

	f.String("vlm-url", dv.BaseURL, "Vision model API base URL (Ollama native)")
	f.String("vlm-model", dv.Model, "Vision model name")
	f.Duration("vlm-timeout", dv.Timeout, "Vision model request timeout")

	f.Int("min-explanation", dg.MinExplanationLength, "Minimum explanation length in characters")
	f.Bool("require-references", dg.RequireReferences, "Reject questions without references")
	f.Int("min-references", dg.MinReferences, "Minimum number of references per question")
	f.Int("max-validation-retries", dg.MaxValidationRetries, "Extra generation rounds per requested question")
	f.Bool("few-shot", dg.UseFewShot, "Include few-shot examples in prompts")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the paper generation HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8000", "HTTP listen address")
	addCommonFlags(f)
	addModelFlags(f)
	return cmd
}

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a paper from a YAML blueprint",
		RunE:  runBuild,
	}
	f := cmd.Flags()
	f.StringP("blueprint", "b", "", "Path to blueprint YAML (required)")
	f.StringP("output", "o", "", "Output file (.csv or .xlsx; defaults to <paper-id>.csv)")
	addCommonFlags(f)
	addModelFlags(f)
	_ = cmd.MarkFlagRequired("blueprint")
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate questions for a single topic and print them as JSON",
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	f.String("subject", "", "Subject name (required)")
	f.String("topic", "", "Main topic (required)")
	f.String("subtopic", "", "Subtopic")
	f.StringP("difficulty", "d", "Medium", "Difficulty (easy, medium, hard)")
	f.IntP("count", "n", 1, "Number of questions")
	addCommonFlags(f)
	addModelFlags(f)
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a stored paper to CSV or Excel",
		RunE:  runExportCmd,
	}
	f := cmd.Flags()
	f.String("paper-id", "", "Paper identifier (required)")
	f.StringP("output", "o", "", "Output file (.csv or .xlsx; defaults to <paper-id>.csv)")
	addCommonFlags(f)
	_ = cmd.MarkFlagRequired("paper-id")
	return cmd
}

func bankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Show question bank state",
		RunE:  runBankShow,
	}
	addCommonFlags(cmd.Flags())

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Reset the question bank state",
		RunE:  runBankClear,
	}
	addCommonFlags(clear.Flags())
	cmd.AddCommand(clear)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PAPERGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("papergen")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/papergen")
	v.AddConfigPath("/etc/papergen")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func llmConfig(v *viper.Viper) config.LLM {
	cfg := config.DefaultLLM()
	cfg.BaseURL = v.GetString("llm-url")
	cfg.APIKey = v.GetString("llm-key")
	cfg.Model = v.GetString("llm-model")
	cfg.Temperature = float32(v.GetFloat64("temperature"))
	cfg.MaxTokens = v.GetInt("max-tokens")
	cfg.Timeout = v.GetDuration("timeout")
	cfg.MaxRetries = v.GetInt("max-retries")
	cfg.RetryDelay = v.GetDuration("retry-delay")
	return cfg
}

func vlmConfig(v *viper.Viper) config.VLM {
	cfg := config.DefaultVLM()
	cfg.BaseURL = v.GetString("vlm-url")
	cfg.Model = v.GetString("vlm-model")
	cfg.Temperature = float32(v.GetFloat64("temperature"))
	cfg.MaxTokens = v.GetInt("max-tokens")
	cfg.Timeout = v.GetDuration("vlm-timeout")
	cfg.MaxRetries = v.GetInt("max-retries")
	return cfg
}

func generationConfig(v *viper.Viper) config.Generation {
	cfg := config.DefaultGeneration()
	cfg.MinExplanationLength = v.GetInt("min-explanation")
	cfg.RequireReferences = v.GetBool("require-references")
	cfg.MinReferences = v.GetInt("min-references")
	cfg.MaxValidationRetries = v.GetInt("max-validation-retries")
	cfg.UseFewShot = v.GetBool("few-shot")
	return cfg
}

// newBuilder wires the generation pipeline from CLI configuration.
func newBuilder(v *viper.Viper) (*paper.Builder, *bank.Bank, error) {
	qbank, err := bank.Open(v.GetString("bank-state"))
	if err != nil {
		return nil, nil, fmt.Errorf("open question bank: %w", err)
	}

	genCfg := generationConfig(v)
	gen := generator.New(llm.New(llmConfig(v)), genCfg)
	multimodal := generator.NewMultimodal(llm.NewVLM(vlmConfig(v)), genCfg)
	return paper.NewBuilder(gen, multimodal, qbank), qbank, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	builder, _, err := newBuilder(v)
	if err != nil {
		return err
	}

	llmClient := llm.New(llmConfig(v))
	if err := llmClient.Ping(context.Background()); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))

	// A dead vision endpoint is not fatal; generation falls back to text.
	if err := llm.NewVLM(vlmConfig(v)).Ping(context.Background()); err != nil {
		slog.Warn("VLM endpoint unavailable, diagram questions disabled", "error", err)
	} else {
		slog.Info("VLM endpoint OK", "url", v.GetString("vlm-url"), "model", v.GetString("vlm-model"))
	}

	h := handler.New(db, builder)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"vlm_model", v.GetString("vlm-model"),
		"db", v.GetString("db"),
	)
	return http.ListenAndServe(addr, r)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	cfg, sections, err := blueprint.Load(v.GetString("blueprint"))
	if err != nil {
		return err
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	builder, _, err := newBuilder(v)
	if err != nil {
		return err
	}

	start := time.Now()
	p, err := builder.BuildPaper(cmd.Context(), cfg, sections, nil)
	if err != nil {
		return fmt.Errorf("build paper: %w", err)
	}
	slog.Info("paper built", "paper_id", p.ID, "questions", len(p.Questions), "elapsed", time.Since(start))

	if err := db.InsertPaper(p); err != nil {
		return fmt.Errorf("store paper: %w", err)
	}

	out := v.GetString("output")
	if out == "" {
		out = p.ID + ".csv"
	}
	if err := writeOutput(p, out); err != nil {
		return err
	}
	fmt.Printf("Paper %s written to %s (%d questions)\n", p.ID, out, len(p.Questions))
	return nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	difficulty, err := model.ParseDifficulty(v.GetString("difficulty"))
	if err != nil {
		return err
	}

	gen := generator.New(llm.New(llmConfig(v)), generationConfig(v))
	questions, err := gen.Generate(cmd.Context(), generator.Request{
		Subject:    v.GetString("subject"),
		MainTopic:  v.GetString("topic"),
		Subtopic:   v.GetString("subtopic"),
		Difficulty: difficulty,
		Count:      v.GetInt("count"),
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(questions)
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	id := v.GetString("paper-id")
	p, err := db.GetPaper(id)
	if err != nil {
		return fmt.Errorf("load paper %s: %w", id, err)
	}

	out := v.GetString("output")
	if out == "" {
		out = id + ".csv"
	}
	if err := writeOutput(p, out); err != nil {
		return err
	}
	fmt.Printf("Paper %s written to %s (%d questions)\n", id, out, len(p.Questions))
	return nil
}

// writeOutput picks the export format from the file extension.
func writeOutput(p *model.Paper, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return export.ExportExcel(p, path)
	case ".csv":
		return export.ExportCSV(p, path)
	default:
		return fmt.Errorf("unsupported output format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

func runBankShow(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	qbank, err := bank.Open(v.GetString("bank-state"))
	if err != nil {
		return err
	}
	fmt.Printf("Bank state: %s\nUsed question IDs: %d\n", v.GetString("bank-state"), qbank.Size())
	return nil
}

func runBankClear(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	qbank, err := bank.Open(v.GetString("bank-state"))
	if err != nil {
		return err
	}
	before := qbank.Size()
	if err := qbank.Clear(); err != nil {
		return err
	}
	fmt.Printf("Cleared %d question IDs from %s\n", before, v.GetString("bank-state"))
	return nil
}
