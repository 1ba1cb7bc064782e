package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ZaguanLabs/pagetl"
	"github.com/ZaguanLabs/pagetl/processor"
)

func newTranslateCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate [FILE]",
		Short: "Translate an HTML file (stdin when FILE is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, v, args)
		},
	}

	f := cmd.Flags()
	f.String("lang", "", "Target language code (e.g., es_ES, ja_JP)")
	f.StringP("output", "o", "", "Output file (default: stdout)")
	f.Bool("dry-run", false, "Show what would be translated without calling the backend")
	f.Bool("json", false, "Output result as JSON")
	f.String("diff", "", "Compare with a previous version and show changes")
	f.Bool("update", false, "Only report new/changed content (requires --diff)")
	f.Bool("quiet", false, "Suppress progress output")
	return cmd
}

func runTranslate(cmd *cobra.Command, v *viper.Viper, args []string) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	if cfg.TargetLang == "" {
		return errors.New("--lang is required")
	}
	logger := newLogger(v, stderr)
	jsonOut := v.GetBool("json")

	// scanning needs no backend
	opts := append(cfg.Options(nil, logger), pagetl.WithProcessor(processor.NewHTMLProcessor()))
	scanner := pagetl.NewTranslator(cfg.TargetLang, nil, opts...)

	diffFile := v.GetString("diff")
	dryRun := v.GetBool("dry-run")

	var translator *pagetl.Translator
	closeCache := func() error { return nil }
	if diffFile == "" && !dryRun {
		p, err := cfg.NewProvider(logger)
		if err != nil {
			return err
		}
		tm, closeFn, err := cfg.NewCache()
		if err != nil {
			return fmt.Errorf("opening translation memory: %w", err)
		}
		closeCache = closeFn
		opts = append(cfg.Options(tm, logger), pagetl.WithProcessor(processor.NewHTMLProcessor()))
		translator = pagetl.NewTranslator(cfg.TargetLang, p, opts...)
	}
	defer closeCache()

	input, inputName, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	switch {
	case diffFile != "":
		return runDiff(scanner, input, diffFile, inputName, cfg.TargetLang, stdout, jsonOut, v.GetBool("update"))
	case dryRun:
		return runDryRun(scanner, input, inputName, cfg.TargetLang, stdout, jsonOut)
	}

	quiet := v.GetBool("quiet")
	if !quiet {
		fmt.Fprintf(stderr, "Translating %s to %s...\n", inputName, cfg.TargetLang)
	}

	start := time.Now()
	result, err := translator.ProcessHTML(cmd.Context(), input)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	elapsed := time.Since(start)

	var out io.Writer = stdout
	if path := v.GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if jsonOut {
		return outputJSON(out, result, elapsed)
	}

	fmt.Fprint(out, result.Content)

	if !quiet {
		fmt.Fprintf(stderr, "\nDone in %v\n", elapsed.Round(time.Millisecond))
		fmt.Fprintf(stderr, "  Items found:  %d\n", result.TotalNodes)
		fmt.Fprintf(stderr, "  Translated:   %d\n", result.TranslatedCount)
		fmt.Fprintf(stderr, "  From cache:   %d\n", result.CachedCount)
		if result.FailedCount > 0 {
			fmt.Fprintf(stderr, "  Failed:       %d\n", result.FailedCount)
		}
	}
	return nil
}

func readInput(stdin io.Reader, args []string) (string, string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "stdin", nil
	}
	data, err := os.ReadFile(args[0]) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return "", "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), filepath.Base(args[0]), nil
}

// runDryRun shows what would be translated without calling the backend.
func runDryRun(tr *pagetl.Translator, input, inputName, targetLang string, stdout io.Writer, jsonOut bool) error {
	items, err := tr.DryRun(input, "html")
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	if jsonOut {
		type dryRunOutput struct {
			InputFile  string   `json:"input_file"`
			TargetLang string   `json:"target_lang"`
			NodeCount  int      `json:"node_count"`
			Texts      []string `json:"texts"`
		}

		out := dryRunOutput{
			InputFile:  inputName,
			TargetLang: targetLang,
			NodeCount:  len(items),
			Texts:      contents(items),
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(stdout, "Dry run: %s -> %s\n", inputName, targetLang)
	fmt.Fprintf(stdout, "Found %d translatable items:\n\n", len(items))
	for i, item := range items {
		fmt.Fprintf(stdout, "%3d. %q\n", i+1, truncate(item.Content, 60))
		if item.Kind != pagetl.KindText {
			fmt.Fprintf(stdout, "     Kind: %s\n", item.Kind)
		}
	}
	return nil
}

// runDiff compares new content with a previous version and shows what changed.
func runDiff(tr *pagetl.Translator, newContent, oldPath, inputName, targetLang string, stdout io.Writer, jsonOut, updateMode bool) error {
	oldData, err := os.ReadFile(oldPath) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return fmt.Errorf("reading previous version: %w", err)
	}

	oldItems, err := tr.DryRun(string(oldData), "html")
	if err != nil {
		return fmt.Errorf("parsing previous version: %w", err)
	}
	newItems, err := tr.DryRun(newContent, "html")
	if err != nil {
		return fmt.Errorf("parsing new version: %w", err)
	}

	diff := pagetl.DiffItems(oldItems, newItems)
	stats := diff.Stats()
	needsTranslation := diff.NeedsTranslation()

	if jsonOut {
		type modified struct {
			Old string `json:"old"`
			New string `json:"new"`
		}
		type diffOutput struct {
			InputFile        string         `json:"input_file"`
			PreviousFile     string         `json:"previous_file"`
			TargetLang       string         `json:"target_lang"`
			Stats            map[string]int `json:"stats"`
			NeedsTranslation []string       `json:"needs_translation"`
			Added            []string       `json:"added,omitempty"`
			Removed          []string       `json:"removed,omitempty"`
			Modified         []modified     `json:"modified,omitempty"`
		}

		out := diffOutput{
			InputFile:    inputName,
			PreviousFile: filepath.Base(oldPath),
			TargetLang:   targetLang,
			Stats: map[string]int{
				"added":     stats.Added,
				"removed":   stats.Removed,
				"modified":  stats.Modified,
				"unchanged": stats.Unchanged,
			},
			NeedsTranslation: contents(needsTranslation),
			Added:            contents(diff.Added),
			Removed:          contents(diff.Removed),
		}
		for _, m := range diff.Modified {
			out.Modified = append(out.Modified, modified{Old: m.Old.Content, New: m.New.Content})
		}

		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(stdout, "Diff: %s vs %s\n", inputName, filepath.Base(oldPath))
	fmt.Fprintf(stdout, "Target language: %s\n\n", targetLang)

	fmt.Fprintf(stdout, "Summary:\n")
	fmt.Fprintf(stdout, "  Unchanged: %d\n", stats.Unchanged)
	fmt.Fprintf(stdout, "  Added:     %d\n", stats.Added)
	fmt.Fprintf(stdout, "  Removed:   %d\n", stats.Removed)
	fmt.Fprintf(stdout, "  Modified:  %d\n\n", stats.Modified)

	if !diff.HasChanges() {
		fmt.Fprintf(stdout, "No changes detected. All translations are up to date.\n")
		return nil
	}

	fmt.Fprintf(stdout, "Needs translation: %d strings\n\n", len(needsTranslation))

	if len(diff.Added) > 0 {
		fmt.Fprintf(stdout, "Added:\n")
		for _, it := range diff.Added {
			fmt.Fprintf(stdout, "  + %q\n", truncate(it.Content, 50))
		}
		fmt.Fprintf(stdout, "\n")
	}
	if len(diff.Modified) > 0 {
		fmt.Fprintf(stdout, "Modified:\n")
		for _, m := range diff.Modified {
			fmt.Fprintf(stdout, "  ~ %q -> %q\n", truncate(m.Old.Content, 30), truncate(m.New.Content, 30))
		}
		fmt.Fprintf(stdout, "\n")
	}
	if len(diff.Removed) > 0 {
		fmt.Fprintf(stdout, "Removed:\n")
		for _, it := range diff.Removed {
			fmt.Fprintf(stdout, "  - %q\n", truncate(it.Content, 50))
		}
		fmt.Fprintf(stdout, "\n")
	}

	if updateMode {
		fmt.Fprintf(stdout, "Update mode: Only the %d new/modified strings would be translated.\n", len(needsTranslation))
		fmt.Fprintf(stdout, "Run without --diff to perform the translation.\n")
	}
	return nil
}

func contents(items []pagetl.TranslatableItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Content
	}
	return out
}

// JSONOutput represents the JSON output format.
type JSONOutput struct {
	Content         string `json:"content"`
	TotalNodes      int    `json:"total_nodes"`
	TranslatedCount int    `json:"translated_count"`
	CachedCount     int    `json:"cached_count"`
	FailedCount     int    `json:"failed_count"`
	ElapsedMs       int64  `json:"elapsed_ms"`
}

func outputJSON(w io.Writer, result *pagetl.ProcessedContent, elapsed time.Duration) error {
	out := JSONOutput{
		Content:         result.Content,
		TotalNodes:      result.TotalNodes,
		TranslatedCount: result.TranslatedCount,
		CachedCount:     result.CachedCount,
		FailedCount:     result.FailedCount,
		ElapsedMs:       elapsed.Milliseconds(),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
