// codesplice splits source files into token-bounded semantic chunks for
// embedding pipelines.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/codesplice/codesplice/internal/config"
	"github.com/codesplice/codesplice/internal/router"
	"github.com/codesplice/codesplice/pkg/delim"
	"github.com/codesplice/codesplice/pkg/grammar"
	"github.com/codesplice/codesplice/pkg/semantic"
	"github.com/codesplice/codesplice/pkg/types"
)

var (
	version   = "0.1.0"
	logLevel  string
	logFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "codesplice",
	Short: "Semantic chunking for embedding pipelines",
	Long: `codesplice classifies syntax tree nodes into semantic categories and
cuts source files into token-bounded chunks on meaningful boundaries.

Strategies:
- semantic: grammar-aware chunking over parsed syntax trees
- delimiter: regex boundary chunking per language family
- markdown: heading and frontmatter chunking
- window: sliding-window fallback`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("codesplice %s\n", version)
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

var chunkCmd = &cobra.Command{
	Use:   "chunk [path]",
	Short: "Chunk files under a directory, emitting JSON lines",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) > 0 {
			root = args[0]
		}
		root, err := filepath.Abs(root)
		if err != nil {
			return err
		}

		cfg, warnings, err := config.Load(root)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			slog.Warn(w)
		}
		if errs := config.Validate(cfg); len(errs) > 0 {
			for _, e := range errs {
				slog.Error("config error", "error", e)
			}
			return types.ErrInvalidConfig
		}

		r, err := router.New(cfg, slog.Default())
		if err != nil {
			return err
		}
		defer r.Close()

		files, err := collectFiles(root, cfg)
		if err != nil {
			return err
		}
		slog.Info("collected files", "count", len(files), "root", root)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("chunking"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		enc := json.NewEncoder(os.Stdout)
		results, err := r.ChunkAll(ctx, files)
		if err != nil {
			return err
		}
		for _, res := range results {
			bar.Add(1)
			if res.Err != nil {
				slog.Error("chunking failed", "path", res.Path, "error", res.Err)
				continue
			}
			for _, c := range res.Chunks {
				if err := enc.Encode(c); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify <language> <node-kind>",
	Short: "Classify a syntax node kind",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := grammar.NewCatalog("")
		engine := semantic.NewEngine(catalog, nil)
		res := engine.Classify(semantic.Request{Language: args[0], Kind: args[1]})
		out, err := json.MarshalIndent(map[string]any{
			"category":   res.Category,
			"confidence": res.Confidence,
			"phase":      res.Phase,
			"evidence":   res.Evidence,
			"grade":      res.Grade,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Detect the delimiter family of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		family, score := delim.DetectFamily(string(content))
		fmt.Printf("family: %s\nscore: %.2f\n", family, score)
		return nil
	},
}

// collectFiles walks the tree honoring include/exclude globs and the
// project .gitignore.
func collectFiles(root string, cfg *config.Config) ([]*types.SourceFile, error) {
	var ignorer *gitignore.GitIgnore
	if cfg.Files.UseGitIgnore {
		if ig, err := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
			ignorer = ig
		}
	}

	var files []*types.SourceFile
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if ignorer != nil && ignorer.MatchesPath(rel) {
			return nil
		}
		if !matchesAny(cfg.Files.Include, rel) || matchesAny(cfg.Files.Exclude, rel) {
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			slog.Warn("unreadable file", "path", path, "error", readErr)
			return nil
		}
		files = append(files, &types.SourceFile{
			Path:    path,
			Content: content,
			Size:    info.Size(),
		})
		return nil
	})
	return files, err
}

func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func setupLogging() {
	level := slog.LevelInfo
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.AddCommand(versionCmd, chunkCmd, classifyCmd, detectCmd)
}
