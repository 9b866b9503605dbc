// Package cli implements the agentmem CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/agentmem/internal/config"
	"github.com/rcliao/agentmem/internal/logging"
	"github.com/rcliao/agentmem/internal/memory"
)

// Version is set at build time.
var Version = "dev"

var (
	cfgFile   string
	dbPath    string
	debugFlag bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:     "agentmem",
	Short:   "Layered memory for multi-agent work",
	Long:    "agentmem records what agents do, scores it, and keeps what matters in a SQLite-backed long-term store.",
	Version: Version,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default: ~/.agentmem/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (overrides long_term.path)")
	RootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Debug logging")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile, config.DefaultDir())
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.LongTerm.Path = dbPath
	}
	if debugFlag {
		cfg.Log.Debug = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(
		logging.WithDebug(cfg.Log.Debug),
		logging.WithJSON(cfg.Log.Format == config.FormatJSON),
		logging.WithPretty(cfg.Log.Format == config.FormatPretty),
	)
}

// openSystem loads config and opens the memory system, exiting on failure.
func openSystem(cmd *cobra.Command) (*memory.System, *config.Config) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	sys, err := memory.Open(cmd.Context(), cfg, newLogger(cfg))
	if err != nil {
		exitErr("open memory", err)
	}
	return sys, cfg
}

// closeSystem flushes short-term records so a one-shot command loses
// nothing, then closes the store.
func closeSystem(sys *memory.System) {
	sys.Flush(context.Background())
	sys.Close()
}

func printJSON(w io.Writer, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("encode", err)
	}
	fmt.Fprintln(w, string(b))
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func parseObject(flag, raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		exitErr("parse --"+flag, err)
	}
	return m
}

// readInput returns the joined args, or stdin when it is piped.
func readInput(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		return string(b)
	}
	return ""
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
