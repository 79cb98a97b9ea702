package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oarkflow/storyarc/pkg/config"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries the flags shared by every command.
type app struct {
	configPath string
	envFile    string
	logLevel   string
	input      config.Input
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "storyarc",
		Short:        "Positional word statistics over story plot corpora",
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (.yaml, .json or .bcl)")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file read before STORYARC_* variables")
	pf.StringVar(&a.logLevel, "log-level", "", "log level override")
	pf.StringVar(&a.input.Plots, "plots", "", "plot file, stories separated by <EOS> lines")
	pf.StringVar(&a.input.Titles, "titles", "", "title file, one title per line")
	pf.StringVar(&a.input.Lexicon, "lexicon", "", "sentiment lexicon, word<TAB>score per line")
	pf.StringVar(&a.input.StopWords, "stop-words", "", "words to leave out of edge words and peaks, one per line")

	root.AddCommand(
		newRunCmd(a),
		newProfileCmd(a),
		newTokenizeCmd(a),
		newVersionCmd(),
	)
	return root
}

// config layers the config file, the environment and explicit flags, in
// that order.
func (a *app) config(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadEnv(a.envFile); err != nil {
		return nil, err
	}
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	flags := cmd.Flags()
	if flags.Changed("plots") {
		cfg.Input.Plots = a.input.Plots
	}
	if flags.Changed("titles") {
		cfg.Input.Titles = a.input.Titles
	}
	if flags.Changed("lexicon") {
		cfg.Input.Lexicon = a.input.Lexicon
	}
	if flags.Changed("stop-words") {
		cfg.Input.StopWords = a.input.StopWords
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "storyarc", version)
		},
	}
}
