package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

// Build vars.
var (
	//nolint: gochecknoglobals
	Version   = ""
	CommitSHA = ""
)

func buildVersion() {
	if len(CommitSHA) >= convIDShort {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:convIDShort] + ")\n")
	}
	if Version == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
			Version = info.Main.Version
		} else {
			Version = "unknown (built from source)"
		}
	}
	rootCmd.Version = Version
}

var (
	config = defaultConfig()
	logger = newLogger(os.Stderr)

	rootCmd = &cobra.Command{
		Use:           "ai-cli",
		Short:         "Mistral on the command line.",
		Long:          "A CLI tool for interacting with the Mistral AI API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(*cobra.Command, []string) {
			if config.Verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if config.Settings {
				return editSettings(config.SettingsPath)
			}
			db, err := openDB(config.dbPath())
			if err != nil {
				return cliError{err, "Could not open the conversations database."}
			}
			defer db.Close() //nolint:errcheck

			switch {
			case config.List:
				return listConversations(db, os.Stdout)
			case config.ShowLast:
				return showLastConversation(db, &config, os.Stdout)
			case config.Show != "":
				return showConversation(db, &config, config.Show, os.Stdout)
			case config.Delete != "":
				return deleteConversation(db, &config, config.Delete)
			}
			return cmd.Usage()
		},
	}

	runCmd = &cobra.Command{
		Use:     "run PROMPT",
		Short:   "Run a prompt through the Mistral AI API",
		Example: examplesText(),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrompt(cmd.Context(), &config, args[0])
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Configure the Mistral AI model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, err := selectModel(cmd.Context(), &config)
			if err != nil {
				return err
			}
			fmt.Printf("Model switched to %s\n", stdoutStyles().InlineCode.Render(model))
			return nil
		},
	}

	manCmd = &cobra.Command{
		Use:                   "man",
		Short:                 "Generates manpages",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Hidden:                true,
		Args:                  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			manPage, err := mcobra.NewManPage(1, rootCmd)
			if err != nil {
				//nolint:wrapcheck
				return err
			}
			_, err = fmt.Fprint(os.Stdout, manPage.Build(roff.NewDocument()))
			//nolint:wrapcheck
			return err
		},
	}
)

func initFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&config.Model, "model", "m", config.Model, stdoutStyles().FlagDesc.Render(help["model"]))
	flags.BoolVarP(&config.Quiet, "quiet", "q", config.Quiet, stdoutStyles().FlagDesc.Render(help["quiet"]))
	flags.BoolVarP(&config.Raw, "raw", "r", config.Raw, stdoutStyles().FlagDesc.Render(help["raw"]))
	flags.BoolVarP(&config.Verbose, "verbose", "v", config.Verbose, stdoutStyles().FlagDesc.Render(help["verbose"]))
	flags.Var(newDurationFlag(config.Timeout, &config.Timeout), "timeout", stdoutStyles().FlagDesc.Render(help["timeout"]))
	flags.IntVar(&config.MaxRetries, "max-retries", config.MaxRetries, stdoutStyles().FlagDesc.Render(help["max-retries"]))
	flags.IntVar(&config.BufferSize, "buffer-size", config.BufferSize, stdoutStyles().FlagDesc.Render(help["buffer-size"]))
	flags.BoolVar(&config.NoCache, "no-cache", config.NoCache, stdoutStyles().FlagDesc.Render(help["no-cache"]))
	flags.BoolVar(&config.Copy, "copy", config.Copy, stdoutStyles().FlagDesc.Render(help["copy"]))
	flags.StringVar(&config.StatusText, "status-text", config.StatusText, stdoutStyles().FlagDesc.Render(help["status-text"]))

	rootCmd.Flags().BoolVarP(&config.List, "list", "l", config.List, stdoutStyles().FlagDesc.Render(help["list"]))
	rootCmd.Flags().StringVarP(&config.Show, "show", "s", config.Show, stdoutStyles().FlagDesc.Render(help["show"]))
	rootCmd.Flags().BoolVar(&config.ShowLast, "show-last", false, stdoutStyles().FlagDesc.Render(help["show-last"]))
	rootCmd.Flags().StringVarP(&config.Delete, "delete", "d", config.Delete, stdoutStyles().FlagDesc.Render(help["delete"]))
	rootCmd.Flags().BoolVar(&config.Settings, "settings", false, stdoutStyles().FlagDesc.Render(help["settings"]))
	rootCmd.MarkFlagsMutuallyExclusive("list", "show", "show-last", "delete", "settings")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newFlagParseError(err)
	})
}

func main() {
	if !isCompletionCmd(os.Args) && !isManCmd(os.Args) {
		cfg, err := ensureConfig()
		if err != nil {
			handleError(cliError{err, "Could not load your configuration file."})
			os.Exit(1)
		}
		config = cfg
	}

	buildVersion()
	initFlags()
	rootCmd.AddCommand(runCmd, configCmd, manCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		handleError(err)
		stop()
		os.Exit(1)
	}
}

func editSettings(path string) error {
	c, err := editor.Cmd("ai-cli", path)
	if err != nil {
		return cliError{err, "Could not edit your settings file."}
	}
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return cliError{err, fmt.Sprintf(
			"Missing %s.",
			stderrStyles().InlineCode.Render("$EDITOR"),
		)}
	}
	if !config.Quiet {
		fmt.Fprintln(os.Stderr, "Wrote config file to:", config.SettingsPath)
	}
	return nil
}

func handleError(err error) {
	format := "\n%s\n\n"

	var args []any
	var ferr flagParseError
	var cerr cliError
	if errors.As(err, &ferr) {
		format += "%s\n\n"
		args = []any{
			fmt.Sprintf(
				"Check out %s %s",
				stderrStyles().InlineCode.Render("ai-cli -h"),
				stderrStyles().Comment.Render("for help."),
			),
			fmt.Sprintf(
				ferr.ReasonFormat(),
				stderrStyles().InlineCode.Render(ferr.Flag()),
			),
		}
	} else if errors.As(err, &cerr) {
		format += "%s\n\n"
		args = []any{
			stderrStyles().ErrPadding.Render(stderrStyles().ErrorHeader.String(), cerr.reason),
			stderrStyles().ErrPadding.Render(stderrStyles().ErrorDetails.Render(err.Error())),
		}
	} else {
		args = []any{
			stderrStyles().ErrPadding.Render(stderrStyles().ErrorDetails.Render(err.Error())),
		}
	}

	fmt.Fprintf(os.Stderr, format, args...)
}

func isManCmd(args []string) bool {
	if len(args) == 2 {
		return args[1] == "man"
	}
	if len(args) == 3 && args[1] == "man" {
		return args[2] == "-h" || args[2] == "--help"
	}
	return false
}

func isCompletionCmd(args []string) bool {
	if len(args) <= 1 {
		return false
	}
	if args[1] == "__complete" {
		return true
	}
	if args[1] != "completion" {
		return false
	}
	if len(args) == 3 {
		_, ok := map[string]any{
			"bash":       nil,
			"fish":       nil,
			"zsh":        nil,
			"powershell": nil,
			"-h":         nil,
			"--help":     nil,
			"help":       nil,
		}[args[2]]
		return ok
	}
	if len(args) == 4 {
		_, ok := map[string]any{
			"-h":     nil,
			"--help": nil,
		}[args[3]]
		return ok
	}
	return false
}

// sanitizePrompt removes double quotes from the prompt.
func sanitizePrompt(prompt string) string {
	return strings.TrimSpace(strings.ReplaceAll(prompt, `"`, ""))
}
