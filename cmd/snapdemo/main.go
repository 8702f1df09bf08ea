package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alicesring/snapdemo/internal/devsnap"
	"github.com/alicesring/snapdemo/pkg/log"
)

var version = "dev"

// reportedError has already been shown to the user.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error { return e.error }

// report prints err as a user message and marks it as shown.
func report(w io.Writer, err error) error {
	printError(w, err)
	return reportedError{err}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "snapdemo",
		Short:         "Ring Signature Snap - Demo",
		Long:          "Drives a ring-signature provider through provider check, account import, address and key-image export, SAG/LSAG signing and verification.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd.Context())
		},
	}
	root.AddCommand(newShellCmd(), newRunCmd(), newVerifyCmd(), newVersionCmd())
	return root
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd.Context())
		},
	}
}

func newRunCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every step of the demo and print the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			var prompter devsnap.Prompter = newTerminalPrompter()
			if yes {
				prompter = devsnap.StaticPrompter{Approve: true, PrivateKey: cfg.PrivateKey}
			}
			return runScenario(cmd.Context(), cfg, prompter, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "approve every provider request; the key to import comes from SNAPDEMO_PRIVATE_KEY")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <artifact>",
		Short: "Verify a signature artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			app, err := NewApp(cfg, devsnap.StaticPrompter{Approve: true}, newLogger(cfg), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer app.Close()

			valid, err := app.VerifyArtifact(cmd.Context(), args[0])
			if err != nil {
				return report(cmd.ErrOrStderr(), err)
			}
			if !valid {
				// VerifyArtifact has printed the verdict.
				return reportedError{errors.New("signature is invalid")}
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func newLogger(cfg *Config) log.Logger {
	return log.NewZapLogger(cfg.Log).WithName("snapdemo")
}

func runScenario(ctx context.Context, cfg *Config, prompter devsnap.Prompter, out io.Writer) error {
	app, err := NewApp(cfg, prompter, newLogger(cfg), out)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.RunScenario(ctx); err != nil {
		return report(out, err)
	}
	return nil
}

func runShell(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	lg := newLogger(cfg)
	if !cfg.DotEnvLoaded {
		lg.Debug("no .env file loaded", "configDir", cfg.ConfigDir)
	}

	app, err := NewApp(cfg, newTerminalPrompter(), lg, os.Stdout)
	if err != nil {
		return err
	}
	defer app.Close()

	operator := NewOperator(ctx, app)

	initialState, _ := term.GetState(int(os.Stdin.Fd()))
	handleExit := func() {
		term.Restore(int(os.Stdin.Fd()), initialState)
		exec.Command("stty", "sane").Run()
	}

	options := append(getStyleOptions(),
		prompt.OptionPrefix(">>> "),

		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlC,
			Fn: func(buf *prompt.Buffer) {
				operator.exit()
			},
		}),
		prompt.OptionAddKeyBind(prompt.KeyBind{
			Key: prompt.ControlD,
			Fn:  func(buf *prompt.Buffer) {},
		}),
	)
	p := prompt.New(
		operator.Execute,
		operator.Complete,
		options...,
	)

	fmt.Println("Ring Signature Snap - Demo. Type 'run' for the whole flow or 'exit' to quit.")
	promptExitCh := make(chan struct{})
	go func() {
		p.Run()
		close(promptExitCh)
	}()

	select {
	case <-ctx.Done():
	case <-operator.Wait():
	case <-promptExitCh:
	}
	handleExit()
	fmt.Println("Exiting snapdemo.")
	return nil
}

func emptyCompleter(d prompt.Document) []prompt.Suggest {
	return []prompt.Suggest{}
}

func getStyleOptions() []prompt.Option {
	return []prompt.Option{
		prompt.OptionTitle("Ring Signature Snap - Demo"),
		prompt.OptionPrefixTextColor(prompt.Yellow),
		prompt.OptionPreviewSuggestionTextColor(prompt.Cyan),

		prompt.OptionSuggestionTextColor(prompt.White),
		prompt.OptionSuggestionBGColor(prompt.DarkBlue),

		prompt.OptionDescriptionTextColor(prompt.Black),
		prompt.OptionDescriptionBGColor(prompt.Yellow),

		prompt.OptionSelectedSuggestionTextColor(prompt.Black),
		prompt.OptionSelectedSuggestionBGColor(prompt.Yellow),

		prompt.OptionSelectedDescriptionTextColor(prompt.White),
		prompt.OptionSelectedDescriptionBGColor(prompt.DarkBlue),
	}
}
