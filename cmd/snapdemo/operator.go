package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/c-bata/go-prompt"
	"golang.org/x/term"

	"github.com/alicesring/snapdemo/pkg/ringsig"
)

type Operator struct {
	app *App
	ctx context.Context

	exitCh chan struct{}
}

func NewOperator(ctx context.Context, app *App) *Operator {
	return &Operator{
		app:    app,
		ctx:    ctx,
		exitCh: make(chan struct{}),
	}
}

func (o *Operator) Complete(d prompt.Document) []prompt.Suggest {
	return prompt.FilterHasPrefix(o.complete(d), d.GetWordBeforeCursor(), true)
}

func (o *Operator) complete(d prompt.Document) []prompt.Suggest {
	args := strings.Split(d.TextBeforeCursor(), " ")

	if len(args) < 2 {
		return []prompt.Suggest{
			{Text: "check", Description: "Detect the signing provider and install it if missing"},
			{Text: "import", Description: "Import an account into the provider"},
			{Text: "addresses", Description: "Export the addresses of the bound account"},
			{Text: "key-images", Description: "Export key images of the exported addresses"},
			{Text: "sign", Description: "Sign a message with SAG or LSAG"},
			{Text: "verify", Description: "Verify the SAG or LSAG signature of this session"},
			{Text: "verify-artifact", Description: "Verify a signature produced elsewhere"},
			{Text: "link", Description: "Check whether another LSAG signature has the same signer"},
			{Text: "add-address", Description: "Add another key to the bound account"},
			{Text: "status", Description: "Show the progress of this session"},
			{Text: "run", Description: "Run every step of the demo"},
			{Text: "exit", Description: "Exit the application"},
		}
	}

	if len(args) < 3 {
		switch args[0] {
		case "sign", "verify":
			return []prompt.Suggest{
				{Text: "sag", Description: "Spontaneous anonymous group signature"},
				{Text: "lsag", Description: "Linkable spontaneous anonymous group signature"},
			}
		case "key-images":
			return []prompt.Suggest{
				{Text: o.app.cfg.Domain, Description: "Configured linkability domain"},
			}
		default:
			return nil
		}
	}

	return nil
}

func (o *Operator) Execute(s string) {
	args := strings.Fields(s)
	if len(args) == 0 {
		return
	}

	if err := o.execute(args); err != nil {
		printError(os.Stdout, err)
		o.app.lg.Debug("command failed", "command", args[0], "error", err)
	}
}

func (o *Operator) execute(args []string) error {
	ctx := o.ctx

	switch args[0] {
	case "check":
		return o.app.CheckProvider(ctx)
	case "import":
		return o.app.ImportAccount(ctx)
	case "addresses":
		return o.app.ExportAddresses(ctx)
	case "key-images":
		domain := ""
		if len(args) > 1 {
			domain = args[1]
		}
		return o.app.ExportKeyImages(ctx, domain)
	case "sign":
		variant, ok := o.variantArg(args)
		if !ok {
			fmt.Println("Usage: sign <sag|lsag> [message]")
			return nil
		}
		return o.app.Sign(ctx, variant, strings.Join(args[2:], " "))
	case "verify":
		variant, ok := o.variantArg(args)
		if !ok {
			fmt.Println("Usage: verify <sag|lsag>")
			return nil
		}
		return o.app.Verify(ctx, variant)
	case "verify-artifact":
		artifact := o.extraArg(args, 1, "artifact")
		_, err := o.app.VerifyArtifact(ctx, artifact)
		return err
	case "link":
		artifact := o.extraArg(args, 1, "artifact")
		return o.app.Link(ctx, artifact)
	case "add-address":
		fmt.Println("Paste private key:")
		privateKeyHex, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			fmt.Printf("\nError reading key: %v\n", err)
			return nil
		}
		return o.app.AddAddress(ctx, strings.TrimSpace(string(privateKeyHex)))
	case "status":
		renderStatus(os.Stdout, o.app.session.Status())
	case "run":
		return o.app.RunScenario(ctx)
	case "exit":
		o.exit()
	default:
		fmt.Printf("Unknown command: %s\n", args[0])
	}
	return nil
}

func (o *Operator) variantArg(args []string) (ringsig.Variant, bool) {
	if len(args) < 2 {
		return 0, false
	}
	return ringsig.ParseVariant(args[1])
}

// extraArg returns args[i] or asks for it.
func (o *Operator) extraArg(args []string, i int, name string) string {
	if len(args) > i {
		return args[i]
	}
	return o.readExtraArg(name)
}

func (o *Operator) Wait() <-chan struct{} {
	return o.exitCh
}

func (o *Operator) exit() {
	select {
	case <-o.exitCh:
	default:
		close(o.exitCh)
	}
}

func (o *Operator) readExtraArg(name string) string {
	promptPrefix := fmt.Sprintf("{%s}>>> ", name)
	return prompt.Input(promptPrefix, emptyCompleter, getStyleOptions()...)
}
