package devsnap

import "context"

// Prompter stands in for the provider's approval dialogs.
//
// Implementations block until the user answers or ctx is done, in which case
// they return ctx.Err().
type Prompter interface {
	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, title, body string) (bool, error)
	// Secret asks for a value that must not be echoed. An empty answer means
	// the user declined.
	Secret(ctx context.Context, title string) (string, error)
}

// StaticPrompter answers every prompt the same way.
type StaticPrompter struct {
	Approve    bool
	PrivateKey string
}

// Confirm returns Approve.
func (p StaticPrompter) Confirm(ctx context.Context, _, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.Approve, nil
}

// Secret returns PrivateKey.
func (p StaticPrompter) Secret(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.PrivateKey, nil
}
