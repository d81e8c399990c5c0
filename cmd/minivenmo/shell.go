package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	apperrors "github.com/Proton-105/minivenmo/internal/errors"
	"github.com/Proton-105/minivenmo/internal/feed"
)

const shellPrompt = "minivenmo> "

func newShellCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session (type 'help' for commands)",
		Long: `Start an interactive MiniVenmo session reading one command per line.

Examples:
  create Bobby 5.00 4111111111111111
  create Carol 10.00
  pay Bobby Carol 5.00 Coffee and cake
  friend Bobby Carol
  feed Bobby`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			rt, err := bootstrap(cmd.Context(), bootstrapOptions{
				configPath: opts.configPath,
				out:        cmd.OutOrStdout(),
				errOut:     cmd.ErrOrStderr(),
				watch:      true,
			})
			if err != nil {
				return err
			}
			defer func() {
				if cerr := rt.close(cmd.Context()); cerr != nil && err == nil {
					err = cerr
				}
			}()

			return runShell(cmd.Context(), rt, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runShell executes one command per input line until EOF, "exit" or ctx ends.
func runShell(ctx context.Context, rt *runtime, in io.Reader, out io.Writer) error {
	p := newPrinter(out)
	scanner := bufio.NewScanner(in)

	p.prompt()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			p.prompt()
			continue
		case "exit", "quit":
			return nil
		}

		args, err := splitLine(line)
		if err == nil {
			err = executeLine(ctx, rt, p, args)
		}
		if err != nil {
			p.failure(describe(ctx, rt, err))
		}

		p.prompt()
	}

	return scanner.Err()
}

func executeLine(ctx context.Context, rt *runtime, p *printer, args []string) error {
	tree := newShellTree(rt, p)
	tree.SetArgs(args)
	tree.SetOut(p.out)
	tree.SetErr(p.out)

	return tree.ExecuteContext(ctx)
}

// describe turns err into the line shown to the user. Application errors are
// logged and counted through the error handler.
func describe(ctx context.Context, rt *runtime, err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}

	msg, retryable := rt.errs.Handle(ctx, err)
	if retryable {
		msg += " (try again)"
	}

	return fmt.Sprintf("%s [%s: %s]", msg, appErr.Code, err)
}

func newShellTree(rt *runtime, p *printer) *cobra.Command {
	root := &cobra.Command{
		Use:           "minivenmo>",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		&cobra.Command{
			Use:                "create <username> <balance> [card]",
			Short:              "Register a user with an opening balance and optional card",
			Args:               cobra.RangeArgs(2, 3),
			DisableFlagParsing: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				balance, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				card := ""
				if len(args) == 3 {
					card = args[2]
				}

				user, err := rt.app.CreateUser(cmd.Context(), args[0], balance, card)
				if err != nil {
					return err
				}

				p.success("created %s with %s", user.Username, feed.FormatAmount(user.Balance()))
				return nil
			},
		},
		&cobra.Command{
			Use:                "pay <from> <to> <amount> <note...>",
			Short:              "Pay another user, from balance when it covers the amount, otherwise by card",
			Args:               cobra.MinimumNArgs(4),
			DisableFlagParsing: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				amount, err := parseAmount(args[2])
				if err != nil {
					return err
				}

				payment, err := rt.app.Pay(cmd.Context(), args[0], args[1], amount, strings.Join(args[3:], " "))
				if err != nil {
					return err
				}

				p.success("%s (%s)", feed.Line(payment.Activity()), payment.Method)
				return nil
			},
		},
		&cobra.Command{
			Use:   "friend <from> <to>",
			Short: "Add a friend",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := rt.app.AddFriend(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}

				p.success("%s added %s as a friend", args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "card <username> <number>",
			Short: "Attach a credit card",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := rt.app.Lookup(args[0])
				if err != nil {
					return err
				}
				if err := user.AddCreditCard(args[1]); err != nil {
					return err
				}

				p.success("card added for %s", user.Username)
				return nil
			},
		},
		&cobra.Command{
			Use:   "balance <username>",
			Short: "Show a user's balance",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := rt.app.Lookup(args[0])
				if err != nil {
					return err
				}

				p.info("%s", feed.FormatAmount(user.Balance()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "feed <username>",
			Short: "Render a user's activity feed",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := rt.app.Lookup(args[0])
				if err != nil {
					return err
				}

				renderer := rt.app.Renderer()
				lines, err := renderer.Render(user.RetrieveFeed())
				if err != nil {
					return err
				}
				if !renderer.Emitting() {
					p.info("%d feed entries (emission is off)", len(lines))
				}

				return nil
			},
		},
		&cobra.Command{
			Use:   "friends <username>",
			Short: "List a user's friends",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := rt.app.Lookup(args[0])
				if err != nil {
					return err
				}

				names := make(map[string]string)
				for _, name := range rt.app.Usernames() {
					if other, err := rt.app.Lookup(name); err == nil {
						names[other.ID.String()] = other.Username
					}
				}

				for _, id := range user.Friends() {
					p.info("%s", names[id.String()])
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "users",
			Short: "List registered users",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				for _, name := range rt.app.Usernames() {
					p.info("%s", name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:       "emit <on|off>",
			Short:     "Turn printing of rendered feeds on or off",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"on", "off"},
			RunE: func(_ *cobra.Command, args []string) error {
				switch args[0] {
				case "on":
					rt.app.Renderer().SetEmit(true)
				case "off":
					rt.app.Renderer().SetEmit(false)
				default:
					return fmt.Errorf("emit: expected on or off, got %q", args[0])
				}

				p.success("feed emission %s", args[0])
				return nil
			},
		},
	)

	return root
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimPrefix(s, "$"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}

	return amount, nil
}

// splitLine splits on whitespace; double quotes group words into one argument.
func splitLine(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quoted  bool
		started bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case !quoted && (r == ' ' || r == '\t'):
			if started {
				args = append(args, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}

	if quoted {
		return nil, errors.New("unterminated quote")
	}
	if started {
		args = append(args, current.String())
	}

	return args, nil
}
