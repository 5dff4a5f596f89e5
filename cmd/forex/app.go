package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/lukasz-zimnoch/forex"
)

const usage = `usage: forex <command> [arguments]

commands:
  register <username> [password]   create an account
  login <username> [password]      log in and remember the identity
  logout                           forget the remembered identity
  whoami                           print the logged-in username
  balance                          print the USD balance
  holdings                         print the balance and all holdings
  rates [-refresh]                 print the known rates per USD
  refresh                          fetch the latest rates
  buy <currency> <amount>          buy amount units of currency with USD
  sell <currency> <amount>         sell amount units of currency for USD
  shell                            run commands read from standard input

Accounts outlive a single command only with the postgres storage backend;
the default memory backend keeps them for the lifetime of a shell.
`

type app struct {
	*services

	input       *bufio.Reader
	pendingLine chan inputLine
	output      io.Writer
	logger      forex.Logger
	session     *forex.Session
	inShell     bool
}

func newApp(
	services *services,
	input io.Reader,
	output io.Writer,
	logger forex.Logger,
) *app {
	return &app{
		services: services,
		input:    bufio.NewReader(input),
		output:   output,
		logger:   logger.WithField("component", "cli"),
	}
}

type command func(ctx context.Context, args []string) error

func (a *app) commands() map[string]command {
	return map[string]command{
		"register": a.register,
		"login":    a.login,
		"logout":   a.logout,
		"whoami":   a.whoami,
		"balance":  a.balance,
		"holdings": a.holdings,
		"rates":    a.rates,
		"refresh":  a.refresh,
		"buy":      a.tradeCommand(forex.SideBuy),
		"sell":     a.tradeCommand(forex.SideSell),
		"shell":    a.shell,
		"help":     a.help,
	}
}

var errUsage = errors.New("invalid usage")

func (a *app) execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.help(ctx, nil)
	}

	run, ok := a.commands()[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command [%v]", errUsage, args[0])
	}

	return run(ctx, args[1:])
}

func (a *app) help(_ context.Context, _ []string) error {
	_, err := fmt.Fprint(a.output, usage)
	return err
}

func (a *app) register(ctx context.Context, args []string) error {
	username, password, err := a.credentials(ctx, args)
	if err != nil {
		return err
	}

	account, err := a.auth.Register(ctx, username, password)
	if err != nil {
		return err
	}

	a.printf(
		"Registered [%v] with a balance of %v USD\n",
		account.Username,
		account.Balance.StringFixed(2),
	)

	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	username, password, err := a.credentials(ctx, args)
	if err != nil {
		return err
	}

	session, err := a.auth.Login(ctx, username, password)
	if err != nil {
		return err
	}

	a.session = session
	a.printf("Logged in as [%v]\n", username)

	return nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	session, err := a.currentSession(ctx)
	if err != nil {
		return err
	}

	if err := a.auth.Logout(ctx, session); err != nil {
		return err
	}

	a.session = nil
	a.printf("Logged out\n")

	return nil
}

func (a *app) whoami(ctx context.Context, _ []string) error {
	session, err := a.currentSession(ctx)
	if err != nil {
		return err
	}

	username, _ := session.Identity()
	a.printf("%v\n", username)

	return nil
}

func (a *app) balance(ctx context.Context, _ []string) error {
	session, err := a.currentSession(ctx)
	if err != nil {
		return err
	}

	balance, err := a.ledger.Balance(ctx, session)
	if err != nil {
		return err
	}

	a.printf("USD %v\n", balance.StringFixed(2))

	return nil
}

func (a *app) holdings(ctx context.Context, _ []string) error {
	session, err := a.currentSession(ctx)
	if err != nil {
		return err
	}

	portfolio, err := a.ledger.Portfolio(ctx, session)
	if err != nil {
		return err
	}

	a.printf("USD %v\n", portfolio.Balance.StringFixed(2))
	for _, holding := range portfolio.Holdings {
		a.printf("%v %v\n", holding.Currency, holding.Quantity.String())
	}

	return nil
}

func (a *app) rates(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("rates", flag.ContinueOnError)
	flags.SetOutput(a.output)
	refresh := flags.Bool("refresh", false, "fetch the latest rates first")

	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w: [%v]", errUsage, err)
	}

	if *refresh {
		if err := a.refresh(ctx, nil); err != nil {
			return err
		}
	}

	rates, err := a.services.rates.Rates(ctx)
	if err != nil {
		return err
	}

	if len(rates) == 0 {
		a.printf("No rates known, run refresh first\n")
		return nil
	}

	for _, rate := range rates {
		a.printf(
			"%v %v (updated %v)\n",
			rate.Currency,
			rate.Rate.String(),
			rate.UpdatedAt.Format(time.RFC3339),
		)
	}

	return nil
}

func (a *app) refresh(ctx context.Context, _ []string) error {
	count, err := a.services.rates.Refresh(ctx)
	if err != nil {
		return err
	}

	a.printf("Refreshed %v rates\n", count)

	return nil
}

func (a *app) tradeCommand(side forex.TradeSide) command {
	return func(ctx context.Context, args []string) error {
		if len(args) != 2 {
			return fmt.Errorf(
				"%w: %v <currency> <amount>",
				errUsage,
				strings.ToLower(side.String()),
			)
		}

		session, err := a.currentSession(ctx)
		if err != nil {
			return err
		}

		currency, err := forex.ParseCurrency(args[0])
		if err != nil {
			return err
		}

		quantity, err := forex.ParseAmount(args[1])
		if err != nil {
			return err
		}

		trade := a.ledger.Buy
		if side == forex.SideSell {
			trade = a.ledger.Sell
		}

		receipt, err := trade(ctx, session, currency, quantity)
		if err != nil {
			return err
		}

		a.printf(
			"%v. Balance: %v USD, holding: %v %v\n",
			receipt.String(),
			receipt.Balance.StringFixed(2),
			receipt.Holding.String(),
			receipt.Currency,
		)

		return nil
	}
}

// shell executes one command per input line until end of input or exit,
// keeping rates fresh in the background.
func (a *app) shell(ctx context.Context, _ []string) error {
	if a.inShell {
		return fmt.Errorf("%w: already in shell", errUsage)
	}

	a.inShell = true
	defer func() { a.inShell = false }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	forex.RunRateRefresher(ctx, a.services.rates, a.refreshInterval, a.logger)

	for {
		a.printf("> ")

		line, err := a.readLine(ctx)

		args := strings.Fields(line)
		if len(args) > 0 {
			if args[0] == "exit" || args[0] == "quit" {
				return nil
			}

			if err := a.execute(ctx, args); err != nil {
				a.printf("%v\n", describe(err))
			}
		}

		if err != nil {
			return nil
		}
	}
}

type inputLine struct {
	text string
	err  error
}

// readLine returns the next input line. At most one read is outstanding,
// and a read abandoned on ctx is handed to the next call.
func (a *app) readLine(ctx context.Context) (string, error) {
	if a.pendingLine == nil {
		result := make(chan inputLine, 1)

		go func() {
			text, err := a.input.ReadString('\n')
			result <- inputLine{text, err}
		}()

		a.pendingLine = result
	}

	select {
	case line := <-a.pendingLine:
		a.pendingLine = nil
		return line.text, line.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// currentSession prefers the session of this process and falls back to the
// remembered identity.
func (a *app) currentSession(ctx context.Context) (*forex.Session, error) {
	if _, ok := a.session.Identity(); ok {
		return a.session, nil
	}

	session, err := a.auth.RestoreSession(ctx)
	if err != nil {
		return nil, err
	}

	a.session = session

	return session, nil
}

func (a *app) credentials(
	ctx context.Context,
	args []string,
) (string, string, error) {
	switch len(args) {
	case 1:
		a.printf("Password: ")

		password, err := a.readLine(ctx)
		if err != nil && len(password) == 0 {
			return "", "", fmt.Errorf("could not read password: [%w]", err)
		}

		return args[0], strings.TrimRight(password, "\r\n"), nil
	case 2:
		return args[0], args[1], nil
	}

	return "", "", fmt.Errorf("%w: <username> [password]", errUsage)
}

func (a *app) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.output, format, args...)
}

// describe turns an error into the message shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, forex.ErrNotAuthenticated):
		return "Not logged in. Run login first."
	case errors.Is(err, forex.ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, forex.ErrDuplicateUsername):
		return "That username is already taken."
	case errors.Is(err, forex.ErrRateFetchFailed):
		return fmt.Sprintf("Could not refresh rates, keeping the known ones: %v", err)
	case errors.Is(err, forex.ErrWeakPassword),
		errors.Is(err, forex.ErrInvalidUsername),
		errors.Is(err, forex.ErrInvalidAmount),
		errors.Is(err, forex.ErrUnknownCurrency),
		errors.Is(err, forex.ErrInsufficientFunds),
		errors.Is(err, forex.ErrInsufficientHoldings),
		errors.Is(err, errUsage):
		return capitalize(err.Error())
	}

	return fmt.Sprintf("Error: %v", err)
}

func capitalize(message string) string {
	if len(message) == 0 {
		return message
	}

	return strings.ToUpper(message[:1]) + message[1:]
}
