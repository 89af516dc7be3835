// Command accountctl runs account operations directly against the
// configured database, bypassing HTTP.
//
// Usage:
//
//	accountctl create alice            Create one account
//	accountctl get alice               Show accounts stored under a handle
//	accountctl import alice bob carol  Create several accounts atomically
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cdkworkshop/accounts/account-service/internal/app"
	"github.com/cdkworkshop/accounts/account-service/internal/config"
	"github.com/cdkworkshop/accounts/shared/cqrs"
	"github.com/cdkworkshop/accounts/shared/dataapi"
	"github.com/cdkworkshop/accounts/shared/logger"
	"github.com/cdkworkshop/accounts/shared/models"
	"github.com/cdkworkshop/accounts/shared/utils"
	"github.com/spf13/cobra"
)

type accountOps interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) (*dataapi.StatementResult, error)
	ImportAccounts(context.Context, cqrs.ImportAccountsCommand) ([]*dataapi.StatementResult, error)
	GetAccount(context.Context, cqrs.GetAccountQuery) ([]models.Account, error)
}

// opener builds the operations for one command run and a cleanup func.
type opener func(ctx context.Context) (accountOps, func(), error)

func main() {
	if err := newRootCmd(openApp).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(open opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "accountctl",
		Short:         "Manage user accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		newCreateCmd(open),
		newGetCmd(open),
		newImportCmd(open),
	)
	return rootCmd
}

func newCreateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "create <handle>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := parseHandle(args[0])
			if err != nil {
				return err
			}
			return withOps(cmd, open, func(ctx context.Context, ops accountOps) error {
				result, err := ops.CreateAccount(ctx, cqrs.CreateAccountCommand{Handle: handle})
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}

func newGetCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "get <handle>",
		Short: "Show the accounts stored under a handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := parseHandle(args[0])
			if err != nil {
				return err
			}
			return withOps(cmd, open, func(ctx context.Context, ops accountOps) error {
				accounts, err := ops.GetAccount(ctx, cqrs.GetAccountQuery{Handle: handle})
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), accounts)
			})
		},
	}
}

func newImportCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "import <handle>...",
		Short: "Create several accounts in one transaction",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handles := make([]string, 0, len(args))
			for _, arg := range args {
				handle, err := parseHandle(arg)
				if err != nil {
					return err
				}
				handles = append(handles, handle)
			}
			return withOps(cmd, open, func(ctx context.Context, ops accountOps) error {
				results, err := ops.ImportAccounts(ctx, cqrs.ImportAccountsCommand{Handles: handles})
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), results)
			})
		},
	}
}

func withOps(cmd *cobra.Command, open opener, fn func(context.Context, accountOps) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ops, cleanup, err := open(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, ops)
}

func parseHandle(arg string) (string, error) {
	handle := utils.NormalizeHandle(arg)
	if !utils.ValidateHandle(handle) {
		return "", fmt.Errorf("invalid handle %q", arg)
	}
	return handle, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// cliOps joins the command and query services behind one value.
type cliOps struct {
	*app.App
}

func (o cliOps) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*dataapi.StatementResult, error) {
	return o.Commands.CreateAccount(ctx, cmd)
}

func (o cliOps) ImportAccounts(ctx context.Context, cmd cqrs.ImportAccountsCommand) ([]*dataapi.StatementResult, error) {
	return o.Commands.ImportAccounts(ctx, cmd)
}

func (o cliOps) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) ([]models.Account, error) {
	return o.Queries.GetAccount(ctx, q)
}

func openApp(ctx context.Context) (accountOps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Configure(cfg.LogLevel, "text"); err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cliOps{a}, func() { _ = a.Close() }, nil
}
