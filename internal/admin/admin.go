// Package admin implements the notekeeper-admin command: explicit schema
// migrations and account management outside the HTTP API.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/notekeeper/internal/server/config"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Backend is what the commands need from the database side.
type Backend interface {
	Migrate(ctx context.Context) error
	Version(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, r services.Registration) (*models.PublicUser, error)
	DeleteUser(ctx context.Context, email string) error
	Close() error
}

// Connector opens a Backend for the resolved configuration.
type Connector func(ctx context.Context, cfg *config.Config) (Backend, error)

// seams for tests
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

type rootOptions struct {
	configPath string
	dsn        string
}

func (o *rootOptions) args() []string {
	var args []string
	if o.configPath != "" {
		args = append(args, "-c", o.configPath)
	}
	if o.dsn != "" {
		args = append(args, "-d", o.dsn)
	}
	return args
}

// NewRootCommand builds the command tree. connect is called once per
// command that touches the database.
func NewRootCommand(connect Connector) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "notekeeper-admin",
		Short:         "NoteKeeper administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (json, toml or yaml)")
	root.PersistentFlags().StringVarP(&opts.dsn, "dsn", "d", "", "database DSN, overrides config and environment")

	withBackend := func(cmd *cobra.Command, fn func(ctx context.Context, b Backend) error) error {
		cfg, err := config.Load(opts.args())
		if err != nil {
			return err
		}
		b, err := connect(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer b.Close()
		return fn(cmd.Context(), b)
	}

	root.AddCommand(newMigrateCommand(withBackend), newUserCommand(withBackend))
	return root
}

type backendRunner func(cmd *cobra.Command, fn func(ctx context.Context, b Backend) error) error

func newMigrateCommand(run backendRunner) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrate.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, b Backend) error {
				if err := b.Migrate(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				v, err := b.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
				return nil
			})
		},
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, b Backend) error {
				v, err := b.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
				return nil
			})
		},
	})

	return migrate
}

func newUserCommand(run backendRunner) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var (
		name, email   string
		passwordStdin bool
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPasswordInput(cmd, passwordStdin)
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, b Backend) error {
				u, err := b.CreateUser(ctx, services.Registration{Name: name, Email: email, Password: password})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s>\n", u.ID, u.Email)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "display name")
	create.Flags().StringVar(&email, "email", "", "email address")
	create.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")

	var deleteEmail string
	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete an account together with its notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, b Backend) error {
				if err := b.DeleteUser(ctx, deleteEmail); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted user <%s>\n", deleteEmail)
				return nil
			})
		},
	}
	del.Flags().StringVar(&deleteEmail, "email", "", "email address")
	_ = del.MarkFlagRequired("email")

	user.AddCommand(create, del)
	return user
}

// readPasswordInput takes the first line of stdin with --password-stdin,
// otherwise prompts on the terminal without echo.
func readPasswordInput(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return "", errors.New("stdin is not a terminal, use --password-stdin")
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Enter password: ")
	pw, err := readPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
