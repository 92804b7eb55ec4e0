package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tasker/internal/auth"
	"tasker/internal/config"
	"tasker/internal/constants"
	"tasker/internal/database"
	"tasker/internal/logger"
	"tasker/internal/services"
	"tasker/internal/version"
)

// cli carries the state shared by every subcommand.
type cli struct {
	configPath string

	in  io.Reader
	out io.Writer

	cfg *config.Config
	log *logger.Logger
	db  *sql.DB
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	c := &cli{in: in, out: out}

	root := &cobra.Command{
		Use:           "taskerctl",
		Short:         "Administer a " + constants.AppDisplayName + " installation",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			// Service log lines go to stderr so stdout stays scriptable.
			c.log = logger.New(logger.Options{Level: logger.LevelWarn, Output: errOut})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.db != nil {
				c.db.Close()
			}
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&c.configPath, "config", "",
		"config file (default $"+constants.ConfigEnvVar+" or ~/"+constants.ConfigDir+"/"+constants.ConfigFile+")")

	root.AddCommand(
		c.initDBCmd(),
		c.userAddCmd(),
		c.userDelCmd(),
		c.userModCmd(),
		c.userModPasswdCmd(),
	)
	return root
}

// openDB opens the configured database. Commands other than init-db expect
// the schema to exist already.
func (c *cli) openDB(ctx context.Context) (*sql.DB, error) {
	if c.db != nil {
		return c.db, nil
	}
	if c.cfg.Database.Driver == constants.DriverSQLite {
		if err := config.EnsureConfigDir(); err != nil {
			return nil, err
		}
	}
	db, err := database.Open(ctx, c.cfg.Database.Driver, c.cfg.Database.DSN, database.Options{MaxOpenConns: 1})
	if err != nil {
		return nil, err
	}
	c.db = db
	return db, nil
}

// userService wires a UserService without a worker pool; the CLI hashes
// one password per run.
func (c *cli) userService(ctx context.Context) (*services.UserService, error) {
	db, err := c.openDB(ctx)
	if err != nil {
		return nil, err
	}
	store := database.NewStore(db, c.cfg.Database.Driver)
	hasher := auth.NewPasswordHasher(auth.PasswordParams{
		Memory:      c.cfg.Auth.Argon2MemoryKiB,
		Iterations:  c.cfg.Auth.Argon2Iterations,
		Parallelism: c.cfg.Auth.Argon2Parallelism,
	}, nil)
	return services.NewUserService(store, hasher, c.log), nil
}

func (c *cli) initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := c.openDB(ctx)
			if err != nil {
				return err
			}
			n, err := database.Migrate(ctx, db, c.cfg.Database.Driver)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "database ready (%d migration(s) applied)\n", n)
			return nil
		},
	}
}

// stdinFD is the descriptor used for hidden password prompts.
func stdinFD() int {
	return int(os.Stdin.Fd())
}
