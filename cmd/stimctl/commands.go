package main

import (
	"bufio"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/stimulus-rank/auth"
	"github.com/danielhkuo/stimulus-rank/db"
	"github.com/danielhkuo/stimulus-rank/experiment"
	"github.com/danielhkuo/stimulus-rank/export"
	"github.com/danielhkuo/stimulus-rank/models"
	"github.com/danielhkuo/stimulus-rank/store"
)

// dbConfig is the subset of server configuration the CLI needs. Writes go
// through the privileged connection when one is configured.
type dbConfig struct {
	Type          string `env:"DATABASE_TYPE" envDefault:"sqlite"`
	URL           string `env:"DATABASE_URL"`
	PrivilegedURL string `env:"PRIVILEGED_DATABASE_URL"`
}

func (c dbConfig) writeURL() string {
	if c.PrivilegedURL != "" {
		return c.PrivilegedURL
	}
	return c.URL
}

func newRootCmd() *cobra.Command {
	var cfg dbConfig

	root := &cobra.Command{
		Use:          "stimctl",
		Short:        "Operate a stimulus-rank deployment",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags set explicitly win over the environment
			var fromEnv dbConfig
			if err := env.Parse(&fromEnv); err != nil {
				return fmt.Errorf("invalid environment: %w", err)
			}
			flags := cmd.Flags()
			if !flags.Changed("type") {
				cfg.Type = fromEnv.Type
			}
			if !flags.Changed("db") {
				cfg.URL = fromEnv.URL
			}
			if !flags.Changed("privileged-db") {
				cfg.PrivilegedURL = fromEnv.PrivilegedURL
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfg.Type, "type", "t", "sqlite", "Database type (sqlite or postgres)")
	root.PersistentFlags().StringVarP(&cfg.URL, "db", "d", "", "Database URL (env DATABASE_URL)")
	root.PersistentFlags().StringVar(&cfg.PrivilegedURL, "privileged-db", "", "Privileged database URL (env PRIVILEGED_DATABASE_URL)")

	root.AddCommand(newHashPasswordCmd())
	root.AddCommand(newCodesCmd(&cfg))
	root.AddCommand(newExportCmd(&cfg))

	return root
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for RESEARCHER_PASSWORD_HASH",
		Long: `Print a bcrypt hash for RESEARCHER_PASSWORD_HASH.

The password is read from the first argument, or from the first line of
stdin when no argument is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newCodesCmd(cfg *dbConfig) *cobra.Command {
	codes := &cobra.Command{
		Use:   "codes",
		Short: "Manage participant codes",
	}

	var group, count int
	create := &cobra.Command{
		Use:   "create",
		Short: "Generate participant codes for one group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if group != models.GroupOne && group != models.GroupTwo {
				return fmt.Errorf("--group must be 1 or 2, got %d", group)
			}
			if count < 1 {
				return fmt.Errorf("--count must be at least 1, got %d", count)
			}

			conn, err := openWriter(*cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			rw := store.NewPrivileged(conn)
			for i := 0; i < count; i++ {
				c, err := experiment.IssueCode(cmd.Context(), rw, group)
				if err != nil {
					return fmt.Errorf("create code %d of %d: %w", i+1, count, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.Code)
			}
			return nil
		},
	}
	create.Flags().IntVarP(&group, "group", "g", models.GroupOne, "Experimental group (1 or 2)")
	create.Flags().IntVarP(&count, "count", "n", 1, "Number of codes to generate")

	codes.AddCommand(create)
	return codes
}

func newExportCmd(cfg *dbConfig) *cobra.Command {
	var code, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write one participant's rankings as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(code) == "" {
				return fmt.Errorf("--code is required")
			}

			conn, err := db.Open(cfg.Type, cfg.URL)
			if err != nil {
				return err
			}
			defer conn.Close()

			rows, err := experiment.Results(cmd.Context(), store.NewRestricted(conn), code)
			if err != nil {
				return err
			}
			csv := export.ResultsCSV(rows)

			if out == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), csv)
				return err
			}
			if out == "" {
				out = export.Filename(strings.TrimSpace(code))
			}
			if err := os.WriteFile(out, []byte(csv), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rankings to %s\n", len(rows), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&code, "code", "c", "", "Participant code")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default <code>_result.csv, - for stdout)")

	return cmd
}

// openWriter opens the privileged connection and makes sure the schema exists.
func openWriter(cfg dbConfig) (*sql.DB, error) {
	conn, err := db.Open(cfg.Type, cfg.writeURL())
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(conn, cfg.Type); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
