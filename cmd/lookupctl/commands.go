package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"multilookup/api/internal/app"
	"multilookup/api/internal/auth"
	"multilookup/api/internal/config"
	"multilookup/api/internal/fetch"
	"multilookup/api/internal/lookup"
	"multilookup/api/internal/rbac"
	"multilookup/api/internal/tui"
	"multilookup/api/internal/util"
	"multilookup/api/internal/widget"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lookupctl",
		Short:         "Inspect and edit multi-select lookup values",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPickCmd(), newReconcileCmd(), newTokenCmd())
	return root
}

func newPickCmd() *cobra.Command {
	var (
		query    fetch.Query
		value    string
		disabled bool
	)
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick options interactively and print the resulting value",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sources, err := app.OpenSources(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer sources.Close()

			w := widget.New(fetch.New(sources.Source, fetch.WithLogger(nil)))
			if cmd.Flags().Changed("value") {
				w.SetValue(&value)
			}
			model := tui.New(ctx, w, widget.Config{Query: query, Disabled: disabled})
			final, err := tea.NewProgram(model).Run()
			if err != nil {
				return fmt.Errorf("run picker: %w", err)
			}
			if out := final.(tui.Model).Value(); out != nil {
				fmt.Fprintln(cmd.OutOrStdout(), *out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&query.Collection, "entity", "", "collection to read options from")
	cmd.Flags().StringVar(&query.DisplayColumn, "display", "", "column shown as the option label")
	cmd.Flags().StringVar(&query.SortColumn, "sort", "", "column to sort options by")
	cmd.Flags().StringVar(&value, "value", "", "current persisted value")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "open the picker read only")
	return cmd
}

func newReconcileCmd() *cobra.Command {
	var (
		value       string
		optionsFile string
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile a persisted value against an option set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(optionsFile)
			if err != nil {
				return fmt.Errorf("read options: %w", err)
			}
			var options []lookup.Option
			if err := json.Unmarshal(data, &options); err != nil {
				return fmt.Errorf("parse options %s: %w", optionsFile, err)
			}
			var persisted *string
			if cmd.Flags().Changed("value") {
				persisted = &value
			}
			result := lookup.Reconcile(persisted, options)
			for _, ghost := range result.Ghosts() {
				fmt.Fprintf(cmd.ErrOrStderr(), "not found: %s\n", ghost.Name())
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "persisted value, names separated by ';'")
	cmd.Flags().StringVar(&optionsFile, "options", "", "JSON file with [{\"key\",\"label\"}] options")
	_ = cmd.MarkFlagRequired("options")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		name    string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a host token for the lookup API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if subject == "" {
				return fmt.Errorf("--subject is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}
			token, err := auth.IssueToken([]byte(cfg.JWTSecret), auth.Claims{
				Sub:  subject,
				Name: name,
				Role: string(rbac.Normalize(role)),
				JTI:  util.NewID("jti"),
				Exp:  time.Now().Add(ttl).Unix(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "host id placed in the token subject")
	cmd.Flags().StringVar(&name, "name", "", "host display name")
	cmd.Flags().StringVar(&role, "role", string(rbac.RoleEditor), "reader or editor")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to LOOKUP_TOKEN_TTL_SECONDS)")
	return cmd
}
