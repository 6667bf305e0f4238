package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"yatube/internal/models"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			a.log.Info("Database schema is up to date")
			return nil
		},
	}
}

func newGroupCmd(a *app) *cobra.Command {
	group := &cobra.Command{
		Use:   "group",
		Short: "Manage groups",
	}

	var title, description string
	create := &cobra.Command{
		Use:   "create SLUG",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := args[0]
			if len(slug) > 20 {
				return fmt.Errorf("slug %q is longer than 20 characters", slug)
			}
			if title == "" {
				return errors.New("--title is required")
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			g := &models.Group{Title: title, Slug: slug, Description: description}
			if err := st.CreateGroup(cmd.Context(), g); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created group %s (id %d)\n", g.Slug, g.ID)
			return nil
		},
	}
	create.Flags().StringVar(&title, "title", "", "group title, at most 200 characters")
	create.Flags().StringVar(&description, "description", "", "group description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List groups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			groups, err := st.ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSLUG\tTITLE")
			for _, g := range groups {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
			}
			return tw.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete SLUG",
		Short: "Delete a group; its posts stay without a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteGroup(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted group %s\n", args[0])
			return nil
		},
	}

	group.AddCommand(create, list, del)
	return group
}

func newUserCmd(a *app) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var revoke bool
	promote := &cobra.Command{
		Use:   "promote USERNAME",
		Short: "Grant staff rights, which allow clearing the page cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.SetStaff(cmd.Context(), args[0], !revoke); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s staff=%t\n", args[0], !revoke)
			return nil
		},
	}
	promote.Flags().BoolVar(&revoke, "revoke", false, "remove staff rights instead")

	user.AddCommand(promote)
	return user
}

func newCacheCmd(a *app) *cobra.Command {
	cache := &cobra.Command{
		Use:   "cache",
		Short: "Manage the page cache",
	}
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached page (redis backend)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Cache.Backend != "redis" {
				return errors.New("the memory cache lives inside the server process; use POST /admin/cache/clear/ as a staff user")
			}
			c, closeCache, err := a.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer closeCache()

			if err := c.Clear(cmd.Context()); err != nil {
				return err
			}
			a.log.Info("Page cache cleared")
			return nil
		},
	}
	cache.AddCommand(clearCmd)
	return cache
}
