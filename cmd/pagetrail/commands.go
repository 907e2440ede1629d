package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pagetrail/internal/models"
	"pagetrail/internal/service"
)

func parseKind(value string) (models.ItemKind, error) {
	kind := models.ItemKind(strings.ToLower(value))
	if !kind.Valid() {
		return "", fmt.Errorf("invalid kind %q: must be audio or ebook", value)
	}
	return kind, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newOpenCmd() *cobra.Command {
	var kind, genre string
	cmd := &cobra.Command{
		Use:   "open <item-id>",
		Short: "Record that an item was opened",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			var stats models.EngagementStats
			if genre != "" {
				stats = a.engine.RecordActivity(cmd.Context(), args[0], k, genre, time.Now())
			} else {
				stats = a.engine.OpenItem(cmd.Context(), args[0], k, time.Now())
			}
			return printJSON(cmd, stats)
		}),
	}
	cmd.Flags().StringVar(&kind, "kind", string(models.KindEbook), "Item kind: audio or ebook")
	cmd.Flags().StringVar(&genre, "genre", "", "Genre override; defaults to the catalog genre")
	return cmd
}

func newProgressCmd() *cobra.Command {
	var kind, position string
	cmd := &cobra.Command{
		Use:   "progress <item-id>",
		Short: "Record progress on an item, or show it when no position is given",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if position == "" {
				record := a.engine.Progress(cmd.Context(), args[0])
				if record == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s has not been started\n", args[0])
					return nil
				}
				return printProgress(cmd, *record)
			}

			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			if !json.Valid([]byte(position)) {
				return fmt.Errorf("position must be valid JSON")
			}
			record := a.engine.RecordProgress(cmd.Context(), args[0], k, json.RawMessage(position), time.Now())
			return printProgress(cmd, record)
		}),
	}
	cmd.Flags().StringVar(&kind, "kind", string(models.KindEbook), "Item kind: audio or ebook")
	cmd.Flags().StringVar(&position, "position", "", "Opaque JSON position, e.g. '{\"page\":12}'")
	return cmd
}

func printProgress(cmd *cobra.Command, record models.ProgressRecord) error {
	if label, ok := service.FormatDuration(record.TimeSpentSeconds); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s spent\n", record.ItemID, label)
	}
	return printJSON(cmd, record)
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <item-id>",
		Short: "Resolve an item's progress against the synced copy",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			record, err := a.engine.ResumeProgress(cmd.Context(), args[0])
			if err != nil && record == nil {
				return err
			}
			if err != nil {
				a.logger.Sugar().Warnf("Using local progress: %v", err)
			}
			if record == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has not been started\n", args[0])
				return nil
			}
			return printProgress(cmd, *record)
		}),
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show engagement statistics",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			return printJSON(cmd, struct {
				Stats    models.EngagementStats `json:"stats"`
				LastItem *models.LastItem       `json:"last_item,omitempty"`
			}{
				Stats:    a.engine.Stats(cmd.Context(), time.Now()),
				LastItem: a.engine.LastItem(cmd.Context()),
			})
		}),
	}
}

func newBadgesCmd() *cobra.Command {
	var earnedOnly bool
	cmd := &cobra.Command{
		Use:   "badges",
		Short: "List badges and whether they are earned",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			for _, badge := range a.engine.AllBadges(cmd.Context()) {
				if earnedOnly && !badge.Earned {
					continue
				}
				mark := " "
				if badge.Earned {
					mark = "x"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s %-16s %s\n", mark, badge.Icon, badge.Name, badge.Description)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&earnedOnly, "earned", false, "Only list earned badges")
	return cmd
}

func newFavoriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorite",
		Short: "Manage favorite items",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "toggle <item-id>",
			Short: "Add or remove an item from favorites",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				if a.engine.ToggleFavorite(cmd.Context(), args[0], time.Now()) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s added to favorites\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s removed from favorites\n", args[0])
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List favorite items",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
				for _, id := range a.engine.Favorites(cmd.Context()) {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}),
		},
	)
	return cmd
}

func newCollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"collections"},
		Short:   "Manage named collections",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create a collection",
			Args:  cobra.MinimumNArgs(1),
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				c, ok := a.engine.CreateCollection(cmd.Context(), strings.Join(args, " "), time.Now())
				if !ok {
					return fmt.Errorf("collection %q was not saved", c.Name)
				}
				return printJSON(cmd, c)
			}),
		},
		&cobra.Command{
			Use:   "add <collection-id> <item-id>",
			Short: "Add an item to a collection",
			Args:  cobra.ExactArgs(2),
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				a.engine.AddToCollection(cmd.Context(), args[0], args[1])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "remove <collection-id> <item-id>",
			Short: "Remove an item from a collection",
			Args:  cobra.ExactArgs(2),
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				a.engine.RemoveFromCollection(cmd.Context(), args[0], args[1])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete <collection-id>",
			Short: "Delete a collection",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				if !a.engine.DeleteCollection(cmd.Context(), args[0], time.Now()) {
					return fmt.Errorf("collection %s not found", args[0])
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List collections",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
				return printJSON(cmd, a.engine.Collections(cmd.Context()))
			}),
		},
	)
	return cmd
}

func newSettingsCmd() *cobra.Command {
	var fontSize string
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change display settings",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			settings := a.engine.Settings(cmd.Context())
			if fontSize != "" {
				if !models.ValidFontSize(fontSize) {
					return fmt.Errorf("invalid font size %q", fontSize)
				}
				settings.FontSize = fontSize
				settings = a.engine.SaveSettings(cmd.Context(), settings)
			}
			return printJSON(cmd, settings)
		}),
	}
	cmd.Flags().StringVar(&fontSize, "font-size", "", "Font size: small, medium or large")
	cmd.AddCommand(&cobra.Command{
		Use:   "night-mode",
		Short: "Toggle night mode",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			on := a.engine.ToggleNightMode(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "night mode: %t\n", on)
			return nil
		}),
	})
	return cmd
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sign in with --id-token and reconcile favorites with the remote",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if idToken == "" {
				return service.ErrNotSignedIn
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sync status: %s\n", a.engine.SyncStatus())
			if a.signInErr != nil {
				return a.signInErr
			}
			if a.remote == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no remote configured, nothing was uploaded")
			}
			return nil
		}),
	}
}
