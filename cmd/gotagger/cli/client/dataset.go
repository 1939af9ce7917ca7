package client

import (
	"fmt"
	"strings"

	"github.com/mwantia/gotagger/internal/agent"
	config "github.com/mwantia/gotagger/internal/config/server"
	"github.com/mwantia/gotagger/internal/dataset"
	"github.com/mwantia/gotagger/pkg/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewDatasetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Work on a dataset folder without the web agent",
		Long: `Work on a dataset folder directly from the command line.

Every command synchronizes the folder with its index first, the same way
the web UI does when a dataset is opened. The folder defaults to
dataset.path from the configuration or the current directory.`,
	}

	cmd.PersistentFlags().StringP("path", "p", "", "dataset folder (default is dataset.path or .)")

	cmd.AddCommand(newDatasetSyncCommand())
	cmd.AddCommand(newDatasetListCommand())
	cmd.AddCommand(newDatasetTagsCommand())
	cmd.AddCommand(newDatasetSetCommand())
	cmd.AddCommand(newDatasetBatchCommand())
	cmd.AddCommand(newDatasetRenameCommand())
	cmd.AddCommand(newDatasetRemoveCommand())
	cmd.AddCommand(newDatasetTagRemoveCommand())
	cmd.AddCommand(newDatasetExportCommand())

	return cmd
}

// openDataset opens and synchronizes the selected dataset folder.
func openDataset(cmd *cobra.Command) (*dataset.Session, *dataset.SyncReport, error) {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	path, _ := cmd.Flags().GetString("path")
	if path == "" {
		path = cfg.Dataset.Path
	}
	if path == "" {
		path = "."
	}

	logger := log.NewLoggerService("gotagger", cfg.Log)
	ctx := cmd.Context()
	session, err := dataset.OpenSession(ctx, path, agent.DatasetOptions(cfg.Dataset), logger.Named("dataset"))
	if err != nil {
		return nil, nil, err
	}

	report, err := session.Reconcile(ctx)
	if err != nil {
		session.Close()
		return nil, nil, err
	}

	return session, report, nil
}

func newDatasetSyncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the index with the folder",
		Long:  "Adds new images to the index, removes vanished ones and reloads every tag list from its sidecar file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, report, err := openDataset(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", session.Root(), report)
			return nil
		},
	}

	return cmd
}

func newDatasetListCommand() *cobra.Command {
	var page, pageSize int
	var tag string

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List images and their tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := openDataset(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			ctx := cmd.Context()
			var images []dataset.ImageSummary
			if tag != "" {
				if images, err = session.ImagesByTag(ctx, tag); err != nil {
					return err
				}
			} else {
				result, err := session.ListImages(ctx, page, pageSize)
				if err != nil {
					return err
				}
				images = result.Data
				defer fmt.Fprintf(cmd.OutOrStdout(), "page %d, %d of %d images\n", result.Page, len(images), result.Total)
			}

			color := useColor()
			for _, image := range images {
				tags, err := session.ImageTags(ctx, image.Filename)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", image.Filename, renderTags(tags, color))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page to list")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "images per page (default is dataset.page_size)")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "only list images carrying this tag")

	return cmd
}

func newDatasetTagsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Show every tag with its usage count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := openDataset(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			summary, err := session.TagSummary(cmd.Context())
			if err != nil {
				return err
			}

			color := useColor()
			for _, tag := range summary {
				fmt.Fprintf(cmd.OutOrStdout(), "%6d  %s\n", tag.Count, renderTag(tag.Name, tag.Color, color))
			}
			return nil
		},
	}

	return cmd
}

func newDatasetSetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <image> [tag...]",
		Short: "Replace the tags of one image",
		Long:  "Replaces the tag list of an image with the given tags in order. Without tags the list is cleared.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := openDataset(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			tags := make([]dataset.TagInput, 0, len(args)-1)
			for _, name := range args[1:] {
				tags = append(tags, dataset.TagInput{Name: name})
			}

			report, err := session.SaveTags(cmd.Context(), args[:1], tags)
			if err != nil {
				return err
			}
			if len(report.Skipped) > 0 {
				return fmt.Errorf("image '%s' is not part of the dataset", args[0])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d tags for %s\n", len(tags), args[0])
			return nil
		},
	}

	return cmd
}

func newDatasetBatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <add_start|add_end|delete> <tag>...",
		Short: "Add or remove tags on every image",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := dataset.ParseAction(args[0])
			if err != nil {
				return err
			}

			session, _, err := openDataset(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			report, err := session.BatchProcess(cmd.Context(), action, args[1:])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d images updated\n", report.Action, strings.Join(args[1:], ", "), report.Affected)
			return nil
		},
	}

	return cmd
}

func newDatasetRenameCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <image> <new-name>",
		Short: "Rename an image and its sidecar",
		Long:  "Renames an image, keeping its extension, and moves its sidecar file along.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := openDataset(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			newPath, err := session.Rename(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", args[0], newPath)
			return nil
		},
	}

	return cmd
}

func newDatasetRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <image>...",
		Short: "Delete images and their sidecars",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := openDataset(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			report, err := session.DeleteImages(cmd.Context(), args)
			if report != nil {
				for _, path := range report.Missing {
					fmt.Fprintf(cmd.ErrOrStderr(), "Skipping %s (not part of the dataset)\n", path)
				}
				for _, failure := range report.Failures {
					fmt.Fprintf(cmd.ErrOrStderr(), "Failed to remove %s: %s\n", failure.Path, failure.Error)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d images\n", len(report.Deleted))
			}
			return err
		},
	}

	return cmd
}

func newDatasetTagRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag-rm <tag>",
		Short: "Remove a tag from every image and delete it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := openDataset(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			affected, err := session.DeleteTag(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %d images\n", args[0], affected)
			return nil
		},
	}

	return cmd
}

func newDatasetExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export the tag summary as a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, err := openDataset(cmd)
			if err != nil {
				return err
			}
			defer session.Close()

			count, err := session.ExportSummary(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tags to %s\n", count, args[0])
			return nil
		},
	}

	return cmd
}

func useColor() bool {
	return !viper.GetBool("log.no_color")
}
