package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cjnlabay/midterm/internal/attach"
	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Attach files to the local profile",
	Long: `Copy files into the blob store and keep a list of them under a storage key.

Examples:
  trashtalk files add ~/Documents/cv.pdf
  trashtalk files add --multiple --type image/* a.png b.jpg
  trashtalk files list
  trashtalk files rm 0`,
}

var filesAddCmd = &cobra.Command{
	Use:   "add [path...]",
	Short: "Store one or more files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFilesAdd,
}

var filesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored files",
	RunE:    runFilesList,
}

var filesRemoveCmd = &cobra.Command{
	Use:     "rm [index]",
	Aliases: []string{"remove"},
	Short:   "Remove a stored file by its list index",
	Args:    cobra.ExactArgs(1),
	RunE:    runFilesRemove,
}

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Manage the profile image",
}

var imageSetCmd = &cobra.Command{
	Use:   "set [path]",
	Short: "Store an image, replacing the current one",
	Args:  cobra.ExactArgs(1),
	RunE:  runImageSet,
}

var imageShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored image reference",
	RunE:  runImageShow,
}

var imageClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored image",
	RunE:  runImageClear,
}

var (
	filesKey      string
	imageKey      string
	filesMultiple bool
	filesTypes    []string
)

func init() {
	filesCmd.AddCommand(filesAddCmd)
	filesCmd.AddCommand(filesListCmd)
	filesCmd.AddCommand(filesRemoveCmd)
	filesCmd.PersistentFlags().StringVar(&filesKey, "key", attach.DefaultFilesKey, "Storage key of the file list")
	filesAddCmd.Flags().BoolVarP(&filesMultiple, "multiple", "m", false, "Append to the list instead of replacing it")
	filesAddCmd.Flags().StringSliceVar(&filesTypes, "type", []string{"*/*"}, "Allowed MIME types")

	imageCmd.AddCommand(imageSetCmd)
	imageCmd.AddCommand(imageShowCmd)
	imageCmd.AddCommand(imageClearCmd)
	imageCmd.PersistentFlags().StringVar(&imageKey, "key", attach.DefaultImageKey, "Storage key of the image")
}

func formatFileSize(bytes int64) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	}
}

func runFilesAdd(cmd *cobra.Command, args []string) error {
	app, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	m, err := app.Attachments(ctx)
	if err != nil {
		return err
	}

	res, err := m.AddFiles(ctx, filesKey, attach.Options{
		MaxSizeMB:    app.Config.FilesMaxSizeMB,
		AllowedTypes: filesTypes,
		Multiple:     filesMultiple,
	}, args...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range res.Rejected {
		fmt.Fprintf(out, "⚠️  Skipped %s: %s\n", r.Path, r.Reason)
	}
	for _, f := range res.Added {
		fmt.Fprintf(out, "✓ Stored %s (%s)\n", f.Name, formatFileSize(f.Size))
	}
	if len(res.Added) == 0 {
		return errors.New("no files stored")
	}
	return nil
}

func runFilesList(cmd *cobra.Command, args []string) error {
	app, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	m, err := app.Attachments(ctx)
	if err != nil {
		return err
	}

	files, err := m.Files(ctx, filesKey)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintln(out, "No files stored.")
		return nil
	}

	fmt.Fprintf(out, "\n📎 %s (%d)\n", filesKey, len(files))
	fmt.Fprintln(out, strings.Repeat("─", 60))
	for i, f := range files {
		fmt.Fprintf(out, "  %d  %-30s  %-10s  %s\n", i, truncate(f.Name, 30), formatFileSize(f.Size), f.MimeType)
	}
	fmt.Fprintln(out)
	return nil
}

func runFilesRemove(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q", args[0])
	}

	app, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	m, err := app.Attachments(ctx)
	if err != nil {
		return err
	}

	removed, err := m.RemoveFile(ctx, filesKey, index)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Removed: %s\n", removed.Name)
	return nil
}

func runImageSet(cmd *cobra.Command, args []string) error {
	app, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	m, err := app.Attachments(ctx)
	if err != nil {
		return err
	}

	img, err := m.SetImage(ctx, imageKey, args[0], app.Config.ImageMaxSizeMB)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Image stored: %s (%s)\n", img.Ref, formatFileSize(img.Size))
	return nil
}

func runImageShow(cmd *cobra.Command, args []string) error {
	app, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	m, err := app.Attachments(ctx)
	if err != nil {
		return err
	}

	img, err := m.Image(ctx, imageKey)
	if err != nil {
		if errors.Is(err, attach.ErrNoImage) {
			fmt.Fprintln(cmd.OutOrStdout(), "No image selected.")
			return nil
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name: %s\n", img.Name)
	fmt.Fprintf(out, "Type: %s\n", img.MimeType)
	fmt.Fprintf(out, "Size: %s\n", formatFileSize(img.Size))
	fmt.Fprintf(out, "URI:  %s\n", img.Ref)
	return nil
}

func runImageClear(cmd *cobra.Command, args []string) error {
	app, ctx, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	m, err := app.Attachments(ctx)
	if err != nil {
		return err
	}

	m.ClearImage(ctx, imageKey)
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Image cleared.")
	return nil
}
