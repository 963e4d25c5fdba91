package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zenithphoto/photocat/internal/catalog"
	"github.com/zenithphoto/photocat/internal/service"
	"github.com/zenithphoto/photocat/internal/util"
)

var showCmd = &cobra.Command{
	Use:   "show <image-id>",
	Short: "Show an image's catalog record",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var removeCmd = &cobra.Command{
	Use:   "remove <image-id>",
	Short: "Remove an image from the catalog (the file stays on disk)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var thumbCmd = &cobra.Command{
	Use:   "thumb <image-id>",
	Short: "Export an image's thumbnail or preview",
	Args:  cobra.ExactArgs(1),
	RunE:  runThumb,
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(thumbCmd)

	thumbCmd.Flags().Int("size", 256, "thumbnail size: 256 or 1024, or 0 for the preview")
	thumbCmd.Flags().StringP("output", "o", "", "output file (default <id>_<size>.jpg)")
	viper.BindPFlag("thumb-size", thumbCmd.Flags().Lookup("size"))
	viper.BindPFlag("thumb-output", thumbCmd.Flags().Lookup("output"))
}

func runShow(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	id, err := parseImageID(args[0])
	if err != nil {
		return err
	}

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	img, err := catalog.GetImage(db.Handle(), id)
	if err != nil {
		return err
	}
	if img == nil {
		return fmt.Errorf("image %d: %w", id, util.ErrNotFound)
	}

	fmt.Printf("ID:           %d\n", img.ID)
	fmt.Printf("Path:         %s\n", img.OriginalPath)
	if img.Filesize != nil {
		fmt.Printf("Size:         %s\n", humanize.Bytes(uint64(*img.Filesize)))
	}
	if img.FileHash != nil {
		fmt.Printf("Hash:         %s\n", *img.FileHash)
	}
	fmt.Printf("Imported:     %s\n", humanize.Time(img.ImportedAt))
	if img.CapturedAt != nil {
		fmt.Printf("Captured:     %s\n", img.CapturedAt.Format("2006-01-02 15:04:05"))
	}
	if img.CameraMake != nil || img.CameraModel != nil {
		fmt.Printf("Camera:       %s %s\n", strDeref(img.CameraMake), strDeref(img.CameraModel))
	}
	if img.LensModel != nil {
		fmt.Printf("Lens:         %s\n", *img.LensModel)
	}
	if img.FocalLength != nil {
		fmt.Printf("Focal length: %.0fmm\n", *img.FocalLength)
	}
	if img.Aperture != nil {
		fmt.Printf("Aperture:     f/%.1f\n", *img.Aperture)
	}
	if img.ISO != nil {
		fmt.Printf("ISO:          %d\n", *img.ISO)
	}
	if img.GPSLatitude != nil && img.GPSLongitude != nil {
		fmt.Printf("GPS:          %.6f, %.6f\n", *img.GPSLatitude, *img.GPSLongitude)
	}
	if img.Rating != nil {
		fmt.Printf("Rating:       %s\n", strings.Repeat("*", int(*img.Rating)))
	}
	if img.Flag != nil {
		fmt.Printf("Flag:         %s\n", *img.Flag)
	}
	if img.ColorLabel != nil {
		fmt.Printf("Label:        %s\n", *img.ColorLabel)
	}

	keywords, err := catalog.GetImageKeywords(db.Handle(), id)
	if err != nil {
		return err
	}
	if len(keywords) > 0 {
		fmt.Printf("Keywords:     %s\n", strings.Join(keywords, ", "))
	}

	history, err := catalog.GetEditHistory(db.Handle(), id)
	if err != nil {
		return err
	}
	if len(history) > 0 {
		fmt.Printf("Edit history: %d entries\n", len(history))
	}
	return nil
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func runRemove(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	id, err := parseImageID(args[0])
	if err != nil {
		return err
	}

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	svc := service.New(db)
	if err := svc.RemoveImage(id); err != nil {
		return err
	}
	util.SuccessLog("Removed image %d from the catalog", id)
	return nil
}

func runThumb(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	id, err := parseImageID(args[0])
	if err != nil {
		return err
	}

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	size := viper.GetInt("thumb-size")
	var data []byte
	if size == 0 {
		data, err = catalog.GetPreview(db.Handle(), id)
	} else {
		data, err = catalog.GetThumbnail(db.Handle(), id, size)
	}
	if err != nil {
		return err
	}

	output := viper.GetString("thumb-output")
	if output == "" {
		output = fmt.Sprintf("%d_%d.jpg", id, size)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	util.SuccessLog("Wrote %s (%s)", output, humanize.Bytes(uint64(len(data))))
	return nil
}
