package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zenithphoto/photocat/internal/catalog"
	"github.com/zenithphoto/photocat/internal/service"
	"github.com/zenithphoto/photocat/internal/util"
)

var editCmd = &cobra.Command{
	Use:   "edit <image-id>",
	Short: "Set an image's develop settings",
	Long: `Set an image's develop settings. Flags not given are cleared;
the previous state stays recoverable through the edit history.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

// sliderFlags maps flag names to where their value lands on the edit row.
var sliderFlags = []string{
	"exposure", "contrast", "highlights", "shadows", "whites", "blacks",
	"vibrance", "saturation", "temperature", "tint", "texture", "clarity",
	"dehaze",
}

func init() {
	rootCmd.AddCommand(editCmd)

	for _, name := range sliderFlags {
		editCmd.Flags().Float64(name, 0, name+" adjustment")
	}
	editCmd.Flags().String("crop", "", "crop rectangle as JSON")
}

func runEdit(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	id, err := parseImageID(args[0])
	if err != nil {
		return err
	}

	edit := &catalog.Edit{ImageID: id}
	targets := map[string]**float64{
		"exposure":    &edit.Exposure,
		"contrast":    &edit.Contrast,
		"highlights":  &edit.Highlights,
		"shadows":     &edit.Shadows,
		"whites":      &edit.Whites,
		"blacks":      &edit.Blacks,
		"vibrance":    &edit.Vibrance,
		"saturation":  &edit.Saturation,
		"temperature": &edit.Temperature,
		"tint":        &edit.Tint,
		"texture":     &edit.Texture,
		"clarity":     &edit.Clarity,
		"dehaze":      &edit.Dehaze,
	}
	changed := 0
	for _, name := range sliderFlags {
		if !cmd.Flags().Changed(name) {
			continue
		}
		v, err := cmd.Flags().GetFloat64(name)
		if err != nil {
			return err
		}
		*targets[name] = &v
		changed++
	}
	if cmd.Flags().Changed("crop") {
		crop, err := cmd.Flags().GetString("crop")
		if err != nil {
			return err
		}
		edit.CropJSON = &crop
		changed++
	}
	if changed == 0 {
		return fmt.Errorf("no adjustments given")
	}

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	svc := service.New(db)
	if err := svc.ApplyEdits(edit); err != nil {
		return err
	}
	util.SuccessLog("Applied %d adjustments to image %d", changed, id)
	return nil
}
