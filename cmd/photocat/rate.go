package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zenithphoto/photocat/internal/catalog"
	"github.com/zenithphoto/photocat/internal/util"
)

var rateCmd = &cobra.Command{
	Use:   "rate <image-id> <rating>",
	Short: "Set an image's star rating (0-5)",
	Args:  cobra.ExactArgs(2),
	RunE:  runRate,
}

var flagCmd = &cobra.Command{
	Use:   "flag <image-id> <picked|rejected|none>",
	Short: "Set an image's pick flag",
	Args:  cobra.ExactArgs(2),
	RunE:  runFlag,
}

var labelCmd = &cobra.Command{
	Use:   "label <image-id> <red|orange|yellow|green|teal|blue|purple|none>",
	Short: "Set an image's color label",
	Args:  cobra.ExactArgs(2),
	RunE:  runLabel,
}

func init() {
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(flagCmd)
	rootCmd.AddCommand(labelCmd)
}

func runRate(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	id, err := parseImageID(args[0])
	if err != nil {
		return err
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid rating %q", args[1])
	}

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	if err := catalog.UpdateImageRating(db.Handle(), id, rating); err != nil {
		return err
	}
	util.SuccessLog("Image %d rated %d", id, rating)
	return nil
}

func runFlag(cmd *cobra.Command, args []string) error {
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

	if err := catalog.UpdateImageFlag(db.Handle(), id, args[1]); err != nil {
		return err
	}
	util.SuccessLog("Image %d flagged %s", id, args[1])
	return nil
}

func runLabel(cmd *cobra.Command, args []string) error {
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

	if err := catalog.UpdateImageColorLabel(db.Handle(), id, args[1]); err != nil {
		return err
	}
	util.SuccessLog("Image %d labeled %s", id, args[1])
	return nil
}
