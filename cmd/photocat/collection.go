package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zenithphoto/photocat/internal/catalog"
	"github.com/zenithphoto/photocat/internal/util"
)

var collectionCmd = &cobra.Command{
	Use:     "collection",
	Aliases: []string{"coll"},
	Short:   "Manage collections",
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionCreate,
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	Args:  cobra.NoArgs,
	RunE:  runCollectionList,
}

var collectionAddCmd = &cobra.Command{
	Use:   "add <collection-id> <image-id>...",
	Short: "Append images to a collection",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCollectionAdd,
}

var collectionRemoveCmd = &cobra.Command{
	Use:   "remove <collection-id> <image-id>...",
	Short: "Remove images from a collection",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runCollectionRemove,
}

var collectionShowCmd = &cobra.Command{
	Use:   "show <collection-id>",
	Short: "List a collection's images in order",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionShow,
}

func init() {
	rootCmd.AddCommand(collectionCmd)
	collectionCmd.AddCommand(collectionCreateCmd)
	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionAddCmd)
	collectionCmd.AddCommand(collectionRemoveCmd)
	collectionCmd.AddCommand(collectionShowCmd)
}

func parseCollectionID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid collection id %q", arg)
	}
	return id, nil
}

func runCollectionCreate(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	c := &catalog.Collection{Name: args[0]}
	if err := catalog.InsertCollection(db.Handle(), c); err != nil {
		return err
	}
	util.SuccessLog("Created collection %d: %s", c.ID, c.Name)
	return nil
}

func runCollectionList(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	collections, err := catalog.ListCollections(db.Handle())
	if err != nil {
		return err
	}
	for _, c := range collections {
		count, err := catalog.CountCollectionImages(db.Handle(), c.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%6d  %-30s  %d images\n", c.ID, c.Name, count)
	}
	util.InfoLog("%d collections", len(collections))
	return nil
}

func runCollectionAdd(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	collID, err := parseCollectionID(args[0])
	if err != nil {
		return err
	}

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	for _, arg := range args[1:] {
		imageID, err := parseImageID(arg)
		if err != nil {
			return err
		}
		if err := catalog.AddImageToCollection(db.Handle(), collID, imageID); err != nil {
			return fmt.Errorf("failed to add image %d: %w", imageID, err)
		}
	}
	util.SuccessLog("Added %d images to collection %d", len(args)-1, collID)
	return nil
}

func runCollectionRemove(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	collID, err := parseCollectionID(args[0])
	if err != nil {
		return err
	}

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	for _, arg := range args[1:] {
		imageID, err := parseImageID(arg)
		if err != nil {
			return err
		}
		if err := catalog.RemoveImageFromCollection(db.Handle(), collID, imageID); err != nil {
			return fmt.Errorf("failed to remove image %d: %w", imageID, err)
		}
	}
	util.SuccessLog("Removed %d images from collection %d", len(args)-1, collID)
	return nil
}

func runCollectionShow(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	collID, err := parseCollectionID(args[0])
	if err != nil {
		return err
	}

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	c, err := catalog.GetCollection(db.Handle(), collID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("collection %d: %w", collID, util.ErrNotFound)
	}

	images, err := catalog.ListCollectionImages(db.Handle(), collID)
	if err != nil {
		return err
	}

	fmt.Printf("Collection %d: %s\n", c.ID, c.Name)
	for i, img := range images {
		fmt.Printf("%4d  %6d  %s\n", i+1, img.ID, img.OriginalPath)
	}
	return nil
}
