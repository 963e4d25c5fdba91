package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zenithphoto/photocat/internal/catalog"
	"github.com/zenithphoto/photocat/internal/service"
	"github.com/zenithphoto/photocat/internal/util"
)

var keywordCmd = &cobra.Command{
	Use:   "keyword",
	Short: "Manage image keywords",
}

var keywordAddCmd = &cobra.Command{
	Use:   "add <image-id> <keyword>...",
	Short: "Attach keywords to an image",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runKeywordAdd,
}

var keywordRemoveCmd = &cobra.Command{
	Use:   "remove <image-id> <keyword>...",
	Short: "Detach keywords from an image",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runKeywordRemove,
}

var keywordListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the keyword vocabulary with usage counts",
	Args:  cobra.NoArgs,
	RunE:  runKeywordList,
}

var keywordPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete keywords no image uses",
	Args:  cobra.NoArgs,
	RunE:  runKeywordPrune,
}

func init() {
	rootCmd.AddCommand(keywordCmd)
	keywordCmd.AddCommand(keywordAddCmd)
	keywordCmd.AddCommand(keywordRemoveCmd)
	keywordCmd.AddCommand(keywordListCmd)
	keywordCmd.AddCommand(keywordPruneCmd)
}

func parseImageID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid image id %q", arg)
	}
	return id, nil
}

func runKeywordAdd(cmd *cobra.Command, args []string) error {
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
	for _, kw := range args[1:] {
		if err := svc.AddKeyword(id, kw); err != nil {
			return fmt.Errorf("failed to add keyword %q: %w", kw, err)
		}
	}
	util.SuccessLog("Added %d keywords to image %d", len(args)-1, id)
	return nil
}

func runKeywordRemove(cmd *cobra.Command, args []string) error {
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
	for _, kw := range args[1:] {
		if err := svc.RemoveKeyword(id, kw); err != nil {
			return fmt.Errorf("failed to remove keyword %q: %w", kw, err)
		}
	}
	util.SuccessLog("Removed %d keywords from image %d", len(args)-1, id)
	return nil
}

func runKeywordList(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	keywords, err := catalog.ListKeywords(db.Handle())
	if err != nil {
		return err
	}
	for _, kw := range keywords {
		fmt.Printf("%6d  %s\n", kw.Count, kw.Keyword)
	}
	util.InfoLog("%d keywords", len(keywords))
	return nil
}

func runKeywordPrune(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	db, err := openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	removed, err := catalog.PruneUnusedKeywords(db.Handle())
	if err != nil {
		return err
	}
	util.SuccessLog("Pruned %d unused keywords", removed)
	return nil
}
