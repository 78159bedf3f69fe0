package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/slotbox"
)

var (
	listPrefix string
	listLimit  int
	listAll    bool
	listCursor string
)

var listCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List recorded uploads",
	Long: `List uploads recorded in the ledger, oldest first.

Examples:
  slotbox list
  slotbox list photo_
  slotbox list --prefix doc --limit 10
  slotbox list --all --json
  slotbox list --cursor "MjAyNS0wMy0wMVQxMjozMDowMFp8cGhvdG8uanBn"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listPrefix, "prefix", "", "filter by name prefix")
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", 100, "max results per page (max: 1000)")
	listCmd.Flags().BoolVar(&listAll, "all", false, "fetch all pages")
	listCmd.Flags().StringVar(&listCursor, "cursor", "", "pagination cursor")
	addOutputFlags(listCmd)

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	prefix := listPrefix
	if len(args) > 0 {
		prefix = args[0]
	}

	if listLimit < 1 || listLimit > 1000 {
		return errors.New("--limit must be between 1 and 1000")
	}

	a, err := newApp(ctx, appOptions{requireLedger: true})
	if err != nil {
		return err
	}
	defer a.Close()

	formatter := getFormatter(cmd)

	query := slotbox.ListQuery{NamePrefix: prefix, Limit: listLimit, Cursor: listCursor}
	var all slotbox.ListResult
	for {
		page, err := a.service.List(ctx, query)
		if err != nil {
			_ = formatter.FormatError(os.Stderr, err)
			return fmt.Errorf("list: %w", err)
		}

		if !listAll {
			return formatter.FormatList(os.Stdout, page)
		}

		all.Items = append(all.Items, page.Items...)
		if page.NextCursor == "" {
			return formatter.FormatList(os.Stdout, all)
		}
		query.Cursor = page.NextCursor
	}
}
