package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vyrodovalexey/catalog-api/internal/client"
	"github.com/vyrodovalexey/catalog-api/internal/model"
)

func newItemsCommand(opts *globalOptions) *cobra.Command {
	itemsCmd := &cobra.Command{
		Use:   "items",
		Short: "List, inspect and create catalog items",
	}

	itemsCmd.AddCommand(
		newItemsListCommand(opts),
		newItemsGetCommand(opts),
		newItemsCreateCommand(opts),
	)

	return itemsCmd
}

func newItemsListCommand(opts *globalOptions) *cobra.Command {
	var (
		q        string
		page     int
		pageSize int
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items, optionally filtered and paginated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fetch := client.Options{Q: q, Page: page, PageSize: pageSize}
			if cmd.Flags().Changed("limit") {
				fetch.Limit = &limit
			}

			loader := client.NewLoader(opts.client())
			if err := loader.Fetch(cmd.Context(), fetch); err != nil {
				return err
			}
			if err := cmd.Context().Err(); err != nil {
				return err
			}

			state := loader.State()
			if !opts.useTable() {
				if state.Pagination != nil {
					return writeJSON(opts.stdout, model.ItemPage{Data: state.Items, Pagination: state.Pagination})
				}
				return writeJSON(opts.stdout, state.Items)
			}

			if err := renderItems(opts.stdout, state.Items); err != nil {
				return err
			}
			if state.Pagination != nil {
				return renderPagination(opts.stdout, state.Pagination)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&q, "q", "q", "", "case-insensitive name filter")
	cmd.Flags().IntVar(&page, "page", 0, "page number, 1-based (requires --page-size)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "items per page (requires --page)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of items when not paginating")

	return cmd
}

func newItemsGetCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a single item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := opts.client().GetItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if opts.useTable() {
				return renderItems(opts.stdout, []model.Item{*item})
			}
			return writeJSON(opts.stdout, item)
		},
	}
}

func newItemsCreateCommand(opts *globalOptions) *cobra.Command {
	var (
		name     string
		price    float64
		category string
		fields   []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := parseFields(fields)
			if err != nil {
				return err
			}

			body[model.FieldName] = name
			if cmd.Flags().Changed("price") {
				body[model.FieldPrice] = price
			}
			if category != "" {
				body[model.FieldCategory] = category
			}

			item, err := opts.client().CreateItem(cmd.Context(), body)
			if err != nil {
				return err
			}

			if opts.useTable() {
				return renderItems(opts.stdout, []model.Item{*item})
			}
			return writeJSON(opts.stdout, item)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "item name")
	cmd.Flags().Float64Var(&price, "price", 0, "item price")
	cmd.Flags().StringVar(&category, "category", "", "item category")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "extra field as key=value; JSON values are kept typed (repeatable)")

	return cmd
}

// parseFields turns key=value pairs into a request body. Values that parse
// as JSON keep their type, anything else is sent as a string.
func parseFields(pairs []string) (map[string]any, error) {
	body := make(map[string]any, len(pairs)+3)

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --field %q: want key=value", pair)
		}

		var typed any
		if err := json.Unmarshal([]byte(value), &typed); err == nil {
			body[key] = typed
		} else {
			body[key] = value
		}
	}

	return body, nil
}
