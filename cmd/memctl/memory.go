package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	// memory command flags
	memTags    []string
	memContent string
	memLimit   int
)

func init() {
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)

	storeCmd.Flags().StringSliceVar(&memTags, "tags", nil, "Tags to attach (comma-separated)")

	searchCmd.Flags().IntVar(&memLimit, "limit", 5, "Maximum number of results")

	updateCmd.Flags().StringVar(&memContent, "content", "", "Replacement content")
	updateCmd.Flags().StringSliceVar(&memTags, "tags", nil, "Replacement tags (comma-separated)")
}

// MemoryRecord matches internal/memory/record.go Record
type MemoryRecord struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// MemoryCreateRequest matches internal/http/api.go MemoryCreateRequest
type MemoryCreateRequest struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// MemoryUpdateRequest matches internal/http/api.go MemoryUpdateRequest
type MemoryUpdateRequest struct {
	Content *string   `json:"content,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// SearchResponse matches internal/http/api.go SearchResponse
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []MemoryRecord `json:"results"`
}

// DeleteResponse matches internal/http/api.go DeleteResponse
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// storeCmd stores a new memory
var storeCmd = &cobra.Command{
	Use:   "store <content>",
	Short: "Store a new memory",
	Long: `Store a new memory in the project's collection.

Examples:
  # Store a memory
  memctl store "use pgbouncer in front of postgres" --project api

  # Store with tags
  memctl store "rotate signing keys quarterly" --tags security,ops`,
	Args: cobra.ExactArgs(1),
	RunE: runStore,
}

// getCmd fetches one memory by ID
var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a memory by ID",
	Long: `Fetch a single memory by its ID.

Examples:
  # Get a memory
  memctl get 5f64ce58-a3dc-40e9-96e0-72ae76c38e4f --project api`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

// listCmd lists all memories in the project
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all memories",
	Long: `List every memory stored for the project.

Examples:
  # List memories
  memctl list --project api

  # Output as JSON
  memctl list --project api --json`,
	RunE: runList,
}

// searchCmd searches memories by similarity
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search memories by similarity",
	Long: `Search the project's memories for entries similar to the query.

Examples:
  # Search with the default result limit
  memctl search "connection pooling" --project api

  # Return more results
  memctl search "connection pooling" --limit 10`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

// updateCmd updates a memory's content and/or tags
var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a memory",
	Long: `Update a memory's content, tags, or both. Omitted fields keep their
stored value.

Examples:
  # Replace the content
  memctl update 5f64ce58-a3dc-40e9-96e0-72ae76c38e4f --content "use pgbouncer 1.21"

  # Replace the tags
  memctl update 5f64ce58-a3dc-40e9-96e0-72ae76c38e4f --tags infra,db

  # Clear the tags
  memctl update 5f64ce58-a3dc-40e9-96e0-72ae76c38e4f --tags ""`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

// deleteCmd deletes a memory by ID
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a memory",
	Long: `Delete a memory by its ID.

Examples:
  # Delete a memory
  memctl delete 5f64ce58-a3dc-40e9-96e0-72ae76c38e4f --project api`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runStore(cmd *cobra.Command, args []string) error {
	req := MemoryCreateRequest{
		Content: args[0],
		Tags:    memTags,
	}

	var rec MemoryRecord
	if err := doJSON(http.MethodPost, projectPath(""), req, &rec); err != nil {
		return err
	}

	if outputRawJSON {
		return outputJSON(rec)
	}

	fmt.Printf("Memory stored\n")
	printRecord(rec)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	var rec MemoryRecord
	if err := doJSON(http.MethodGet, projectPath("/"+url.PathEscape(args[0])), nil, &rec); err != nil {
		return err
	}

	if outputRawJSON {
		return outputJSON(rec)
	}

	printRecord(rec)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	var records []MemoryRecord
	if err := doJSON(http.MethodGet, projectPath(""), nil, &records); err != nil {
		return err
	}

	if outputRawJSON {
		return outputJSON(records)
	}

	if len(records) == 0 {
		fmt.Println("No memories found")
		return nil
	}

	printRecordTable(records)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	params := url.Values{}
	params.Set("query", args[0])
	params.Set("n_results", strconv.Itoa(memLimit))

	var result SearchResponse
	if err := doJSON(http.MethodGet, projectPath("/search")+"?"+params.Encode(), nil, &result); err != nil {
		return err
	}

	if outputRawJSON {
		return outputJSON(result)
	}

	if len(result.Results) == 0 {
		fmt.Println("No matching memories")
		return nil
	}

	printRecordTable(result.Results)
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	req := MemoryUpdateRequest{}
	if cmd.Flags().Changed("content") {
		req.Content = &memContent
	}
	if cmd.Flags().Changed("tags") {
		req.Tags = &memTags
	}
	if req.Content == nil && req.Tags == nil {
		return fmt.Errorf("at least one of --content or --tags is required")
	}

	var rec MemoryRecord
	if err := doJSON(http.MethodPut, projectPath("/"+url.PathEscape(args[0])), req, &rec); err != nil {
		return err
	}

	if outputRawJSON {
		return outputJSON(rec)
	}

	fmt.Printf("Memory updated\n")
	printRecord(rec)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	var result DeleteResponse
	if err := doJSON(http.MethodDelete, projectPath("/"+url.PathEscape(args[0])), nil, &result); err != nil {
		return err
	}

	if outputRawJSON {
		return outputJSON(result)
	}

	fmt.Printf("Memory %s deleted\n", args[0])
	return nil
}

// printRecord prints one memory in human-readable form.
func printRecord(rec MemoryRecord) {
	fmt.Printf("ID: %s\n", rec.ID)
	fmt.Printf("Content: %s\n", rec.Content)
	if len(rec.Tags) > 0 {
		fmt.Printf("Tags: %s\n", strings.Join(rec.Tags, ", "))
	}
}

// printRecordTable prints memories as a table.
func printRecordTable(records []MemoryRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCONTENT\tTAGS")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			truncate(rec.ID, 12),
			truncate(rec.Content, 60),
			strings.Join(rec.Tags, ","),
		)
	}
	w.Flush()
}
