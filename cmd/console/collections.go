package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"console/internal/client"
	"console/internal/view"
)

func apiClient() *client.Client {
	return client.New(client.Config{BaseURL: cfg.APIURL})
}

// collectionsCmd represents the collections command
var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Manage collections",
	Long:  `Commands for working with the collections of an app on a running server (API_URL).`,
}

var listCollectionsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		cols, err := apiClient().ListEntityTypes(cmd.Context(), appID)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDISPLAY NAME\tFIELDS\tCREATE\tUPDATE\tDELETE")
		for _, c := range cols {
			fmt.Fprintf(w, "%s\t%s\t%d\t%t\t%t\t%t\n", c.Name, c.DisplayName, len(c.Schema), c.CanCreate, c.CanUpdate, c.CanDelete)
		}
		return w.Flush()
	},
}

// recordsCmd represents the records command
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage records",
	Long:  `Commands for working with the records of a collection on a running server (API_URL).`,
}

var listRecordsCmd = &cobra.Command{
	Use:   "list [collection]",
	Short: "List the records of a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := apiClient()
		col, err := c.GetEntityType(ctx, appID, args[0])
		if err != nil {
			return err
		}
		records, err := c.GetEntities(ctx, appID, args[0])
		if err != nil {
			return err
		}

		columns := view.ColumnsFromSchema(col.Schema)
		query, _ := cmd.Flags().GetString("query")
		records = view.Search(columns, records, query)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprint(w, "ID")
		for _, column := range columns {
			fmt.Fprintf(w, "\t%s", column.Label)
		}
		fmt.Fprintln(w)
		for _, rec := range records {
			fmt.Fprint(w, rec["id"])
			for _, column := range columns {
				val := view.GetCellValue(rec, column.Accessor)
				cell := view.FormatCell(val)
				if column.Render != nil {
					cell = column.Render(val, rec)
				}
				fmt.Fprintf(w, "\t%s", cell)
			}
			fmt.Fprintln(w)
		}
		return w.Flush()
	},
}

func init() {
	collectionsCmd.AddCommand(listCollectionsCmd)

	listRecordsCmd.Flags().StringP("query", "q", "", "Only show records matching this text")
	recordsCmd.AddCommand(listRecordsCmd)
}
