package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

// statuszResponse mirrors internal/opsserver's wire shape; duplicated
// here rather than imported so the CLI binary doesn't pull in the
// opsserver's HTTP/gRPC server stack just to read its output. Field
// names match observability.Record's default (untagged) JSON encoding.
type statuszResponse struct {
	Status string `json:"status"`
	Recent []struct {
		Seq     uint64    `json:"Seq"`
		At      time.Time `json:"At"`
		Event   uint8     `json:"Event"`
		Station string    `json:"Station"`
		From    uint8     `json:"From"`
		To      uint8     `json:"To"`
		Intents uint16    `json:"Intents"`
	} `json:"recent"`
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Print the current master status and recent transition history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ops-addr",
				Usage: "Operational server HTTP address",
				Value: "http://127.0.0.1:8090",
			},
		},
		Action: func(c *cli.Context) error {
			resp, err := http.Get(c.String("ops-addr") + "/statusz")
			if err != nil {
				return fmt.Errorf("reach operational server: %w", err)
			}
			defer resp.Body.Close()

			var body statuszResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return fmt.Errorf("decode status response: %w", err)
			}

			fmt.Fprintf(os.Stdout, "status: %s\n\n", body.Status)

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Seq", "At", "Event", "Station", "From", "To", "Intents"})
			table.SetAutoWrapText(false)
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetCenterSeparator("")
			table.SetColumnSeparator("")
			table.SetRowSeparator("")
			table.SetHeaderLine(false)
			table.SetBorder(false)
			table.SetTablePadding("  ")
			table.SetNoWhiteSpace(true)

			for _, r := range body.Recent {
				table.Append([]string{
					fmt.Sprintf("%d", r.Seq),
					r.At.Format(time.RFC3339),
					fmt.Sprintf("%d", r.Event),
					r.Station,
					fmt.Sprintf("%d", r.From),
					fmt.Sprintf("%d", r.To),
					fmt.Sprintf("%d", r.Intents),
				})
			}
			table.Render()

			return nil
		},
	}
}
