package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	"github.com/urfave/cli/v2"
)

func monitorCmd() *cli.Command {
	return &cli.Command{
		Name:  "monitor",
		Usage: "Live terminal dashboard of master status and recent transitions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ops-addr",
				Usage: "Operational server HTTP address",
				Value: "http://127.0.0.1:8090",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Poll interval",
				Value: time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			if err := ui.Init(); err != nil {
				return fmt.Errorf("init terminal ui: %w", err)
			}
			defer ui.Close()

			statusBox := widgets.NewParagraph()
			statusBox.Title = "Master Status"

			history := widgets.NewList()
			history.Title = "Recent Transitions"
			history.TextStyle = ui.NewStyle(ui.ColorYellow)

			width, height := ui.TerminalDimensions()
			statusBox.SetRect(0, 0, width, 3)
			history.SetRect(0, 3, width, height)

			ui.Render(statusBox, history)

			ticker := time.NewTicker(c.Duration("interval"))
			defer ticker.Stop()
			events := ui.PollEvents()
			addr := c.String("ops-addr")

			refresh := func() {
				body, err := fetchStatusz(addr)
				if err != nil {
					statusBox.Text = fmt.Sprintf("unreachable: %v", err)
					ui.Render(statusBox, history)
					return
				}
				statusBox.Text = body.Status
				rows := make([]string, 0, len(body.Recent))
				for i := len(body.Recent) - 1; i >= 0; i-- {
					r := body.Recent[i]
					rows = append(rows, fmt.Sprintf("[%d] %s station=%s %d->%d intents=%d",
						r.Seq, r.At.Format(time.TimeOnly), r.Station, r.From, r.To, r.Intents))
				}
				history.Rows = rows
				ui.Render(statusBox, history)
			}

			refresh()
			for {
				select {
				case e := <-events:
					switch e.ID {
					case "q", "<C-c>":
						return nil
					case "<Resize>":
						payload := e.Payload.(ui.Resize)
						statusBox.SetRect(0, 0, payload.Width, 3)
						history.SetRect(0, 3, payload.Width, payload.Height)
						ui.Render(statusBox, history)
					}
				case <-ticker.C:
					refresh()
				}
			}
		},
	}
}

func fetchStatusz(addr string) (*statuszResponse, error) {
	resp, err := http.Get(addr + "/statusz")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body statuszResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return &body, nil
}
