package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/webitel/genisys-master/config"
)

const (
	ServiceName      = "genisys-master"
	ServiceNamespace = "webitel"
)

var (
	version        = "0.0.0"
	commit         = "hash"
	commitDate     = time.Now().String()
	branch         = "branch"
	buildTimestamp = ""
)

// Run is the process entrypoint: builds the urfave/cli app and dispatches
// to one of serve/status/monitor/config.
func Run() error {
	app := &cli.App{
		Name:  ServiceName,
		Usage: "GENISYS wayside polling master",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config_file",
				Aliases: []string{"c"},
				Usage:   "Path to the configuration file",
				EnvVars: []string{"GENISYS_CONFIG_FILE"},
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			statusCmd(),
			monitorCmd(),
			configCmd(),
		},
	}

	return app.Run(os.Args)
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run the master controller",
		Action: func(c *cli.Context) error {
			cfg, v, err := config.LoadWithViper(c.String("config_file"))
			if err != nil {
				return err
			}
			app := NewApp(cfg, v)

			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("shutting down")
			return app.Stop(context.Background())
		},
	}
}
