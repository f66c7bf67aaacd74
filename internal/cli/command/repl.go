package command

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv-go/internal/cli/connection"
	"github.com/yndnr/minikv-go/internal/cli/repl"
)

// ReplCommand returns the repl command.
func ReplCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "Start an interactive session",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "do not read or write ~/.minikv/history",
			},
		},
		Action: replAction,
	}
}

func replAction(c *cli.Context) error {
	if c.NArg() > 0 {
		return cli.Exit("unknown command "+c.Args().First()+"; try exec", 2)
	}
	s, err := GetSettings(c)
	if err != nil {
		return err
	}

	client, err := connection.DialTCP(c.Context, s.Config.Server, s.Config.Timeout)
	if err != nil {
		return cli.Exit(err.Error(), 3)
	}
	defer client.Close()

	historyFile := repl.DefaultHistoryFile()
	if c.Bool("no-history") {
		historyFile = ""
	}

	in := c.App.Reader
	if in == nil {
		in = os.Stdin
	}
	r := repl.New(client, in, c.App.Writer,
		repl.WithFormatter(s.Formatter),
		repl.WithHistory(repl.NewHistory(historyFile)),
	)
	if err := r.Run(c.Context); err != nil {
		return cli.Exit(err.Error(), 3)
	}
	return nil
}
