package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv-go/internal/cli/connection"
)

// ExecCommand returns the exec command.
func ExecCommand() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Aliases:   []string{"x"},
		Usage:     "Send one command and print the reply",
		ArgsUsage: "VERB [ARGS...]",
		Description: "Arguments are joined into one command line; arguments with\n" +
			"whitespace are quoted. An error reply exits with status 1.",
		SkipFlagParsing: true,
		Action:          execAction,
	}
}

func execAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("exec: missing command", 2)
	}
	s, err := GetSettings(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, s)
	defer cancel()

	client, err := connection.DialTCP(ctx, s.Config.Server, s.Config.Timeout)
	if err != nil {
		return cli.Exit(err.Error(), 3)
	}
	defer client.Close()

	line := connection.JoinArgs(c.Args().Slice())
	reply, err := client.Execute(ctx, line)
	if err != nil {
		return cli.Exit(err.Error(), 3)
	}

	result := connection.NewResult(line, reply)
	if err := render(c, s, result); err != nil {
		return err
	}
	if result.IsError() {
		return cli.Exit("", 1)
	}
	return nil
}
