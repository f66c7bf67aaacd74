package command

import "github.com/urfave/cli/v2"

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check server health over HTTP",
		Action: healthAction,
	}
}

// KeysCommand returns the keys command.
func KeysCommand() *cli.Command {
	return &cli.Command{
		Name:   "keys",
		Usage:  "List live keys over HTTP, sorted",
		Action: keysAction,
	}
}

func healthAction(c *cli.Context) error {
	s, err := GetSettings(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, s)
	defer cancel()

	client, err := httpClient(s)
	if err != nil {
		return err
	}
	h, err := client.Health(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 3)
	}
	return render(c, s, h)
}

func keysAction(c *cli.Context) error {
	s, err := GetSettings(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, s)
	defer cancel()

	client, err := httpClient(s)
	if err != nil {
		return err
	}
	keys, err := client.Keys(ctx)
	if err != nil {
		return cli.Exit(err.Error(), 3)
	}
	return render(c, s, keys)
}
