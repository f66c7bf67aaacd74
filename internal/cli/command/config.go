package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv-go/internal/cli/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:  "init",
				Usage: "Write the effective configuration to the config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "overwrite an existing file",
					},
				},
				Action: configInit,
			},
		},
	}
}

// configView is the printable form of the effective configuration.
type configView struct {
	Path    string `json:"path" yaml:"path"`
	Server  string `json:"server" yaml:"server"`
	HTTP    string `json:"http" yaml:"http"`
	Output  string `json:"output" yaml:"output"`
	Timeout string `json:"timeout" yaml:"timeout"`
}

func (v configView) Plain() string {
	return fmt.Sprintf("path: %s\nserver: %s\nhttp: %s\noutput: %s\ntimeout: %s",
		v.Path, v.Server, v.HTTP, v.Output, v.Timeout)
}

func (v configView) Headers() []string {
	return []string{"FIELD", "VALUE"}
}

func (v configView) Rows() [][]string {
	return [][]string{
		{"path", v.Path},
		{"server", v.Server},
		{"http", v.HTTP},
		{"output", v.Output},
		{"timeout", v.Timeout},
	}
}

func configShow(c *cli.Context) error {
	s, err := GetSettings(c)
	if err != nil {
		return err
	}
	return render(c, s, configView{
		Path:    s.ConfigPath,
		Server:  s.Config.Server,
		HTTP:    s.Config.HTTP,
		Output:  string(s.Format),
		Timeout: s.Config.Timeout.String(),
	})
}

func configInit(c *cli.Context) error {
	s, err := GetSettings(c)
	if err != nil {
		return err
	}
	if !c.Bool("force") {
		if _, err := os.Stat(s.ConfigPath); err == nil {
			return cli.Exit(s.ConfigPath+" exists; use --force to overwrite", 1)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := config.Save(s.Config, s.ConfigPath); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", s.ConfigPath)
	return nil
}
