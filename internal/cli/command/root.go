package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minikv-go/internal/cli/config"
	"github.com/yndnr/minikv-go/internal/cli/connection"
	"github.com/yndnr/minikv-go/internal/cli/output"
	"github.com/yndnr/minikv-go/internal/infra/buildinfo"
	"github.com/yndnr/minikv-go/internal/infra/tlsroots"
)

const settingsKey = "settings"

// Settings is the resolved CLI configuration for one invocation.
type Settings struct {
	Config     *config.CLIConfig
	ConfigPath string
	Format     output.Format
	Formatter  output.Formatter
	CAFile     string
}

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "minikv-cli",
		Usage:   "minikv command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ExecCommand(),
			ReplCommand(),
			HealthCommand(),
			KeysCommand(),
			ConfigCommand(),
		},
		Before: func(c *cli.Context) error {
			s, err := resolveSettings(c)
			if err != nil {
				return err
			}
			if c.App.Metadata == nil {
				c.App.Metadata = make(map[string]any)
			}
			c.App.Metadata[settingsKey] = s
			return nil
		},
		Action: replAction,
	}

	return app
}

// globalFlags returns the global CLI flags. Unset flags fall back to
// the config file, then to built-in defaults.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "text protocol address, host:port or unix:/path (default 127.0.0.1:6380)",
			EnvVars: []string{"MINIKV_SERVER"},
		},
		&cli.StringFlag{
			Name:    "http",
			Usage:   "HTTP API address (default 127.0.0.1:8080)",
			EnvVars: []string{"MINIKV_HTTP"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: plain, json, yaml, table",
			EnvVars: []string{"MINIKV_OUTPUT"},
		},
		&cli.StringFlag{
			Name:    "timeout",
			Usage:   "per-request timeout (default 10s)",
			EnvVars: []string{"MINIKV_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "extra CA certificate (PEM) trusted for an https --http address",
			EnvVars: []string{"MINIKV_CA_FILE"},
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file",
			EnvVars: []string{"MINIKV_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
	}
}

func resolveSettings(c *cli.Context) (*Settings, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg, err = config.Merge(cfg, config.Overrides{
		Server:  c.String("server"),
		HTTP:    c.String("http"),
		Output:  c.String("output"),
		Timeout: c.String("timeout"),
	})
	if err != nil {
		return nil, err
	}
	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}
	return &Settings{
		Config:     cfg,
		ConfigPath: path,
		Format:     format,
		Formatter:  output.NewFormatter(format),
		CAFile:     c.String("ca-file"),
	}, nil
}

// GetSettings retrieves the settings resolved in Before.
func GetSettings(c *cli.Context) (*Settings, error) {
	if s, ok := c.App.Metadata[settingsKey].(*Settings); ok {
		return s, nil
	}
	return nil, fmt.Errorf("settings not initialized")
}

// httpClient builds the API client, trusting CAFile when set.
func httpClient(s *Settings) (*connection.HTTPClient, error) {
	var opts []connection.HTTPOption
	if s.CAFile != "" {
		tlsCfg, err := tlsroots.ClientConfig(s.CAFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, connection.WithTLSConfig(tlsCfg))
	}
	return connection.NewHTTPClient(s.Config.HTTP, s.Config.Timeout, opts...), nil
}

// render writes data to the app writer in the selected format.
func render(c *cli.Context, s *Settings, data any) error {
	return s.Formatter.Format(c.App.Writer, data)
}

// requestContext bounds one request by the configured timeout.
func requestContext(c *cli.Context, s *Settings) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context, s.Config.Timeout)
}
