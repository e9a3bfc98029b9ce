// Command nexus-receiver decodes Nexus-TH temperature/humidity sensor
// broadcasts from a 433MHz receiver on a GPIO line and publishes them to MQTT.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/sweeney/nexus-receiver/internal/config"
	"github.com/sweeney/nexus-receiver/internal/logging"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const defaultConfigFile = "/etc/nexus-receiver/config.yaml"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := &cli.App{
		Name:    "nexus-receiver",
		Usage:   "decode Nexus-TH 433MHz sensors and publish readings to MQTT",
		Version: version,
		UsageText: "nexus-receiver [--config <file>] [--simulate]" +
			"\n\nEXAMPLE:" +
			"\n\tdecode a captured edge log" +
			"\n\t\tnexus-receiver decode capture.txt",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: defaultConfigFile, Usage: "load configuration from `FILE`"},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: "`LEVEL` overrides log.level (debug|info|warn|error)"},
			&cli.StringFlag{Name: "broker", Usage: "MQTT broker `URL`, overrides mqtt.broker"},
			&cli.IntFlag{Name: "pin", Usage: "GPIO `LINE` of the receiver data output, overrides gpio.pin"},
			&cli.StringFlag{Name: "http", Usage: "HTTP status `ADDR`, overrides http.addr (empty disables)"},
			&cli.BoolFlag{Name: "simulate", Usage: "use synthetic transmitters instead of the radio"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}
			return runDaemon(c.String("config"), cfg)
		},
		Commands: []*cli.Command{
			{
				Name:  "print-config",
				Usage: "print the effective configuration as YAML",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					data, err := yaml.Marshal(cfg)
					if err != nil {
						return fmt.Errorf("encode config: %w", err)
					}
					_, err = c.App.Writer.Write(data)
					return err
				},
			},
			decodeCommand(),
			encodeCommand(),
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))
	return app
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}

	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("broker") {
		cfg.MQTT.Broker = c.String("broker")
	}
	if c.IsSet("pin") {
		cfg.GPIO.Pin = c.Int("pin")
	}
	if c.IsSet("http") {
		cfg.HTTP.Addr = c.String("http")
	}
	if c.Bool("simulate") {
		cfg.Simulate.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func setupLogging(cfg config.Config) error {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	slog.SetDefault(logging.New(os.Stderr, level, cfg.Log.Format, version))
	return nil
}
