package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	_ "go.uber.org/automaxprocs"

	"github.com/vantle/sibyl/internal/sibylgate"
	"github.com/vantle/sibyl/internal/sibylgate/config"
	"github.com/vantle/sibyl/internal/sibylgate/options"
	"github.com/vantle/sibyl/pkg/logger"
	"github.com/vantle/sibyl/pkg/version"
)

func main() {
	opts := options.NewOptions()

	fs := pflag.NewFlagSet("sibylgate", pflag.ExitOnError)
	opts.AddFlags(fs)
	logLevel := fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	showVersion := fs.Bool("version", false, "Print version information and quit")
	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Println(version.Get())
		return
	}

	v := viper.New()
	_ = v.BindPFlags(fs)
	v.SetEnvPrefix("SIBYLGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "error: read config %s: %v\n", opts.ConfigFile, err)
			os.Exit(1)
		}
	}

	if err := v.Unmarshal(opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Options{Level: *logLevel})

	cfg, err := config.CreateConfigFromOptions(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting sibylgate: %s", opts.String())

	if err := sibylgate.Run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
