package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vantle/sibyl/internal/sibylctl/cmd/agent"
	"github.com/vantle/sibyl/internal/sibylctl/cmd/alert"
	"github.com/vantle/sibyl/internal/sibylctl/cmd/graph"
	"github.com/vantle/sibyl/internal/sibylctl/cmd/history"
	"github.com/vantle/sibyl/internal/sibylctl/cmd/incident"
	"github.com/vantle/sibyl/internal/sibylctl/cmd/info"
	"github.com/vantle/sibyl/internal/sibylctl/cmd/olap"
	"github.com/vantle/sibyl/internal/sibylctl/cmd/quality"
	"github.com/vantle/sibyl/internal/sibylctl/cmd/query"
	"github.com/vantle/sibyl/internal/sibylctl/cmd/upload"
	"github.com/vantle/sibyl/internal/sibylctl/cmd/util"
	versioncmd "github.com/vantle/sibyl/internal/sibylctl/cmd/version"
	"github.com/vantle/sibyl/pkg/cli/genericclioptions"
	"github.com/vantle/sibyl/pkg/logger"
)

var cfgFile string

// NewDefaultSibylCtlCommand creates the `sibylctl` command with default arguments.
func NewDefaultSibylCtlCommand() *cobra.Command {
	return NewSibylCtlCommand(os.Stdin, os.Stdout, os.Stderr)
}

// NewSibylCtlCommand creates the `sibylctl` command with the given streams.
func NewSibylCtlCommand(in io.Reader, out, err io.Writer) *cobra.Command {
	cmds := &cobra.Command{
		Use:   "sibylctl",
		Short: "sibylctl is the console for the sibyl data platform",
		Long: heredoc.Doc(`
			sibylctl is the CLI console for the sibyl data platform.

			Run natural-language-to-SQL queries against the ReAct agent, upload
			DDL and source archives for analysis, explore the knowledge graph,
			design OLAP cubes, and manage data-quality tests, incidents, alert
			rules and watch agents.`),
		Run: runHelp,
	}

	flags := cmds.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to the sibylctl config file (default: ~/.sibyl/config.yaml)")
	flags.String(util.FlagServerAddr, "http://localhost:11789", "Sibyl backend address")
	flags.String(util.FlagToken, "", "Bearer token for the backend")
	flags.String(util.FlagDataDir, "", "Local state directory (default: ~/.sibyl)")
	flags.Duration(util.FlagTimeout, 30*time.Second, "Request timeout for non-streaming calls")
	flags.String("log-level", "warn", "Log level (debug, info, warn, error)")

	_ = viper.BindPFlags(flags)
	cobra.OnInitialize(func() {
		loadConfig()
		logger.Init(logger.Options{Level: viper.GetString("log-level")})
	})

	ioStreams := genericclioptions.IOStreams{In: in, Out: out, ErrOut: err}
	f := util.NewFactory()

	cmds.AddCommand(query.NewCmdQuery(f, ioStreams))
	cmds.AddCommand(upload.NewCmdUpload(f, ioStreams))
	cmds.AddCommand(graph.NewCmdGraph(f, ioStreams))
	cmds.AddCommand(olap.NewCmdOLAP(f, ioStreams))
	cmds.AddCommand(quality.NewCmdQuality(f, ioStreams))
	cmds.AddCommand(incident.NewCmdIncident(f, ioStreams))
	cmds.AddCommand(alert.NewCmdAlert(f, ioStreams))
	cmds.AddCommand(agent.NewCmdAgent(f, ioStreams))
	cmds.AddCommand(history.NewCmdHistory(f, ioStreams))
	cmds.AddCommand(info.NewCmdInfo(ioStreams))
	cmds.AddCommand(versioncmd.NewCmdVersion(ioStreams))

	return cmds
}

// loadConfig reads the config file and environment into viper. A missing
// config file is not an error; flags and env carry the defaults.
func loadConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".sibyl"))
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SIBYL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Debug("using config file: %s", viper.ConfigFileUsed())
	}
}

func runHelp(cmd *cobra.Command, args []string) {
	_ = cmd.Help()
}
