package info

import (
	"fmt"
	"net"
	"strconv"

	"github.com/MakeNowJust/heredoc/v2"
	hoststat "github.com/likexian/host-stat-go"
	"github.com/spf13/cobra"

	"github.com/vantle/sibyl/internal/sibylctl/cmd/util"
	"github.com/vantle/sibyl/pkg/cli/genericclioptions"
)

var infoExample = heredoc.Doc(`
	# Print information about the host running sibylctl
	sibylctl info`)

// InfoOptions collects the host facts printed by `sibylctl info`.
type InfoOptions struct {
	HostName  string
	IPAddress string
	OSRelease string
	CPUCore   uint64
	MemTotal  string
	MemFree   string

	genericclioptions.IOStreams
}

// NewCmdInfo creates the `info` command.
func NewCmdInfo(ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := &InfoOptions{IOStreams: ioStreams}

	cmd := &cobra.Command{
		Use:                   "info",
		DisableFlagsInUseLine: true,
		Short:                 "Print host information",
		Long:                  "Print information about the machine running sibylctl, useful when filing incident reports.",
		Example:               infoExample,
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			util.CheckErr(o.Run())
		},
	}

	return cmd
}

// Run gathers and prints the host facts.
func (o *InfoOptions) Run() error {
	hostInfo, err := hoststat.GetHostInfo()
	if err != nil {
		return fmt.Errorf("get host info: %w", err)
	}
	o.HostName = hostInfo.HostName
	o.OSRelease = hostInfo.Release + " " + hostInfo.OSBit

	memStat, err := hoststat.GetMemStat()
	if err != nil {
		return fmt.Errorf("get mem stat: %w", err)
	}
	o.MemTotal = strconv.FormatUint(memStat.MemTotal, 10) + "M"
	o.MemFree = strconv.FormatUint(memStat.MemFree, 10) + "M"

	cpuStat, err := hoststat.GetCPUInfo()
	if err != nil {
		return fmt.Errorf("get cpu stat: %w", err)
	}
	o.CPUCore = cpuStat.CoreCount

	o.IPAddress = localIP()

	rows := []struct {
		label string
		value string
	}{
		{"HostName", o.HostName},
		{"IPAddress", o.IPAddress},
		{"OSRelease", o.OSRelease},
		{"CPUCore", strconv.FormatUint(o.CPUCore, 10)},
		{"MemTotal", o.MemTotal},
		{"MemFree", o.MemFree},
	}
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		fmt.Fprintf(o.Out, "%12s %s\n", row.label+":", row.value)
	}

	return nil
}

// localIP returns the preferred outbound address. The dial never sends a
// packet, it only resolves the route.
func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return ""
	}
	return addr.IP.String()
}
