package version

import (
	"fmt"
	"io"
	"time"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/backend"
	"nathanbeddoewebdev/dockctl/internal/swrcache"

	"github.com/spf13/cobra"
)

// Version is the CLI build version, set with -ldflags at release time.
var Version = "dev"

// remoteTTL bounds how often the release feed is consulted.
const remoteTTL = time.Hour

type report struct {
	CLI             string              `json:"cli" yaml:"cli"`
	Backend         string              `json:"backend" yaml:"backend"`
	Local           backend.VersionInfo `json:"local" yaml:"local"`
	Remote          backend.VersionInfo `json:"remote" yaml:"remote"`
	UpdateAvailable bool                `json:"update_available" yaml:"update_available"`
}

// NewCommand returns the "version" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show CLI and backend versions",
		Long: `Show the CLI version, the backend's running version and the newest
published backend release. The release lookup is cached for an hour.

Examples:
  dockctl version
  dockctl version --refresh
  dockctl version -o json`,
		Args:         cobra.NoArgs,
		RunE:         runVersion,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("refresh", false, "Bypass the cached release lookup")
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runVersion(cmd *cobra.Command, args []string) error {
	client, sess, err := cmdutil.Client(cmd)
	if err != nil {
		return err
	}
	format, err := cmdutil.OutputFormat(cmd, sess.Config())
	if err != nil {
		return err
	}

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	local, err := client.LocalVersion(ctx)
	if err != nil {
		return err
	}

	cache := swrcache.NewDefault(swrcache.WithTTL(remoteTTL, 24*time.Hour))
	defer cache.Wait(ctx)

	key := "version:" + sess.BaseURL()
	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
		_ = cache.Invalidate(key)
	}
	remote, err := swrcache.GetOrFetch(cache, ctx, key, client.RemoteVersion)
	if err != nil {
		return err
	}

	r := report{
		CLI:             Version,
		Backend:         sess.BaseURL(),
		Local:           local,
		Remote:          remote,
		UpdateAvailable: backend.UpdateAvailable(local.Version, remote.Version),
	}

	return cmdutil.Print(cmd, format, r, func(w io.Writer) {
		fmt.Fprintf(w, "CLI:\t%s\n", r.CLI)
		fmt.Fprintf(w, "Backend:\t%s\n", r.Backend)
		fmt.Fprintf(w, "Running:\t%s\n", cmdutil.Dash(r.Local.Version))
		fmt.Fprintf(w, "Latest:\t%s\n", cmdutil.Dash(r.Remote.Version))
		if r.UpdateAvailable {
			fmt.Fprintf(w, "\nA backend update is available: %s\n", cmdutil.Dash(r.Remote.UpdateURL))
		}
	})
}
