package container

import (
	"fmt"
	"io"

	"nathanbeddoewebdev/dockctl/cmd/commands/cmdutil"
	"nathanbeddoewebdev/dockctl/internal/domain"
	"nathanbeddoewebdev/dockctl/internal/iconprefs"
	"nathanbeddoewebdev/dockctl/internal/logging"

	"github.com/spf13/cobra"
)

// ListCommand returns the "container list" command.
func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List containers",
		Long: `List all containers on the Docker host with their status and image.

Examples:
  dockctl container list
  dockctl container list --icons
  dockctl container list -o json`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("icons", false, "Show the resolved icon for each container")
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

// listRow is the structured form of one container in json/yaml output.
type listRow struct {
	domain.Container `yaml:",inline"`
	Icon             string `json:"icon,omitempty" yaml:"icon,omitempty"`
	IconSource       string `json:"iconSource,omitempty" yaml:"icon_source,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	format, err := cmdutil.OutputFormat(cmd, e.sess.Config())
	if err != nil {
		return err
	}
	showIcons, _ := cmd.Flags().GetBool("icons")

	ctx, cancel := cmdutil.Context(cmd)
	defer cancel()

	items, err := e.svc.Refresh(ctx)
	if err != nil {
		return explain(cmd, err)
	}

	var mappings []iconprefs.Mapping
	if showIcons {
		mappings = loadMappings()
	}

	rows := make([]listRow, len(items))
	for i, c := range items {
		rows[i] = listRow{Container: c}
		if showIcons {
			rows[i].Icon, rows[i].IconSource = iconprefs.Resolve(c, mappings)
		}
	}

	if format == cmdutil.FormatTable && len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No containers found.")
		return nil
	}
	return cmdutil.Print(cmd, format, rows, func(w io.Writer) {
		writeTable(w, rows, showIcons)
	})
}

func writeTable(w io.Writer, rows []listRow, showIcons bool) {
	header := "ID\tNAME\tSTATUS\tIMAGE\tUPDATE\tCREATED\tUPTIME"
	if showIcons {
		header += "\tICON"
	}
	fmt.Fprintln(w, header)

	for _, r := range rows {
		update := "-"
		if r.HaveUpdate {
			update = "available"
		}
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\t%s",
			cmdutil.ShortID(r.ID),
			r.Name,
			r.Status,
			cmdutil.Dash(r.UsingImage),
			update,
			cmdutil.Ago(r.CreateTime),
			cmdutil.Dash(r.RunningTime),
		)
		if showIcons {
			line += "\t" + cmdutil.Dash(r.Icon)
		}
		fmt.Fprintln(w, line)
	}
}

// loadMappings reads the custom icon mappings. Icons are decoration, so a
// missing database only costs the custom entries.
func loadMappings() []iconprefs.Mapping {
	repo, err := iconprefs.Open()
	if err != nil {
		logging.L().WithError(err).Debug("icon preferences unavailable")
		return nil
	}
	defer repo.Close()

	mappings, err := repo.Mappings()
	if err != nil {
		logging.L().WithError(err).Debug("failed to read icon mappings")
		return nil
	}
	return mappings
}
