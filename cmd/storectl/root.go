package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/webstore/internal/app"
	"github.com/vladislavdragonenkov/webstore/internal/version"
)

// cli хранит общие флаги и лениво созданных клиентов.
type cli struct {
	lookup      app.EnvLookup
	apiURL      string
	identityURL string
	timeout     time.Duration
	jsonOutput  bool

	services *app.RemoteServices
}

func newRootCmd(lookup app.EnvLookup) *cobra.Command {
	c := &cli{lookup: lookup}

	root := &cobra.Command{
		Use:           "storectl",
		Short:         "WebStore CLI over the remote Web API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "Web API base URL (fallback: "+app.EnvAPIURL+")")
	root.PersistentFlags().StringVar(&c.identityURL, "identity-url", "", "identity base URL (fallback: "+app.EnvIdentityURL+")")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 0, "call timeout including retries")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "output JSON")

	root.AddCommand(
		c.employeesCmd(),
		c.catalogCmd(),
		c.ordersCmd(),
		c.valuesCmd(),
		c.usersCmd(),
		c.rolesCmd(),
		eventsCmd(),
		c.versionCmd(),
	)
	return root
}

// remote собирает клиентов при первом обращении: флаги имеют приоритет над окружением.
func (c *cli) remote(cmd *cobra.Command) (*app.RemoteServices, error) {
	if c.services != nil {
		return c.services, nil
	}

	cfg, warnings := app.ReadRemoteConfig(c.lookup)
	for _, warning := range warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", warning)
	}
	if c.apiURL != "" {
		cfg.APIURL = c.apiURL
	}
	if c.identityURL != "" {
		cfg.IdentityURL = c.identityURL
	}
	if c.timeout > 0 {
		cfg.CallTimeout = c.timeout
	}

	services, err := app.NewRemoteServices(cfg, app.WithRemoteLogger(log.WithField("component", "storectl")))
	if err != nil {
		return nil, err
	}
	c.services = services
	return services, nil
}

// render печатает v как JSON при --json, иначе таблицей.
func (c *cli) render(out io.Writer, v any, header table.Row, rows []table.Row) error {
	if c.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(header)
	tw.AppendRows(rows)
	tw.Render()
	return nil
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			if c.jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info)
			return err
		},
	}
}
