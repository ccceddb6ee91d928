package cmd

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/Knowrithm/knowrithm-cli/api"
	"github.com/Knowrithm/knowrithm-cli/format"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Health checks and global utilities",
}

// fetchPublic issues an unauthenticated GET.
func fetchPublic(cmd *cobra.Command, path string) error {
	f, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	resp, err := client.Get(cmd.Context(), path, &api.RequestOptions{Auth: api.AuthNone})
	if err != nil {
		return err
	}
	return printResult(cmd, resp, f)
}

var systemHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Call the health endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchPublic(cmd, "/api/health")
	},
}

var systemTaskStatusCmd = &cobra.Command{
	Use:   "task-status <task-id>",
	Short: "Poll task status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchPublic(cmd, "/api/v1/tasks/"+url.PathEscape(args[0])+"/status")
	},
}

var systemAddressSeedCmd = &cobra.Command{
	Use:   "address-seed",
	Short: "Trigger address seed data population",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchPublic(cmd, "/api/v1/address-seed")
	},
}

var systemCountriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List countries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/country", nil)
	},
}

var systemCountryCmd = &cobra.Command{
	Use:   "country <country-id>",
	Short: "Get a country by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/country/"+url.PathEscape(args[0]), nil)
	},
}

var systemStatesCmd = &cobra.Command{
	Use:   "states <country-id>",
	Short: "List states for a country",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/state/country/"+url.PathEscape(args[0]), nil)
	},
}

var systemStateCmd = &cobra.Command{
	Use:   "state <state-id>",
	Short: "Get a state and its cities",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/state/"+url.PathEscape(args[0]), nil)
	},
}

var systemCitiesCmd = &cobra.Command{
	Use:   "cities <state-id>",
	Short: "List cities for a state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/city/state/"+url.PathEscape(args[0]), nil)
	},
}

var systemCityCmd = &cobra.Command{
	Use:   "city <city-id>",
	Short: "Get a city by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndPrint(cmd, "/api/v1/city/"+url.PathEscape(args[0]), nil)
	},
}

func init() {
	rootCmd.AddCommand(systemCmd)

	for _, c := range []*cobra.Command{systemHealthCmd, systemTaskStatusCmd, systemAddressSeedCmd} {
		systemCmd.AddCommand(c)
		addFormatFlag(c, format.JSON)
	}
	for _, c := range []*cobra.Command{
		systemCountriesCmd, systemCountryCmd, systemStatesCmd,
		systemStateCmd, systemCitiesCmd, systemCityCmd,
	} {
		systemCmd.AddCommand(c)
		addAuthFlag(c)
	}
	addFormatFlag(systemCountriesCmd, format.Table)
	addFormatFlag(systemStatesCmd, format.Table)
	addFormatFlag(systemCitiesCmd, format.Table)
	addFormatFlag(systemCountryCmd, format.JSON)
	addFormatFlag(systemStateCmd, format.JSON)
	addFormatFlag(systemCityCmd, format.JSON)
}
