package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"skillgap/internal/common"
	"skillgap/internal/formatters"
	"skillgap/internal/roles"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Inspect the known target roles and their skill scopes",
}

var rolesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the canonical target roles",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, r := range knownRoles() {
			fmt.Fprintln(cmd.OutOrStdout(), r)
		}
	},
}

var rolesNormalizeCmd = &cobra.Command{
	Use:   "normalize <role>",
	Short: "Show the canonical role a free-form role name maps to",
	Long: `Show the canonical role a free-form role name maps to. Names that match
no known role are printed back unchanged (trimmed).`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		input := strings.Join(args, " ")
		fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", strings.TrimSpace(input), roles.Normalize(input))
	},
}

var rolesScopeFormat string

var rolesScopeCmd = &cobra.Command{
	Use:   "scope <role>",
	Short: "Print the core, optional and excluded skills declared for a role",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())

		format := common.NormalizeFormat(rolesScopeFormat)
		if format == "" {
			format = "text"
		}

		canonical := roles.Normalize(strings.Join(args, " "))
		scope := roles.LoadScope(cfg.Knowledge.RolesPath(), canonical)
		if scope.Source == "" {
			return fmt.Errorf("no scope file found for role %q in %s", canonical, cfg.Knowledge.RolesPath())
		}

		out, err := formatters.NewFormatterRegistry().Format(scope, format)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Role: %s\n%s\n", canonical, out)
		return nil
	},
}

func init() {
	rolesScopeCmd.Flags().StringVar(&rolesScopeFormat, "format", "text", "Output format: json, text, or markdown")

	rolesCmd.AddCommand(rolesListCmd)
	rolesCmd.AddCommand(rolesNormalizeCmd)
	rolesCmd.AddCommand(rolesScopeCmd)
}

func knownRoles() []string {
	return roles.Known()
}
