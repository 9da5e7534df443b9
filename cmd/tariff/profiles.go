package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/tariff-impact/internal/cli"
	"github.com/Veraticus/tariff-impact/internal/common"
)

func profilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage saved business profiles",
		Long: `Save what a business imports and from where, then rerun the analysis
whenever rates change.`,
	}

	cmd.AddCommand(profilesSaveCmd())
	cmd.AddCommand(profilesNewCmd())
	cmd.AddCommand(profilesListCmd())
	cmd.AddCommand(profilesShowCmd())
	cmd.AddCommand(profilesRunCmd())
	cmd.AddCommand(profilesDeleteCmd())

	return cmd
}

func profilesSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <profile.yaml>",
		Short: "Save a profile from a YAML file",
		Long: `Save a profile from a YAML file. A profile with the same name is replaced.

Profile file layout:

  name: acme
  business_type: electronics retailer
  source_countries: [CN, VN]
  monthly_import_volume: 50000
  products:
    - classification_code: "8471.30.01"
      origin_country: CN
      import_value: 10000
      currency: USD`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			profile, err := loadProfile(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveProfile(ctx, profile); err != nil {
				return common.NewUserError("Cannot save profile", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved profile %q with %d product(s)", profile.Name, len(profile.Products))))
			return nil
		},
	}
}

func profilesNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new [name]",
		Short: "Create a profile interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), "Profile was not saved.")

			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			profile, err := cli.NewProfileForm(cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx, name)
			if err != nil {
				if errors.Is(err, cli.ErrInputCancelled) {
					return nil
				}
				return common.NewUserError("Profile form aborted", err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveProfile(ctx, profile); err != nil {
				return common.NewUserError("Cannot save profile", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved profile %q", profile.Name)))
			return nil
		},
	}
}

func profilesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			profiles, err := store.ListProfiles(ctx)
			if err != nil {
				return fmt.Errorf("failed to list profiles: %w", err)
			}
			return cli.RenderProfiles(cmd.OutOrStdout(), profiles)
		},
	}
}

func profilesShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a saved profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			profile, err := store.GetProfile(ctx, args[0])
			if err != nil {
				return common.NewUserError(fmt.Sprintf("No profile named %q", args[0]), err)
			}

			if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(profile); err != nil {
					return err
				}
				return enc.Close()
			}
			return cli.RenderProfile(cmd.OutOrStdout(), *profile)
		},
	}
	cmd.Flags().Bool("yaml", false, "print the profile as YAML (suitable for 'profiles save')")
	return cmd
}

func profilesRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run a bulk analysis over a saved profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			profile, err := store.GetProfile(ctx, args[0])
			_ = store.Close()
			if err != nil {
				return common.NewUserError(fmt.Sprintf("No profile named %q", args[0]), err)
			}
			if len(profile.Products) == 0 {
				return common.NewUserError(fmt.Sprintf("Profile %q has no products", profile.Name), errEmptyScenario)
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			quiet, _ := cmd.Flags().GetBool("quiet")
			return analyze(cmd, profile.Name, profile.Products, asJSON, quiet)
		},
	}
	cmd.Flags().Bool("json", false, "print the result as JSON")
	cmd.Flags().Bool("quiet", false, "hide the progress bar")
	return cmd
}

func profilesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteProfile(ctx, args[0]); err != nil {
				return common.NewUserError(fmt.Sprintf("Cannot delete profile %q", args[0]), err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted profile %q", args[0])))
			return nil
		},
	}
}
