package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theory-cloud/cdntheory/pkg/domain"
	"github.com/theory-cloud/cdntheory/pkg/siteconfig"
)

func registerValidateCommand(root *cobra.Command) {
	var configPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a site file without synthesizing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Site file path")
	root.AddCommand(cmd)
}

func runValidate(out io.Writer, configPath string) error {
	site, err := siteconfig.Load(configPath)
	if err != nil {
		return err
	}
	cfg, err := domain.Normalize(site.Domain.Value)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "site file is valid")
	fmt.Fprintf(out, "  stack: %s\n", site.StackName())
	if cfg == nil {
		fmt.Fprintln(out, "  domain: none (cloudfront.net only)")
		return nil
	}
	fmt.Fprintf(out, "  domain: %s\n", strings.Join(cfg.Names(), ", "))
	if len(cfg.Redirects) > 0 {
		fmt.Fprintf(out, "  redirects: %s\n", strings.Join(cfg.Redirects, ", "))
	}
	fmt.Fprintf(out, "  zone lookup: %s\n", site.ZoneLookup)
	fmt.Fprintf(out, "  certificates: %s\n", site.Certificates)
	return nil
}
