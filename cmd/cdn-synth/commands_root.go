package main

import "github.com/spf13/cobra"

const defaultConfigPath = "site.yaml"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "cdn-synth",
		Short:         "Synthesize a CloudFront site from a site file",
		Long:          "cdn-synth turns a YAML site file into a CDK cloud assembly: a CloudFront distribution with its certificate, alias records and redirects.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	registerSynthCommand(root)
	registerValidateCommand(root)
	return root
}
