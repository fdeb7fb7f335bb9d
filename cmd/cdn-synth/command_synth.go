package main

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/spf13/cobra"

	cdntheory "github.com/theory-cloud/cdntheory"
	"github.com/theory-cloud/cdntheory/pkg/logger"
	"github.com/theory-cloud/cdntheory/pkg/observability"
	obszap "github.com/theory-cloud/cdntheory/pkg/observability/zap"
	"github.com/theory-cloud/cdntheory/pkg/siteconfig"
)

// componentID is the construct id of the CDN component inside the site stack.
const componentID = "Cdn"

type synthOptions struct {
	configPath string
	outDir     string
}

func registerSynthCommand(root *cobra.Command) {
	opts := synthOptions{}
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize the site stack into a cloud assembly",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Site file path")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "cdk.out", "Cloud assembly output directory")
	root.AddCommand(cmd)
}

func runSynth(ctx context.Context, out io.Writer, opts synthOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	site, err := siteconfig.Load(opts.configPath)
	if err != nil {
		return err
	}

	log, err := obszap.NewZapLogger(site.LoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	logger.SetLogger(log)
	defer func() { _ = log.Flush(ctx) }()

	app := awscdk.NewApp(&awscdk.AppProps{Outdir: jsii.String(opts.outDir)})
	stack, _, err := buildStack(ctx, app, site, log)
	if err != nil {
		return err
	}

	assembly := app.Synth(nil)
	log.Info("cdn.synth.completed", map[string]any{
		"stack":  *stack.StackName(),
		"outdir": *assembly.Directory(),
	})
	fmt.Fprintf(out, "synthesized %s to %s\n", *stack.StackName(), *assembly.Directory())
	return nil
}

// buildStack adds the site stack and its CDN component to app.
func buildStack(ctx context.Context, app awscdk.App, site *siteconfig.Site, log observability.StructuredLogger) (awscdk.Stack, *cdntheory.Cdn, error) {
	name := site.StackName()
	stack := awscdk.NewStack(app, jsii.String(name), &awscdk.StackProps{
		StackName:             jsii.String(name),
		Env:                   site.Env(),
		CrossRegionReferences: jsii.Bool(site.Certificates == siteconfig.CertificatesCrossRegion),
	})
	awscdk.Tags_Of(stack).Add(jsii.String("app"), jsii.String(site.App), nil)
	if stage := site.Stage; stage != "" {
		awscdk.Tags_Of(stack).Add(jsii.String("stage"), jsii.String(stage), nil)
	}

	props, err := site.Props(ctx, app, log.WithStack(name))
	if err != nil {
		return nil, nil, err
	}
	c, err := cdntheory.NewCdn(stack, componentID, props)
	if err != nil {
		return nil, nil, err
	}
	return stack, c, nil
}
