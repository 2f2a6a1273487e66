package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bakito/crd-schema-gen/internal/config"
	"github.com/bakito/crd-schema-gen/internal/crd"
	"github.com/bakito/crd-schema-gen/internal/flags"
	"github.com/bakito/crd-schema-gen/internal/generator"
	"github.com/bakito/crd-schema-gen/internal/render"
	"github.com/bakito/crd-schema-gen/internal/source"
)

// version is set at build time.
var version = "devel"

var (
	configs  flags.ArrayFlags
	target   string
	format   string
	check    bool
	gitRef   string
	parallel int
	verbose  bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "crd-schema-gen",
		Short:        "Generate Kubernetes CustomResourceDefinitions from model declarations",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate CRD manifests from project files",
		RunE:  generate,
	}
	generateCmd.Flags().VarP(&configs, "config", "c", "Project file to process (repeatable)")
	generateCmd.Flags().StringVarP(&target, "target", "t", "", "The target directory to write the manifests to")
	generateCmd.Flags().StringVarP(&format, "format", "f", string(render.YAML), "Manifest format: yaml or json")
	generateCmd.Flags().BoolVar(&check, "check", false, "Compare the manifests in the target directory instead of writing them")
	generateCmd.Flags().StringVarP(&gitRef, "git", "g", "", "Read the project files from a git repository: host/org/repo@tag")
	generateCmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "Number of CRDs generated concurrently")
	_ = generateCmd.MarkFlagRequired("target")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	rootCmd.AddCommand(generateCmd, versionCmd)
	return rootCmd
}

func generate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if len(configs) == 0 {
		return fmt.Errorf("at least one project file must be defined")
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return err
	}

	paths := []string(configs)
	if gitRef != "" {
		ref, err := source.ParseRef(gitRef)
		if err != nil {
			return err
		}
		var cleanup func()
		paths, cleanup, err = source.Fetch(ctx, ref, configs)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", ref, err)
		}
		defer cleanup()
	}

	project, err := config.Load(paths...)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	reqs, err := project.Requests()
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	slog.With("resources", len(reqs), "models", len(project.Models)).DebugContext(ctx, "Project loaded")

	results, err := generator.GenerateAll(ctx, reqs, parallel)
	if err != nil {
		slog.ErrorContext(ctx, "Error generating CRDs", "error", err)
		return fmt.Errorf("failed to generate CRDs: %w", err)
	}
	docs := make([]*crd.Document, len(results))
	for i, r := range results {
		docs[i] = r.Document
	}

	if !check {
		return render.WriteManifests(docs, target, f)
	}

	drifts, err := render.CheckManifests(docs, target, f)
	if err != nil {
		return err
	}
	for _, d := range drifts {
		slog.With("file", d.File, "reason", d.Reason).WarnContext(ctx, "Manifest is out of date")
	}
	if len(drifts) > 0 {
		return fmt.Errorf("%d manifest(s) out of date", len(drifts))
	}
	slog.With("target", target, "manifests", len(docs)).InfoContext(ctx, "Manifests are up to date")
	return nil
}
