package cli

import (
	"fmt"
	"log/slog"

	"github.com/centraunit/scopetree"
	"github.com/centraunit/scopetree/internal/manifest"
	"github.com/spf13/cobra"
)

// TreeOptions holds flags for the tree command.
type TreeOptions struct {
	Manifest string
	Plain    bool
}

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TreeOptions{}

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Build the scope tree described by a manifest and print it",
		Long: `Build the scope tree described by a screen manifest and print it.

Every screen is resolved through the factory resolver, so an invalid
manifest fails the same way the application would.

Examples:
  scopetree tree --manifest screens.yaml
  scopetree tree --plain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Manifest, "manifest", "m", "", "screen manifest (default from manifest.path)")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "print without colors")

	return cmd
}

func runTree(rootOpts *RootOptions, opts *TreeOptions, cmd *cobra.Command) error {
	cfg := rootOpts.Config()
	logger := rootOpts.Logger()

	path := opts.Manifest
	if path == "" {
		path = cfg.Manifest.Path
	}
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	catalog := manifest.DefaultCatalog()
	if err := m.Validate(catalog); err != nil {
		return fmt.Errorf("invalid manifest %s:\n%w", path, err)
	}

	mgr, err := BuildManifest(m, catalog, cfg.Tree.RootName, logger)
	if err != nil {
		return err
	}
	logger.Info("tree built", "manifest", path, "scopes", mgr.Len())

	var decorate scopetree.LabelFunc
	if !opts.Plain {
		decorate = styledLabel
	}
	return scopetree.Render(cmd.OutOrStdout(), mgr.Root(), decorate)
}

// BuildManifest creates a manager for m and resolves every screen.
// rootName applies when the manifest does not name its root.
func BuildManifest(m *manifest.Manifest, catalog manifest.Catalog, rootName string, logger *slog.Logger) (*scopetree.Manager, error) {
	opts := []scopetree.Option{scopetree.WithLogger(logger), scopetree.WithRootName(rootName)}
	opts = append(opts, m.Options()...)
	mgr, err := scopetree.NewManager(opts...)
	if err != nil {
		return nil, err
	}
	if err := manifest.Register(mgr.Resolver(), catalog); err != nil {
		return nil, err
	}
	if err := manifest.Build(mgr, m, logger); err != nil {
		return nil, err
	}
	return mgr, nil
}
