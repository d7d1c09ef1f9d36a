package main

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/detgeo-mcp/internal/calib"
	"github.com/ironsheep/detgeo-mcp/internal/config"
	"github.com/ironsheep/detgeo-mcp/internal/geometry"
	"github.com/ironsheep/detgeo-mcp/internal/imaging"
	"github.com/ironsheep/detgeo-mcp/internal/raster"
	"github.com/ironsheep/detgeo-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// global flags
var (
	configPath  string
	logLevel    string
	verbosity   uint
	strictRoots bool

	cfg *config.Config
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "detgeo",
		Short: "detector geometry tools and MCP server",
		Long: "detgeo loads detector geometry files, evaluates pixel coordinates and image\n" +
			"indexes, renders pixel maps, locates calibration files and serves these\n" +
			"operations over MCP on stdin/stdout.",
		Version:       fmt.Sprintf("%s\n  Build time: %s\n  Git commit: %s", Version, BuildTime, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(configPath); err != nil {
				return err
			}
			applyFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			initLogger(cfg)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "TOML or YAML configuration file")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides "+config.EnvLogLevel)
	pf.UintVarP(&verbosity, "verbosity", "v", 0, "geometry diagnostics bit mask (1 file info, 2 objects, 4 parse warnings, 8 children, 16 relations, 32 coords)")
	pf.BoolVar(&strictRoots, "strict-roots", false, "reject geometry files with more than one top object")

	rootCmd.AddCommand(
		newInfoCmd(),
		newCoordsCmd(),
		newIndexesCmd(),
		newImageCmd(),
		newSaveCmd(),
		newFindCmd(),
		newCalibCmd(),
		newMCPCmd(),
	)
	return rootCmd
}

// applyFlags overrides configuration with explicitly set global flags.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	if flags.Changed("verbosity") {
		c.Geometry.Verbosity = geometry.Verbosity(verbosity)
	}
	if flags.Changed("strict-roots") {
		c.Geometry.StrictRoots = strictRoots
	}
}

// initLogger configures the global logger. Output goes to stderr because
// stdout carries command output and MCP traffic.
func initLogger(c *config.Config) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(c.LogLevel())
}

func loadGeometry(path string) (*geometry.Access, error) {
	return geometry.New(path, cfg.Geometry.Options(log.StandardLogger()))
}

// objectFlags registers --object and --index.
func objectFlags(cmd *cobra.Command, name *string, index *int) {
	cmd.Flags().StringVar(name, "object", "", "object name; empty selects the top object")
	cmd.Flags().IntVar(index, "index", 0, "object index")
}

type rasterFlags struct {
	scale   float64
	offsetX int
	offsetY int
}

func (r *rasterFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&r.scale, "scale", 0, "pixel size in coordinate units; 0 uses the pixel pitch")
	cmd.Flags().IntVar(&r.offsetX, "offset-x", 0, "index of coordinate x=0")
	cmd.Flags().IntVar(&r.offsetY, "offset-y", 0, "index of coordinate y=0")
}

// options merges the flags with the configured raster settings.
func (r *rasterFlags) options(cmd *cobra.Command) geometry.IndexOptions {
	opts := geometry.IndexOptions{Scale: cfg.Raster.Scale, Offset: cfg.Raster.Offset}
	if cmd.Flags().Changed("scale") {
		opts.Scale = r.scale
	}
	if cmd.Flags().Changed("offset-x") || cmd.Flags().Changed("offset-y") {
		opts.Offset = &raster.Offset{X: r.offsetX, Y: r.offsetY}
	}
	return opts
}

func newInfoCmd() *cobra.Command {
	var children bool
	cmd := &cobra.Command{
		Use:   "info <geometry-file>",
		Short: "print comments, objects and load statistics of a geometry file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			geo, err := loadGeometry(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			geo.PrintCommentsFromDict(w)
			fmt.Fprintln(w)
			if children {
				geo.PrintListOfGeosChildren(w)
			} else {
				geo.PrintListOfGeos(w)
			}

			st := geo.Stats()
			c, err := geo.PixelCoords("", 0)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "\ntop: %s  pixels: %d  lines: %d  records: %d  malformed: %d\n",
				geo.TopGeo().ID, c.Size(), st.Lines, st.Records, st.Malformed)
			for _, warn := range st.Warnings {
				fmt.Fprintf(w, "  %s\n", warn)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&children, "children", false, "list the children of every object")
	return cmd
}

func newCoordsCmd() *cobra.Command {
	var (
		name  string
		index int
	)
	cmd := &cobra.Command{
		Use:   "coords <geometry-file>",
		Short: "print pixel coordinates of an object in the top frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			geo, err := loadGeometry(args[0])
			if err != nil {
				return err
			}
			return geo.PrintPixelCoords(cmd.OutOrStdout(), name, index)
		},
	}
	objectFlags(cmd, &name, &index)
	return cmd
}

func newIndexesCmd() *cobra.Command {
	var (
		name  string
		index int
		rf    rasterFlags
	)
	cmd := &cobra.Command{
		Use:   "indexes <geometry-file>",
		Short: "print image indexes (ix iy) of every pixel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			geo, err := loadGeometry(args[0])
			if err != nil {
				return err
			}
			ix, err := geo.PixelCoordIndexes(name, index, rf.options(cmd))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			size := raster.Bounds(ix.IX, ix.IY)
			fmt.Fprintf(w, "# pixels: %d  image: %d rows x %d cols\n", ix.Size(), size.Rows, size.Cols)
			for i := range ix.IX {
				fmt.Fprintf(w, "%d %d\n", ix.IX[i], ix.IY[i])
			}
			return nil
		},
	}
	objectFlags(cmd, &name, &index)
	rf.register(cmd)
	return cmd
}

func newImageCmd() *cobra.Command {
	var (
		name     string
		index    int
		rf       rasterFlags
		out      string
		weights  string
		colormap string
		zoom     int
		gamma    float64
		flipY    bool
		grid     int
		labels   bool
	)
	cmd := &cobra.Command{
		Use:   "image <geometry-file>",
		Short: "rasterize the pixels of an object and save the picture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			geo, err := loadGeometry(args[0])
			if err != nil {
				return err
			}

			var w []float64
			switch weights {
			case "ones":
			case "area":
				if w, err = geo.PixelAreas(name, index); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown weights %q: must be ones or area", weights)
			}

			img, err := geo.Image(name, index, rf.options(cmd), w)
			if err != nil {
				return err
			}
			if img.Dropped > 0 {
				log.WithField("dropped", img.Dropped).Warn("pixels outside the image were skipped")
			}

			opts := cfg.Render
			flags := cmd.Flags()
			if flags.Changed("colormap") {
				opts.Colormap = colormap
			}
			if flags.Changed("zoom") {
				opts.Zoom = zoom
			}
			if flags.Changed("gamma") {
				opts.Gamma = gamma
			}
			if flags.Changed("flip-y") {
				opts.FlipY = flipY
			}
			if flags.Changed("grid") {
				opts.Grid.Spacing = grid
			}
			if flags.Changed("labels") {
				opts.Grid.Labels = labels
			}

			rendered, err := imaging.Render(img.Dense, opts)
			if err != nil {
				return err
			}
			if err := imaging.Save(rendered, out); err != nil {
				return err
			}

			st := imaging.Stats(img.Dense, opts.Region)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d cells, min %g max %g sum %g\n",
				out, st.Cols, st.Rows, st.Min, st.Max, st.Sum)
			return nil
		},
	}
	objectFlags(cmd, &name, &index)
	rf.register(cmd)
	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "detgeo.png", "output file; the extension selects the format")
	f.StringVar(&weights, "weights", "ones", "per-pixel value: ones or area")
	f.StringVar(&colormap, "colormap", "", "gray, viridis, hot, jet or comma separated hex colors")
	f.IntVar(&zoom, "zoom", 1, "screen pixels per image cell")
	f.Float64Var(&gamma, "gamma", 0, "gamma correction")
	f.BoolVar(&flipY, "flip-y", false, "draw row 0 at the bottom")
	f.IntVar(&grid, "grid", 0, "grid spacing in cells; 0 disables the grid")
	f.BoolVar(&labels, "labels", false, "label grid crossings")
	return cmd
}

func newSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <geometry-file> <output-file>",
		Short: "write a geometry back in file format",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			geo, err := loadGeometry(args[0])
			if err != nil {
				return err
			}
			f, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", args[1], err)
			}
			if _, err := geo.WriteTo(f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
}

// calibFlags registers --calib-dir and --group on top of the configured
// values.
func calibFlags(cmd *cobra.Command, dir, group *string) {
	cmd.Flags().StringVar(dir, "calib-dir", "", "calibration directory; overrides "+config.EnvCalibDir)
	cmd.Flags().StringVar(group, "group", "", "calibration group, e.g. PNCCD::CalibV1; derived from the source when empty")
}

func calibSettings(dir, group string) (string, string) {
	if dir == "" {
		dir = cfg.Calib.Dir
	}
	if group == "" {
		group = cfg.Calib.Group
	}
	return dir, group
}

func newFindCmd() *cobra.Command {
	var dir, group string
	var create bool
	var end int
	cmd := &cobra.Command{
		Use:   "find <source> <type> <run>",
		Short: "print the calibration file valid for a run",
		Long: "find prints the calibration file of the given type valid for a run.\n" +
			"With --create it instead prints the name for a new file covering\n" +
			"run..--end, creating missing directories.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctype, err := calib.ParseCalibType(args[1])
			if err != nil {
				return err
			}
			var run int
			if _, err := fmt.Sscanf(args[2], "%d", &run); err != nil {
				return fmt.Errorf("invalid run %q: %w", args[2], err)
			}

			d, g := calibSettings(dir, group)
			f := &calib.Finder{
				Dir:       d,
				Group:     g,
				Logger:    log.StandardLogger(),
				Verbosity: calib.LogWarnings | calib.LogSelected,
			}

			var path string
			if create {
				path, err = f.MakeCalibFileName(args[0], ctype, run, end)
			} else {
				path, err = f.FindCalibFile(args[0], ctype, run)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	calibFlags(cmd, &dir, &group)
	cmd.Flags().BoolVar(&create, "create", false, "make a file name for new constants instead of searching")
	cmd.Flags().IntVar(&end, "end", calib.OpenEnd, "last run covered by a created file; -1 for open ended")
	return cmd
}

func newCalibCmd() *cobra.Command {
	var dir, group string
	cmd := &cobra.Command{
		Use:   "calib <source> <run>",
		Short: "list the calibration files of every type for a source and run",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var run int
			if _, err := fmt.Sscanf(args[1], "%d", &run); err != nil {
				return fmt.Errorf("invalid run %q: %w", args[1], err)
			}
			d, g := calibSettings(dir, group)
			pars, err := calib.Create(d, g, args[0], run, calib.Options{Logger: log.StandardLogger()})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "source: %s  detector: %s  group: %s  run: %d\n", pars.Source, pars.DetType, pars.Group, pars.Run)
			if pars.Base != nil {
				fmt.Fprintf(w, "shape: %v  size: %d\n", pars.Base.Shape, pars.Base.Size())
			}
			for _, ctype := range pars.Found() {
				path, _ := pars.Path(ctype)
				fmt.Fprintf(w, "  %-13s %s\n", ctype, filepath.Base(path))
			}
			return nil
		},
	}
	calibFlags(cmd, &dir, &group)
	return cmd
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "serve geometry tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.WithFields(log.Fields{
				"version": Version,
				"built":   BuildTime,
				"commit":  GitCommit,
			}).Debug("starting MCP server")
			return server.New(cfg, log.StandardLogger()).Run()
		},
	}
}
