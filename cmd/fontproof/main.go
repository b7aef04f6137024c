// Command fontproof renders font previews from the command line.
//
// It loads one or more font files, renders a sample string through the
// selected backend, and writes PNG previews (or JSON metadata) to an
// output directory.
package main

import (
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fontproof/fontproof"
	"github.com/fontproof/fontproof/backend"
	_ "github.com/fontproof/fontproof/backend/bitmap"
	_ "github.com/fontproof/fontproof/backend/metajson"
	_ "github.com/fontproof/fontproof/backend/vector"
	"github.com/fontproof/fontproof/config"
	"github.com/fontproof/fontproof/fontlist"
	"github.com/fontproof/fontproof/fontmeta"
	"github.com/fontproof/fontproof/render"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fontproof:", err)
		os.Exit(1)
	}
}

type flags struct {
	backendName string
	text        string
	size        float64
	fg          string
	bg          string
	padding     int
	outDir      string
	selected    []string
	variations  []string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "fontproof",
		Short:         "Render font previews",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if f.verbose {
				fontproof.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
		},
	}
	root.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newBackendsCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newRenderCmd(&f))
	return root
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List rendering backends and their availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			usable := make(map[backend.ID]bool)
			for _, id := range backend.Usable() {
				usable[id] = true
			}
			for _, id := range backend.Known() {
				state := "unavailable"
				if usable[id] {
					state = "usable"
				}
				desc, _ := backend.Describe(id)
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-12s %s\n", id, state, desc.Description)
			}
			return nil
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info FONT...",
		Short: "Print font metadata",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				rec, err := fontmeta.Extract(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\n", rec.Path)
				fmt.Fprintf(out, "  family:     %s\n", rec.Family)
				fmt.Fprintf(out, "  style:      %s\n", rec.Style)
				if rec.PostScript != "" {
					fmt.Fprintf(out, "  postscript: %s\n", rec.PostScript)
				}
				fmt.Fprintf(out, "  size:       %s\n", fontmeta.FormatFileSize(rec.FileSize))
				for _, axis := range rec.Axes {
					fmt.Fprintf(out, "  axis %s:   %s [%g..%g] default %g\n",
						axis.Tag, axis.Name, axis.Min, axis.Max, axis.Default)
				}
			}
			return nil
		},
	}
}

func newRenderCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render FONT...",
		Short: "Render sample-text previews for the given fonts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, f, args)
		},
	}

	cmd.Flags().StringVarP(&f.backendName, "backend", "b", "", "rendering backend (default: preferred usable)")
	cmd.Flags().StringVarP(&f.text, "text", "t", "", "sample text")
	cmd.Flags().Float64VarP(&f.size, "size", "s", 0, "font size in points")
	cmd.Flags().StringVar(&f.fg, "fg", "", "foreground color (#rrggbb[aa])")
	cmd.Flags().StringVar(&f.bg, "bg", "", "background color (#rrggbb[aa]); empty is transparent")
	cmd.Flags().IntVarP(&f.padding, "padding", "p", -1, "padding in pixels")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringSliceVar(&f.selected, "selected", nil, "render only these font paths")
	cmd.Flags().StringSliceVar(&f.variations, "var", nil, "variation coordinate tag=value (repeatable)")
	return cmd
}

func runRender(cmd *cobra.Command, f *flags, args []string) error {
	settings, err := startupSettings(f)
	if err != nil {
		return err
	}

	list := fontlist.New()
	for _, path := range args {
		if _, err := list.Add(path); err != nil {
			return err
		}
	}

	adapter, err := render.NewAdapter(backend.ID(settings.Backend))
	if err != nil {
		return err
	}
	orch := render.NewOrchestrator(adapter, render.NewCache(0))

	var scope []string
	if f.selected != nil {
		scope = make([]string, 0, len(f.selected))
		for _, p := range f.selected {
			abs, err := filepath.Abs(p)
			if err != nil {
				return fmt.Errorf("%w: resolving %s: %v", fontproof.ErrIO, p, err)
			}
			scope = append(scope, abs)
		}
	}

	outcome, err := orch.RenderBatch(cmd.Context(), list.Fonts(), settings, scope)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, s := range outcome.Successes {
		path, err := writeResult(f.outDir, s.Path, s.Result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s -> %s (%v)\n", s.Path, path, s.Result.Elapsed)
	}
	for _, fail := range outcome.Failures {
		fmt.Fprintf(out, "%s: FAILED: %v\n", fail.Path, fail.Err)
	}
	fmt.Fprintf(out, "%d ok, %d failed in %v\n",
		len(outcome.Successes), len(outcome.Failures), outcome.Elapsed)

	if len(outcome.Failures) > 0 {
		return fmt.Errorf("%d font(s) failed to render", len(outcome.Failures))
	}
	return nil
}

// startupSettings layers the config file under the command-line flags.
func startupSettings(f *flags) (fontproof.RenderSettings, error) {
	var settings fontproof.RenderSettings

	cfgPath, err := config.DefaultPath()
	if err == nil {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return settings, err
		}
		settings, err = cfg.Settings()
		if err != nil {
			return settings, err
		}
	} else {
		settings = fontproof.DefaultSettings()
	}

	if f.backendName != "" {
		settings.Backend = f.backendName
	}
	if f.text != "" {
		settings.SampleText = f.text
	}
	if f.size > 0 {
		settings.FontSize = f.size
	}
	if f.padding >= 0 {
		settings.Padding = f.padding
	}
	if f.fg != "" {
		c, err := fontproof.ParseHex(f.fg)
		if err != nil {
			return settings, err
		}
		settings.Foreground = c
	}
	if f.bg != "" {
		c, err := fontproof.ParseHex(f.bg)
		if err != nil {
			return settings, err
		}
		settings.Background = &c
	}

	for _, spec := range f.variations {
		tag, value, err := parseVariation(spec)
		if err != nil {
			return settings, err
		}
		if settings.Variations == nil {
			settings.Variations = make(map[string]float64)
		}
		settings.Variations[tag] = value
	}
	return settings, nil
}

func parseVariation(spec string) (string, float64, error) {
	tag, raw, ok := strings.Cut(spec, "=")
	if !ok || len(tag) != 4 {
		return "", 0, fmt.Errorf("fontproof: variation must be tag=value with a 4-character tag, got %q", spec)
	}
	var value float64
	if _, err := fmt.Sscanf(raw, "%g", &value); err != nil {
		return "", 0, fmt.Errorf("fontproof: bad variation value in %q: %v", spec, err)
	}
	return tag, value, nil
}

// writeResult exports one render result: PNG for raster output, the raw
// payload for metadata output.
func writeResult(dir, fontPath string, res *fontproof.RenderResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", fontproof.ErrIO, dir, err)
	}

	stem := sanitizeStem(fontPath)
	if res.Format == fontproof.FormatRGBA8 {
		path := filepath.Join(dir, stem+".png")
		out, err := os.Create(path)
		if err != nil {
			return "", fmt.Errorf("%w: creating %s: %v", fontproof.ErrIO, path, err)
		}
		if err := png.Encode(out, res.Image()); err != nil {
			out.Close()
			return "", fmt.Errorf("%w: encoding %s: %v", fontproof.ErrIO, path, err)
		}
		if err := out.Close(); err != nil {
			return "", fmt.Errorf("%w: closing %s: %v", fontproof.ErrIO, path, err)
		}
		return path, nil
	}

	path := filepath.Join(dir, stem+"."+res.Format)
	if err := os.WriteFile(path, res.Pixels, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", fontproof.ErrIO, path, err)
	}
	return path, nil
}

// sanitizeStem derives a safe output file stem from a font path.
func sanitizeStem(fontPath string) string {
	stem := strings.TrimSuffix(filepath.Base(fontPath), filepath.Ext(fontPath))
	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "preview"
	}
	return b.String()
}
