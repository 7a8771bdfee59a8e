// Command vfieldprobe inspects a raster-encoded ocean current dataset.
//
// It decodes a PNG or WebP raster with its metadata JSON, then optionally
// answers a point query, exports a sampled grid to CSV, prints field
// statistics and runs the particle engine headlessly for a number of
// frames:
//
//	vfieldprobe -raster currents.png -meta currents.json -at 150.5,-33.2
//	vfieldprobe -raster currents.png -meta currents.json -grid out.csv -step 0.5
//	vfieldprobe -raster currents.png -meta currents.json -frames 600 -backend vulkan
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/oceanmap/vfield"
)

func main() {
	var (
		rasterPath = flag.String("raster", "", "dataset raster (PNG or WebP)")
		metaPath   = flag.String("meta", "", "dataset metadata JSON")
		configPath = flag.String("config", "", "engine configuration YAML (defaults when empty)")
		at         = flag.String("at", "", "point query as lng,lat")
		gridPath   = flag.String("grid", "", "write a sampled velocity grid to this CSV file")
		step       = flag.Float64("step", 1, "grid spacing in degrees")
		showStats  = flag.Bool("stats", true, "print field statistics")
		frames     = flag.Int("frames", 0, "run the engine headlessly for this many frames")
		backendArg = flag.String("backend", "auto", "graphics backend for -frames: auto, vulkan or noop")
		width      = flag.Int("width", 1024, "headless canvas width")
		height     = flag.Int("height", 512, "headless canvas height")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	vfield.SetLogger(logger)

	if *rasterPath == "" || *metaPath == "" {
		fmt.Fprintln(os.Stderr, "vfieldprobe: -raster and -meta are required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := vfield.LoadConfig(*configPath)
	if err != nil {
		fatal(logger, "load config", err)
	}
	ds, err := loadDataset(*rasterPath, *metaPath)
	if err != nil {
		fatal(logger, "load dataset", err)
	}

	p := message.NewPrinter(language.English)
	p.Printf("raster %dx%d, bounds W%.2f N%.2f E%.2f S%.2f\n",
		ds.Width(), ds.Height(), ds.Bounds.MinX(), ds.Bounds.MaxY(), ds.Bounds.MaxX(), ds.Bounds.MinY())

	if *at != "" {
		lng, lat, err := parsePoint(*at)
		if err != nil {
			fatal(logger, "parse -at", err)
		}
		printPoint(p, ds, lng, lat)
	}

	if *showStats {
		printStats(p, vfield.ComputeFieldStats(ds))
	}

	if *gridPath != "" {
		n, err := writeGrid(*gridPath, ds, *step)
		if err != nil {
			fatal(logger, "write grid", err)
		}
		p.Printf("wrote %d grid samples to %s\n", n, *gridPath)
	}

	if *frames > 0 {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		stats, err := runHeadless(ctx, runOptions{
			backend: *backendArg,
			width:   *width,
			height:  *height,
			frames:  *frames,
			config:  cfg,
			logger:  logger,
		}, ds)
		if err != nil {
			fatal(logger, "headless run", err)
		}
		p.Printf("rendered %d of %d frames in %v (%.1f fps)\n",
			stats.Renders, stats.Frames, stats.Elapsed.Round(1e6), stats.FPS())
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error("vfieldprobe: "+msg, "err", err)
	os.Exit(1)
}

func loadDataset(rasterPath, metaPath string) (vfield.Dataset, error) {
	rf, err := os.Open(rasterPath)
	if err != nil {
		return vfield.Dataset{}, err
	}
	defer rf.Close()
	img, err := vfield.DecodeRaster(rf)
	if err != nil {
		return vfield.Dataset{}, err
	}

	mf, err := os.Open(metaPath)
	if err != nil {
		return vfield.Dataset{}, err
	}
	defer mf.Close()
	meta, err := vfield.ReadMetadata(mf)
	if err != nil {
		return vfield.Dataset{}, err
	}
	return vfield.NewDataset(img, meta)
}

func parsePoint(s string) (lng, lat float64, err error) {
	lngS, latS, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("%q: want lng,lat", s)
	}
	if lng, err = strconv.ParseFloat(strings.TrimSpace(lngS), 64); err != nil {
		return 0, 0, fmt.Errorf("longitude: %w", err)
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(latS), 64); err != nil {
		return 0, 0, fmt.Errorf("latitude: %w", err)
	}
	return lng, lat, nil
}

func printPoint(p *message.Printer, ds vfield.Dataset, lng, lat float64) {
	vel, ok := ds.VelocityAt(lng, lat)
	if !ok {
		p.Printf("%.4f,%.4f: no data\n", lng, lat)
		return
	}
	polar := vfield.ToPolarReadable(vel.U, vel.V)
	p.Printf("%.4f,%.4f: u=%.4f v=%.4f speed=%.4f heading=%.1f° %s\n",
		lng, lat, vel.U, vel.V, polar.Speed, polar.Degree, polar.Direction)
}

func printStats(p *message.Printer, st vfield.FieldStats) {
	valid := 0.0
	if st.Pixels > 0 {
		valid = 100 * float64(st.Valid) / float64(st.Pixels)
	}
	p.Printf("pixels %d, valid %d (%.1f%%)\n", st.Pixels, st.Valid, valid)
	if st.Valid == 0 {
		return
	}
	p.Printf("speed mean %.4f, stddev %.4f, p90 %.4f, max %.4f\n",
		st.MeanSpeed, st.StdDevSpeed, st.P90Speed, st.MaxSpeed)
	mean := vfield.ToPolarReadable(st.MeanU, st.MeanV)
	p.Printf("mean current %.4f toward %s (%.1f°)\n", mean.Speed, mean.Direction, mean.Degree)
}
