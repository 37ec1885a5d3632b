// Command filterlib-tool builds and inspects .flib filter libraries.
//
// Usage:
//
//	filterlib-tool import [options] <input-directory> <output-file>
//	filterlib-tool list <library-file>
//
// Import options:
//
//	-recursive     Scan input directory recursively
//	-category      Set category for all filters (default: infer from directory)
//	-normalize     Normalize peak tap amplitude to -1.0dB
//	-verbose       Show progress and details
//
// Adapted from cmd/ir-convert: same AIFF-to-container pipeline, but each
// AIFF file's first channel becomes one named FilterSet's coefficient
// vector instead of a multi-channel ImpulseResponse.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/meko-audio/fircrossover/internal/aiff"
	"github.com/meko-audio/fircrossover/pkg/filterlib"
)

var (
	recursive = flag.Bool("recursive", false, "Scan input directory recursively")
	category  = flag.String("category", "", "Set category for all filters (default: infer from directory)")
	normalize = flag.Bool("normalize", false, "Normalize peak tap amplitude to -1.0dB")
	verbose   = flag.Bool("verbose", false, "Show progress and details")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <import|list> [options] <args>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  import [options] <input-directory> <output-file>\n")
		fmt.Fprintf(os.Stderr, "  list <library-file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import ./assets ./crossover.flib\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -category Tweeter -normalize ./tweeter-irs ./tweeter.flib\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s list ./crossover.flib\n", os.Args[0])
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	subcommand := os.Args[1]
	flag.CommandLine.Parse(os.Args[2:])

	var err error

	switch subcommand {
	case "import":
		if flag.NArg() != 2 {
			flag.Usage()
			os.Exit(1)
		}

		err = runImport(flag.Arg(0), flag.Arg(1))
	case "list":
		if flag.NArg() != 1 {
			flag.Usage()
			os.Exit(1)
		}

		err = runList(flag.Arg(0))
	default:
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		slog.Error("filterlib-tool", "error", err)
		os.Exit(1)
	}
}

func runImport(inputDir, outputFile string) error {
	files, err := findAIFFFiles(inputDir, *recursive)
	if err != nil {
		return fmt.Errorf("failed to scan directory: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("no .aif files found in %s", inputDir)
	}

	if *verbose {
		slog.Info("filterlib-tool", "msg", fmt.Sprintf("found %d AIFF files", len(files)))
	}

	lib := filterlib.NewLibrary()

	for i, filePath := range files {
		if *verbose {
			slog.Info("filterlib-tool", "msg", fmt.Sprintf("[%d/%d] processing %s", i+1, len(files), filepath.Base(filePath)))
		}

		fs, err := convertFile(filePath, inputDir)
		if err != nil {
			slog.Warn("filterlib-tool", "msg", fmt.Sprintf("skipping %s", filePath), "error", err)
			continue
		}

		lib.AddFilter(fs)
	}

	if len(lib.Filters) == 0 {
		return errors.New("no files were successfully converted")
	}

	outFile, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	if err := filterlib.WriteLibrary(outFile, lib); err != nil {
		return fmt.Errorf("failed to write library: %w", err)
	}

	info, statErr := outFile.Stat()
	if statErr == nil && *verbose {
		slog.Info("filterlib-tool", "msg", "library written", "path", outputFile,
			"filters", len(lib.Filters), "size_mb", float64(info.Size())/(1024*1024))
	} else {
		fmt.Printf("Created %s with %d filters\n", outputFile, len(lib.Filters))
	}

	return nil
}

func runList(libraryFile string) error {
	f, err := os.Open(libraryFile)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", libraryFile, err)
	}
	defer f.Close()

	reader, err := filterlib.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read library: %w", err)
	}

	entries := reader.ListFilters()

	fmt.Printf("%-24s %-12s %10s %10s\n", "Name", "Category", "Taps", "Duration")
	for _, e := range entries {
		fmt.Printf("%-24s %-12s %10d %9.3fs\n", e.Name, e.Category, e.Length, e.Duration())
	}

	return nil
}

func findAIFFFiles(dir string, recursive bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() && path != dir && !recursive {
			return fs.SkipDir
		}

		if !d.IsDir() {
			ext := strings.ToLower(filepath.Ext(path))
			if ext == ".aif" || ext == ".aiff" {
				files = append(files, path)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// convertFile parses one AIFF file and produces a FilterSet from its
// first channel: crossover filters are single-channel coefficient
// vectors, so additional channels in a stereo IR capture are dropped.
func convertFile(filePath, baseDir string) (*filterlib.FilterSet, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	aiffFile, err := aiff.Parse(f)
	if err != nil {
		return nil, err
	}

	taps := aiffFile.Data[0]
	if *normalize {
		taps = normalizeTaps(taps)
	}

	name := inferName(filePath)

	cat := inferCategory(filePath, baseDir)
	if *category != "" {
		cat = *category
	}

	fs := filterlib.NewFilterSet(name, aiffFile.SampleRate, taps)
	fs.Metadata.Category = cat
	fs.Metadata.Tags = inferTags(name)

	if *verbose {
		slog.Info("filterlib-tool", "msg", fmt.Sprintf("%s: %.0f Hz, %d taps (%.2fs)",
			name, aiffFile.SampleRate, len(taps), aiffFile.Duration()))
	}

	return fs, nil
}

func inferName(filePath string) string {
	name := filepath.Base(filePath)
	ext := filepath.Ext(name)
	name = strings.TrimSuffix(name, ext)

	return strings.ReplaceAll(name, "_", " ")
}

func inferCategory(filePath, baseDir string) string {
	rel, err := filepath.Rel(baseDir, filePath)
	if err != nil {
		return "Default"
	}

	dir := filepath.Dir(rel)
	if dir == "." || dir == "" {
		return "Default"
	}

	parts := strings.Split(dir, string(filepath.Separator))
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}

	return "Default"
}

func inferTags(name string) []string {
	keywords := []string{
		"tweeter", "mid", "woofer", "sub", "lowpass", "highpass",
		"bandpass", "crossover", "large", "small", "steep", "gentle",
	}

	nameLower := strings.ToLower(name)

	var tags []string

	for _, kw := range keywords {
		if strings.Contains(nameLower, kw) {
			tags = append(tags, kw)
		}
	}

	return tags
}

// normalizeTaps normalizes tap amplitude to peak at -1.0dB.
func normalizeTaps(taps []float32) []float32 {
	var peak float32

	for _, sample := range taps {
		abs := sample
		if abs < 0 {
			abs = -abs
		}

		if abs > peak {
			peak = abs
		}
	}

	if peak == 0 {
		return taps
	}

	targetPeak := float32(math.Pow(10, -1.0/20.0))
	gain := targetPeak / peak

	result := make([]float32, len(taps))
	for i, sample := range taps {
		result[i] = sample * gain
	}

	return result
}
