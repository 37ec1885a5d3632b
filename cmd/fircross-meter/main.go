// Command fircross-meter is a terminal demo host for
// crossover.FirMultiChannelCrossover: it drives the crossover with a
// synthesized test signal (sine tone or white noise) and displays a
// live level meter per output channel.
//
// Usage:
//
//	fircross-meter [options]
//
// Options:
//
//	-block       Audio period size in samples (default 256)
//	-filters     Path to a text coefficient file (default: built-in demo filters)
//	-signal      Test signal: "sine" or "noise" (default "sine")
//	-freq        Sine test tone frequency in Hz (default 220)
//	-rate        Sample rate in Hz, used only for the synthetic signal (default 48000)
//
// Adapted from tui.go: the parameter-list/meter-bank layout and termbox
// event loop are carried over unchanged, now driving eight crossover
// output channels (tweeter/mid/woofer x L/R, sub, reserved) instead of
// two reverb channels, and reading levels from
// FirMultiChannelCrossover.GetOutputBuffer instead of
// ConvolutionReverb.GetMetrics.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/nsf/termbox-go"

	"github.com/meko-audio/fircrossover/pkg/coeffs"
	"github.com/meko-audio/fircrossover/pkg/crossover"
)

const (
	colDef    = termbox.ColorDefault
	colWhite  = termbox.ColorWhite
	colGreen  = termbox.ColorGreen
	colYellow = termbox.ColorYellow
	colBlue   = termbox.ColorBlue
	colCyan   = termbox.ColorCyan
)

// channelNames matches §6's fixed logical output order: tweeter-L,
// mid-L, woofer-L, tweeter-R, mid-R, woofer-R, sub, reserved.
var channelNames = []string{
	"Tweeter L", "Mid L", "Woofer L",
	"Tweeter R", "Mid R", "Woofer R",
	"Sub", "Reserved",
}

// inputBusOf maps each of the 8 output channels to one of 3 input
// buses: L channels read bus 0, R channels read bus 1, sub reads bus 2
// (the LFE bus), reserved doubles up on bus 2 rather than introducing a
// fourth bus.
var inputBusOf = []int{0, 0, 0, 1, 1, 1, 2, 2}

func main() {
	blockSize := flag.Int("block", 256, "Audio period size in samples")
	filterFile := flag.String("filters", "", "Path to a text coefficient file (default: built-in demo filters)")
	signal := flag.String("signal", "sine", `Test signal: "sine" or "noise"`)
	freq := flag.Float64("freq", 220, "Sine test tone frequency in Hz")
	rate := flag.Float64("rate", 48000, "Sample rate in Hz, used only to synthesize the test signal")
	workers := flag.Int("workers", 3, "TaskRunner worker goroutine count")

	flag.Parse()

	taps, err := loadFilters(*filterFile)
	if err != nil {
		slog.Error("fircross-meter", "error", err)
		os.Exit(1)
	}

	filters := make([]crossover.ChannelFilter, len(channelNames))
	for i := range channelNames {
		filters[i] = crossover.ChannelFilter{
			InputChannel: inputBusOf[i],
			Taps:         taps[i%len(taps)],
		}
	}

	fc, err := crossover.New(*blockSize, 3, filters, *workers, crossover.DefaultFanWidth)
	if err != nil {
		slog.Error("fircross-meter", "error", err)
		os.Exit(1)
	}
	defer fc.Close()

	if err := termbox.Init(); err != nil {
		fmt.Printf("Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}
	defer termbox.Close()

	termbox.SetInputMode(termbox.InputEsc)

	state := newMeterState(fc, *signal, *freq, *rate, *blockSize)

	eventQueue := make(chan termbox.Event)
	go func() {
		for {
			eventQueue <- termbox.PollEvent()
		}
	}()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	draw(state)

	for !state.exit {
		select {
		case ev := <-eventQueue:
			if ev.Type == termbox.EventKey && (ev.Key == termbox.KeyEsc || ev.Ch == 'q') {
				state.exit = true
			}
			if ev.Type == termbox.EventResize {
				draw(state)
			}
		case <-ticker.C:
			state.step()
			draw(state)
		}
	}
}

// loadFilters returns one []float32 per filter read from the coefficient
// file at path. With no -filters flag, it returns the two demo filters
// from demoFilters instead of requiring an asset file.
func loadFilters(path string) ([][]float32, error) {
	if path == "" {
		return demoFilters(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return coeffs.Load(f)
}

func demoFilters() [][]float32 {
	// A 300-tap lowpass-ish decaying impulse and a 3-tap short filter,
	// alternated across channels so both the fan/tree path (P > 1) and
	// the degenerate P == 1 path in crossover.Convolution get exercised.
	long := make([]float32, 300)
	for i := range long {
		long[i] = float32(math.Exp(-float64(i) / 40))
	}

	short := []float32{1, 0.25, -0.1}

	return [][]float32{long, short}
}

type meterState struct {
	fc        *crossover.FirMultiChannelCrossover
	exit      bool
	signal    string
	freq      float64
	rate      float64
	blockSize int
	phase     float64
	period    int
	levels    []float32 // smoothed peak per output channel
	rng       *rand.Rand
}

func newMeterState(fc *crossover.FirMultiChannelCrossover, signal string, freq, rate float64, blockSize int) *meterState {
	return &meterState{
		fc:        fc,
		signal:    signal,
		freq:      freq,
		rate:      rate,
		blockSize: blockSize,
		levels:    make([]float32, len(channelNames)),
		rng:       rand.New(rand.NewSource(1)),
	}
}

// step synthesizes one period of test signal, feeds it into every input
// bus, runs UpdateInputs, and updates the smoothed peak meters.
func (s *meterState) step() {
	sample := make([]float32, s.blockSize)

	for i := range sample {
		switch s.signal {
		case "noise":
			sample[i] = s.rng.Float32()*2 - 1
		default:
			sample[i] = float32(math.Sin(s.phase))
			s.phase += 2 * math.Pi * s.freq / s.rate
		}
	}

	for bus := 0; bus < 3; bus++ {
		copy(s.fc.GetInputBuffer(bus), sample)
	}

	if err := s.fc.UpdateInputs(); err != nil {
		slog.Warn("fircross-meter", "msg", "UpdateInputs", "error", err)
		return
	}

	s.period++

	for ch := range channelNames {
		var peak float32

		for _, v := range s.fc.GetOutputBuffer(ch) {
			abs := v
			if abs < 0 {
				abs = -abs
			}

			if abs > peak {
				peak = abs
			}
		}

		// Exponential peak-hold decay so the meter reads smoothly between
		// periods instead of flickering at the raw per-period peak.
		if peak > s.levels[ch] {
			s.levels[ch] = peak
		} else {
			s.levels[ch] *= 0.85
		}
	}
}

func draw(s *meterState) {
	_ = termbox.Clear(colDef, colDef)

	printTB(0, 0, colCyan, colDef, "FIR Crossover Meter")
	printTB(0, 1, colWhite, colDef, fmt.Sprintf("block=%d signal=%s period=%d", s.blockSize, s.signal, s.period))
	printTB(0, 2, colDef, colDef, "'q' or Esc to quit")
	printTB(0, 3, colDef, colDef, "----------------------------------------------------")

	linToDB := func(l float32) float64 {
		if l <= 1e-9 {
			return -96.0
		}

		return 20 * math.Log10(float64(l))
	}

	for i, name := range channelNames {
		drawMeter(5+i, name, linToDB(s.levels[i]))
	}

	termbox.Flush()
}

func drawMeter(yPos int, label string, db float64) {
	const (
		barWidth = 50
		xPos     = 2
		minDB    = -96.0
		maxDB    = 6.0
	)

	if db < minDB {
		db = minDB
	}
	if db > maxDB {
		db = maxDB
	}

	ratio := (db - minDB) / (maxDB - minDB)
	filled := int(ratio * float64(barWidth))

	color := colGreen
	if db > -6 {
		color = colYellow
	}
	if db > 0 {
		color = colBlue
	}

	printTB(xPos, yPos, colDef, colDef, fmt.Sprintf("%-10s [%-6.1f dB] ", label, db))

	startX := xPos + 20
	for i := range barWidth {
		barChar := '░'
		if i < filled {
			barChar = '█'
		}

		termbox.SetCell(startX+i, yPos, barChar, color, colDef)
	}
}

func printTB(x, y int, fg, bg termbox.Attribute, msg string) {
	for _, c := range msg {
		termbox.SetCell(x, y, c, fg, bg)
		x++
	}
}
