// Package coeffs implements the line-oriented coefficient file format
// described in §6 of the crossover design as the external filter loader:
// one filter per line, whitespace-separated floating-point taps, blank
// lines and '#'-comment lines ignored.
//
// Grounded on AlsaPluginDxO::loadFIRCoeffs in
// _examples/original_source/alsa_plugin.cpp, which reads one line per
// filter and splits it on whitespace into a []float32 via an
// istringstream loop. This package adds the blank-line/comment-line
// skipping §6 specifies, which the original C++ plugin does not do.
package coeffs

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/meko-audio/fircrossover/pkg/crossover"
)

// Load reads r line by line and returns one []float32 filter per
// non-blank, non-comment line. Blank lines and lines whose first
// non-whitespace character is '#' are skipped entirely rather than
// producing an empty filter.
//
// Returns crossover.ErrFileFormatInvalid if r yields no filters at all,
// or if any remaining line contains a token that does not parse as a
// floating-point number.
func Load(r io.Reader) ([][]float32, error) {
	scanner := bufio.NewScanner(r)
	// Filter lines can run to thousands of taps; grow the scan buffer well
	// past bufio's 64KiB default.
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var filters [][]float32

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		fields := strings.Fields(trimmed)
		taps := make([]float32, len(fields))

		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %q is not a number", crossover.ErrFileFormatInvalid, lineNo, field)
			}

			taps[i] = float32(v)
		}

		filters = append(filters, taps)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", crossover.ErrFileFormatInvalid, err)
	}

	if len(filters) == 0 {
		return nil, fmt.Errorf("%w: no filters found", crossover.ErrFileFormatInvalid)
	}

	return filters, nil
}
