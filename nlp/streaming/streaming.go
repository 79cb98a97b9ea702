package streaming

import (
	"bufio"
	"io"
)

// MaxLineSize bounds a single line. Plot paragraphs routinely exceed the
// bufio default of 64 KiB.
const MaxLineSize = 16 << 20

// ProcessLines calls handler once per line with its 1-based line number.
// A handler error stops the scan and is returned as is.
func ProcessLines(r io.Reader, handler func(lineNo int, line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	n := 0
	for scanner.Scan() {
		n++
		if err := handler(n, scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ReadLines returns every line of r.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	err := ProcessLines(r, func(_ int, line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}
