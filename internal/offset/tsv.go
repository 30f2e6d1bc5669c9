package offset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"speechline/internal/fileutil"
)

// WriteTSV writes one `start\tend\tunit` line per offset with millisecond
// precision.
func WriteTSV(w io.Writer, segment Segment) error {
	bw := bufio.NewWriter(w)
	for _, o := range segment {
		if _, err := fmt.Fprintf(bw, "%.3f\t%.3f\t%s\n", o.Start, o.End, o.Text()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteTSVFile atomically writes a segment transcript to path.
func WriteTSVFile(path string, segment Segment) error {
	var sb strings.Builder
	if err := WriteTSV(&sb, segment); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, []byte(sb.String()), 0o644)
}

// ReadTSV parses a transcript written by WriteTSV.
func ReadTSV(r io.Reader) (Segment, error) {
	var segment Segment
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.SplitN(text, "\t", 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("tsv line %d: expected 3 fields, got %d", line, len(fields))
		}
		start, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("tsv line %d: start: %w", line, err)
		}
		end, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("tsv line %d: end: %w", line, err)
		}
		o := Offset{Unit: fields[2], Start: start, End: end}
		if noise, ok := ParseNoise(o.Unit); ok {
			o.Noise = noise
			o.Unit = ""
		}
		segment = append(segment, o)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return segment, nil
}

// ReadTSVFile loads a segment transcript from path.
func ReadTSVFile(path string) (Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTSV(f)
}
