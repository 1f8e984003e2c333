package praat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/RyanBlaney/featmerge/pkg/features"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

// maxLineSize bounds one report line; a recording with thousands of
// segments produces lines of several hundred kilobytes
const maxLineSize = 64 * 1024 * 1024

// trailingTokens is the count of recording-level tokens at the end of a line
const trailingTokens = 4

// Parser converts LabeledSegmentsAnalysis text reports into recordings
type Parser struct {
	logger logging.Logger
}

// NewParser creates a report parser
func NewParser(logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Parser{logger: logger}
}

// ParseFile reads and parses one report file
func (p *Parser) ParseFile(path string) ([]Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	return p.Parse(path, f)
}

// Parse reads all lines of r and parses them as one report
func (p *Parser) Parse(path string, r io.Reader) ([]Recording, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, features.NewPipelineError(features.ErrCodeMalformedReport, path,
			"failed to read report", err)
	}

	return p.ParseLines(path, lines)
}

// ParseLines parses the lines of one report. The header is two lines long,
// except for a report of exactly two lines, which carries a single header
// line. Any malformed data line rejects the whole report.
func (p *Parser) ParseLines(path string, lines []string) ([]Recording, error) {
	if len(lines) < 2 {
		return nil, features.NewPipelineError(features.ErrCodeMalformedReport, path,
			fmt.Sprintf("report has %d lines, need a header and at least one data line", len(lines)), nil)
	}

	headerLines := 2
	if len(lines) == 2 {
		headerLines = 1
	}

	var recordings []Recording
	for i, line := range lines[headerLines:] {
		lineNo := headerLines + i + 1

		tokens := tokenize(line)
		if len(tokens) == 0 {
			continue
		}

		rec, err := parseLine(tokens)
		if err != nil {
			return nil, features.NewPipelineError(features.ErrCodeMalformedReport, path,
				fmt.Sprintf("line %d", lineNo), err)
		}

		if rec.Meta.TotalIntervals != len(rec.Segments) {
			p.logger.Debug("Segment count differs from reported interval count", logging.Fields{
				"path":            path,
				"line":            lineNo,
				"segments":        len(rec.Segments),
				"total_intervals": rec.Meta.TotalIntervals,
			})
		}

		recordings = append(recordings, rec)
	}

	p.logger.Debug("Parsed report", logging.Fields{
		"path":       path,
		"recordings": len(recordings),
	})

	return recordings, nil
}

// tokenize strips NUL bytes and invalid UTF-8 left over from UTF-16 reports
// and splits on runs of whitespace
func tokenize(line string) []string {
	line = strings.ReplaceAll(line, "\x00", "")
	line = strings.ToValidUTF8(line, "")
	return strings.Fields(line)
}

func parseLine(tokens []string) (Recording, error) {
	if len(tokens) < 1+trailingTokens {
		return Recording{}, fmt.Errorf("%d tokens, need at least %d", len(tokens), 1+trailingTokens)
	}

	n := len(tokens)
	totalDur, err := strconv.Atoi(tokens[n-1])
	if err != nil {
		return Recording{}, fmt.Errorf("total duration %q is not an integer", tokens[n-1])
	}
	totalIntervals, err := strconv.Atoi(tokens[n-3])
	if err != nil {
		return Recording{}, fmt.Errorf("total interval count %q is not an integer", tokens[n-3])
	}

	body := tokens[1 : n-trailingTokens]
	if len(body)%SegmentStride != 0 {
		return Recording{}, fmt.Errorf("%d segment tokens is not a multiple of %d", len(body), SegmentStride)
	}

	segments := make([]SegmentRecord, 0, len(body)/SegmentStride)
	for off := 0; off < len(body); off += SegmentStride {
		segments = append(segments, parseSegment(body[off:off+SegmentStride]))
	}

	return Recording{
		Meta: RecordingMeta{
			Name:           tokens[0],
			TotalDuration:  totalDur,
			TotalIntervals: totalIntervals,
		},
		Segments: segments,
	}, nil
}

func parseSegment(tokens []string) SegmentRecord {
	seg := SegmentRecord{Label: tokens[0]}
	for i, off := range measureOffsets {
		seg.Values[i] = features.ParseValue(tokens[off])
	}
	return seg
}
