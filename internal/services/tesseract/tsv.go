package tesseract

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// Column indexes of tesseract's TSV output.
const (
	colLevel = 0
	colBlock = 2
	colPar   = 3
	colLine  = 4
	colConf  = 10
	colText  = 11
	numCols  = 12
)

const wordLevel = 5

type lineKey struct {
	block, par, line int
}

// ParseTSV rebuilds text from word rows grouped by block, paragraph and line,
// and returns the mean confidence of words with a positive confidence.
func ParseTSV(data []byte) (string, float64) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		lines   []string
		current []string
		key     lineKey
		started bool
		confSum float64
		confN   int
	)
	flush := func() {
		if len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
		}
		current = current[:0]
	}

	header := true
	for scanner.Scan() {
		row := scanner.Text()
		if header {
			header = false
			if strings.HasPrefix(row, "level") {
				continue
			}
		}
		fields := strings.Split(row, "\t")
		if len(fields) < numCols {
			continue
		}
		level, err := strconv.Atoi(fields[colLevel])
		if err != nil || level != wordLevel {
			continue
		}
		word := strings.TrimSpace(fields[colText])
		if word == "" {
			continue
		}
		next := lineKey{block: atoi(fields[colBlock]), par: atoi(fields[colPar]), line: atoi(fields[colLine])}
		if !started || next != key {
			flush()
			key = next
			started = true
		}
		current = append(current, word)
		if conf, err := strconv.ParseFloat(strings.TrimSpace(fields[colConf]), 64); err == nil && conf > 0 {
			confSum += conf
			confN++
		}
	}
	flush()

	if confN == 0 {
		return strings.Join(lines, "\n"), 0
	}
	return strings.Join(lines, "\n"), confSum / float64(confN)
}

func atoi(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}
