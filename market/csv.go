package market

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// IngestStats counts the rows a loader skipped.
type IngestStats struct {
	Rows       int
	Skipped    int // headers, blank, short or undated rows
	Duplicates int
	Unsorted   bool
}

// ReadCandles parses candles in file order from a comma separated file
// (time,open,high,low,close[,volume]) or a semicolon separated Dukascopy
// export (20060102 150405;open;high;low;close;volume, EST). Rows whose
// first field is not a timestamp are skipped; a dated row with a bad price
// is an error.
func ReadCandles(r io.Reader) ([]Candle, IngestStats, error) {
	var stats IngestStats
	var out []Candle

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			stats.Skipped++
			continue
		}

		sep := ","
		parse := parseTime
		if strings.Contains(text, ";") {
			sep = ";"
			parse = parseEST
		}
		parts := strings.Split(text, sep)
		if len(parts) < 5 {
			stats.Skipped++
			continue
		}

		ts, err := parse(parts[0])
		if err != nil {
			stats.Skipped++
			continue
		}

		var px [4]float64
		for i := range px {
			px[i], err = strconv.ParseFloat(strings.TrimSpace(parts[i+1]), 64)
			if err != nil {
				return nil, stats, fmt.Errorf("line %d: bad price %q", line, parts[i+1])
			}
		}
		c := Candle{Time: ts, Open: px[0], High: px[1], Low: px[2], Close: px[3]}
		if len(parts) > 5 && strings.TrimSpace(parts[5]) != "" {
			c.Volume, err = strconv.ParseFloat(strings.TrimSpace(parts[5]), 64)
			if err != nil {
				return nil, stats, fmt.Errorf("line %d: bad volume %q", line, parts[5])
			}
		}
		if !c.Valid() {
			return nil, stats, fmt.Errorf("line %d: inconsistent prices", line)
		}
		if n := len(out); n > 0 && !ts.After(out[n-1].Time) {
			stats.Unsorted = true
		}
		out = append(out, c)
		stats.Rows++
	}
	if err := sc.Err(); err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}

// WriteCandlesCSV writes candles in the comma separated layout with a
// header row.
func WriteCandlesCSV(w io.Writer, candles []Candle) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "time,open,high,low,close,volume")
	for _, c := range candles {
		fmt.Fprintf(bw, "%s,%s,%s,%s,%s,%s\n",
			c.Time.UTC().Format(time.RFC3339),
			fmtPrice(c.Open), fmtPrice(c.High), fmtPrice(c.Low), fmtPrice(c.Close),
			fmtPrice(c.Volume))
	}
	return bw.Flush()
}

func fmtPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
