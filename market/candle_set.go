package market

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// CandleSet is a time-ordered candle series for one instrument.
type CandleSet struct {
	Instrument InstrumentMeta
	Timeframe  time.Duration
	Source     string
	Candles    []Candle
	Gaps       []Gap
	Ingest     IngestStats
}

// Gap is a run of missing candles between two present ones.
type Gap struct {
	StartIdx int           // index of the candle before the gap
	Len      int           // number of missing intervals
	Start    time.Time     // time of the first missing candle
	Kind     string        // weekend, suspicious or minor
	Duration time.Duration // missing time
}

type GapStats struct {
	TotalBars      int
	PresentBars    int
	MissingBars    int
	GapCount       int
	WeekendGaps    int
	SuspiciousGaps int
	LongestGap     int
	LongestGapKind string
}

// NewCandleSet loads path, sorts it by time, drops duplicate timestamps
// (keeping the first) and builds the gap report.
func NewCandleSet(instrument, path string) (*CandleSet, error) {
	meta, err := Lookup(instrument)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candles %s: %w", path, err)
	}
	defer f.Close()

	candles, stats, err := ReadCandles(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cs := FromCandles(meta, candles)
	cs.Source = filepath.Base(path)
	cs.Ingest.Rows = stats.Rows
	cs.Ingest.Skipped = stats.Skipped
	cs.Ingest.Unsorted = stats.Unsorted
	return cs, nil
}

// FromCandles builds a set from candles already in memory. The slice is
// copied.
func FromCandles(meta InstrumentMeta, candles []Candle) *CandleSet {
	sorted := append([]Candle(nil), candles...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	cs := &CandleSet{Instrument: meta, Source: "memory"}
	cs.Candles = sorted[:0]
	for _, c := range sorted {
		if n := len(cs.Candles); n > 0 && c.Time.Equal(cs.Candles[n-1].Time) {
			// keep-first policy (ignore later duplicates)
			cs.Ingest.Duplicates++
			continue
		}
		cs.Candles = append(cs.Candles, c)
	}
	cs.Ingest.Rows = len(candles)
	cs.Timeframe = inferTimeframe(cs.Candles)
	cs.BuildGapReport()
	return cs
}

// inferTimeframe is the smallest spacing between consecutive candles.
func inferTimeframe(candles []Candle) time.Duration {
	var tf time.Duration
	for i := 1; i < len(candles); i++ {
		d := candles[i].Time.Sub(candles[i-1].Time)
		if d > 0 && (tf == 0 || d < tf) {
			tf = d
		}
	}
	return tf
}

// Len is the number of candles present.
func (cs *CandleSet) Len() int { return len(cs.Candles) }

func (cs *CandleSet) BuildGapReport() {
	cs.Gaps = cs.Gaps[:0]
	if cs.Timeframe <= 0 {
		return
	}

	for i := 1; i < len(cs.Candles); i++ {
		d := cs.Candles[i].Time.Sub(cs.Candles[i-1].Time)
		missing := int(d/cs.Timeframe) - 1
		if missing <= 0 {
			continue
		}
		start := cs.Candles[i-1].Time.Add(cs.Timeframe)
		cs.Gaps = append(cs.Gaps, Gap{
			StartIdx: i - 1,
			Len:      missing,
			Start:    start,
			Kind:     cs.classifyGap(start, missing),
			Duration: time.Duration(missing) * cs.Timeframe,
		})
	}
}

func (cs *CandleSet) classifyGap(start time.Time, length int) string {
	gap := time.Duration(length) * cs.Timeframe
	wd := start.UTC().Weekday()

	// Weekend-ish if gap >= 24h and starts Fri/Sat/Sun (UTC heuristic)
	if gap >= 24*time.Hour {
		if wd == time.Friday || wd == time.Saturday || wd == time.Sunday {
			return "weekend"
		}
		return "suspicious"
	}

	// Anything >= 10 minutes missing is worth flagging
	if gap >= 10*time.Minute {
		return "suspicious"
	}

	return "minor"
}

func (cs *CandleSet) Stats() GapStats {
	var s GapStats

	s.PresentBars = len(cs.Candles)
	for _, g := range cs.Gaps {
		s.GapCount++
		s.MissingBars += g.Len
		if g.Len > s.LongestGap {
			s.LongestGap = g.Len
			s.LongestGapKind = g.Kind
		}
		switch g.Kind {
		case "weekend":
			s.WeekendGaps++
		case "suspicious":
			s.SuspiciousGaps++
		}
	}
	s.TotalBars = s.PresentBars + s.MissingBars
	return s
}

// Aggregate resamples the set into buckets of tf. A bucket becomes a
// candle only when at least minValid source candles fall inside it.
func (cs *CandleSet) Aggregate(tf time.Duration, minValid int) (*CandleSet, error) {
	if tf <= 0 || (cs.Timeframe > 0 && tf < cs.Timeframe) {
		return nil, fmt.Errorf("cannot aggregate %s candles into %s", cs.Timeframe, tf)
	}
	if minValid < 1 {
		minValid = 1
	}

	out := &CandleSet{
		Instrument: cs.Instrument,
		Timeframe:  tf,
		Source:     cs.Source,
	}
	if name, err := TimeframeString(tf); err == nil {
		out.Source += " " + name
	}

	var cur Candle
	count := 0
	flush := func() {
		if count >= minValid {
			out.Candles = append(out.Candles, cur)
		}
		count = 0
	}
	for _, bar := range cs.Candles {
		bucket := bar.Time.Truncate(tf)
		if count > 0 && !bucket.Equal(cur.Time) {
			flush()
		}
		if count == 0 {
			cur = Candle{Time: bucket, Open: bar.Open, High: bar.High, Low: bar.Low}
		} else {
			cur.High = max(cur.High, bar.High)
			cur.Low = min(cur.Low, bar.Low)
		}
		cur.Close = bar.Close
		cur.Volume += bar.Volume
		count++
	}
	if count > 0 {
		flush()
	}

	out.BuildGapReport()
	return out, nil
}

func (cs *CandleSet) PrintStats(f io.Writer) {
	s := cs.Stats()
	tf, err := TimeframeString(cs.Timeframe)
	if err != nil {
		tf = cs.Timeframe.String()
	}

	fmt.Fprintln(f, "---- CandleSet Stats ----")
	if len(cs.Candles) > 0 {
		fmt.Fprintf(f, "Range: %s → %s (%s)\n",
			cs.Candles[0].Time,
			cs.Candles[len(cs.Candles)-1].Time, tf)
	}
	fmt.Fprintf(f, "              Total Bars: %d\n", s.TotalBars)
	fmt.Fprintf(f, "            Present Bars: %d\n", s.PresentBars)
	fmt.Fprintf(f, "            Missing Bars: %d\n", s.MissingBars)
	fmt.Fprintf(f, "              Total Gaps: %d\n", s.GapCount)
	fmt.Fprintf(f, "            Weekend Gaps: %d\n", s.WeekendGaps)
	fmt.Fprintf(f, "         Suspicious Gaps: %d\n", s.SuspiciousGaps)
	fmt.Fprintf(f, "Longest Gap: %d bars (%s)\n",
		s.LongestGap, s.LongestGapKind)
	fmt.Fprintln(f, "--------------------------")
}
