package market

import (
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz/lzma"
)

// bi5RecordSize is the length of one decompressed tick record:
// ms offset, ask, bid (uint32) then ask and bid volume (float32), big endian.
const bi5RecordSize = 20

// Tick is one quote from a Dukascopy hourly tick file.
type Tick struct {
	Time      time.Time
	Ask       float64
	Bid       float64
	AskVolume float64
	BidVolume float64
}

// Mid is the average of bid and ask.
func (t Tick) Mid() float64 { return (t.Ask + t.Bid) / 2 }

// LoadBI5 decodes the LZMA compressed tick file at path. hour is the UTC
// hour the file covers; record offsets are milliseconds into it. Hours
// without trading are stored as empty files and yield no ticks.
func LoadBI5(path string, hour time.Time, meta InstrumentMeta) ([]Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ticks %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size() == 0 {
		return nil, nil
	}

	ticks, err := ReadBI5(f, hour, meta)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ticks, nil
}

// ReadBI5 decompresses and decodes one hour of ticks from r.
func ReadBI5(r io.Reader, hour time.Time, meta InstrumentMeta) ([]Tick, error) {
	zr, err := lzma.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("lzma: %w", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("lzma: %w", err)
	}
	if len(raw)%bi5RecordSize != 0 {
		return nil, fmt.Errorf("tick data is %d bytes, not a multiple of %d", len(raw), bi5RecordSize)
	}

	// prices are integers in points, one digit finer than a pip
	point := math.Pow10(meta.PipLocation - 1)
	hour = hour.UTC().Truncate(time.Hour)

	ticks := make([]Tick, 0, len(raw)/bi5RecordSize)
	for off := 0; off < len(raw); off += bi5RecordSize {
		rec := raw[off : off+bi5RecordSize]
		ms := binary.BigEndian.Uint32(rec[0:4])
		ticks = append(ticks, Tick{
			Time:      hour.Add(time.Duration(ms) * time.Millisecond),
			Ask:       roundTo(float64(binary.BigEndian.Uint32(rec[4:8]))*point, meta.PipLocation-1),
			Bid:       roundTo(float64(binary.BigEndian.Uint32(rec[8:12]))*point, meta.PipLocation-1),
			AskVolume: float64(math.Float32frombits(binary.BigEndian.Uint32(rec[12:16]))),
			BidVolume: float64(math.Float32frombits(binary.BigEndian.Uint32(rec[16:20]))),
		})
	}
	return ticks, nil
}

// TicksToCandles buckets ticks by tf on the mid price. Volume is the sum
// of bid and ask volume. Empty buckets produce no candle.
func TicksToCandles(ticks []Tick, tf time.Duration) []Candle {
	var out []Candle
	for _, t := range ticks {
		bucket := t.Time.Truncate(tf)
		mid := t.Mid()
		n := len(out)
		if n == 0 || !out[n-1].Time.Equal(bucket) {
			out = append(out, Candle{Time: bucket, Open: mid, High: mid, Low: mid, Close: mid})
			n++
		}
		c := &out[n-1]
		c.High = max(c.High, mid)
		c.Low = min(c.Low, mid)
		c.Close = mid
		c.Volume += t.AskVolume + t.BidVolume
	}
	return out
}

// BI5Hour reads the hour a tick file covers from its path, laid out as
// <root>/YYYY/MM/DD/HHh_ticks.bi5 with a one based month.
func BI5Hour(path string) (time.Time, error) {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	if len(parts) < 4 {
		return time.Time{}, fmt.Errorf("tick path %s: want YYYY/MM/DD/HHh_ticks.bi5", path)
	}
	parts = parts[len(parts)-4:]
	hh, ok := strings.CutSuffix(parts[3], "h_ticks.bi5")
	if !ok {
		return time.Time{}, fmt.Errorf("tick path %s: file is not HHh_ticks.bi5", path)
	}

	var nums [4]int
	for i, s := range []string{parts[0], parts[1], parts[2], hh} {
		n, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("tick path %s: %w", path, err)
		}
		nums[i] = n
	}
	year, month, day, hour := nums[0], nums[1], nums[2], nums[3]
	if month < 1 || month > 12 || day < 1 || day > 31 || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("tick path %s: date out of range", path)
	}
	return time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC), nil
}

// NewCandleSetBI5 builds one minute candles from a Dukascopy tick file or
// from every tick file below a directory.
func NewCandleSetBI5(instrument, path string) (*CandleSet, error) {
	meta, err := Lookup(instrument)
	if err != nil {
		return nil, err
	}

	var files []string
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open ticks %s: %w", path, err)
	}
	if st.IsDir() {
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(p, ".bi5") {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		files = []string{path}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .bi5 files under %s", path)
	}
	sort.Strings(files)

	var candles []Candle
	ticks := 0
	for _, f := range files {
		hour, err := BI5Hour(f)
		if err != nil {
			return nil, err
		}
		tt, err := LoadBI5(f, hour, meta)
		if err != nil {
			return nil, err
		}
		ticks += len(tt)
		candles = append(candles, TicksToCandles(tt, time.Minute)...)
	}

	cs := FromCandles(meta, candles)
	cs.Timeframe = time.Minute
	cs.BuildGapReport()
	cs.Source = filepath.Base(path)
	cs.Ingest.Rows = ticks
	return cs, nil
}

// IsBI5 reports whether path names Dukascopy tick data: a .bi5 file or a
// directory holding them.
func IsBI5(path string) bool {
	if strings.HasSuffix(path, ".bi5") {
		return true
	}
	st, err := os.Stat(path)
	if err != nil || !st.IsDir() {
		return false
	}
	found := false
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || found {
			return fs.SkipAll
		}
		if !d.IsDir() && strings.HasSuffix(p, ".bi5") {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}

func roundTo(v float64, exp int) float64 {
	scale := math.Pow10(-exp)
	return math.Round(v*scale) / scale
}
