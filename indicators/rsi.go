package indicators

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"
)

// RSISeries calculates the Relative Strength Index (0-100) for every close.
// The first period entries have no value and are NaN.
func RSISeries(closes []float64, period int) ([]float64, error) {
	if period < 2 {
		return nil, fmt.Errorf("rsi period must be at least 2, got %d", period)
	}
	if len(closes) < period+1 {
		return nil, fmt.Errorf("not enough closes: need %d, got %d", period+1, len(closes))
	}

	rsi := talib.Rsi(closes, period)
	for i := 0; i < period && i < len(rsi); i++ {
		rsi[i] = math.NaN()
	}
	return rsi, nil
}
