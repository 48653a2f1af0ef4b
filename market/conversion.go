package market

import "fmt"

// QuoteToAccountRate converts one unit of the instrument's quote currency
// into the account currency, given the instrument's current mid price.
func QuoteToAccountRate(instrument string, accountCurrency string, price float64) (float64, error) {
	meta, err := Lookup(instrument)
	if err != nil {
		return 0, err
	}

	// quote currency == account currency (EUR_USD, GBP_USD with USD)
	if meta.QuoteCurrency == accountCurrency {
		return 1.0, nil
	}

	// account currency is base (USD_JPY with USD)
	if meta.BaseCurrency == accountCurrency {
		if price <= 0 {
			return 0, fmt.Errorf("invalid price %f for %s", price, instrument)
		}
		return 1.0 / price, nil
	}

	return 0, fmt.Errorf(
		"cross conversion not implemented for %s → %s",
		meta.QuoteCurrency,
		accountCurrency,
	)
}

// PipValue is the account-currency value of a one pip move on units.
func PipValue(instrument, accountCurrency string, units, price float64) (float64, error) {
	meta, err := Lookup(instrument)
	if err != nil {
		return 0, err
	}
	rate, err := QuoteToAccountRate(instrument, accountCurrency, price)
	if err != nil {
		return 0, err
	}
	return meta.PipSize() * units * rate, nil
}
