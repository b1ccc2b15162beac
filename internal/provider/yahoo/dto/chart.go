package dto

// ChartResponse is the body of /v8/finance/chart.
type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *Error        `json:"error"`
	} `json:"chart"`
}

type ChartResult struct {
	Meta       ChartMeta   `json:"meta"`
	Timestamp  []int64     `json:"timestamp"`
	Events     ChartEvents `json:"events"`
	Indicators struct {
		Quote []ChartQuote `json:"quote"`
	} `json:"indicators"`
}

type ChartMeta struct {
	Currency             string `json:"currency"`
	Symbol               string `json:"symbol"`
	LongName             string `json:"longName"`
	ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	GMTOffset            int    `json:"gmtoffset"`
}

// ChartEvents are keyed by the event timestamp as a string.
type ChartEvents struct {
	Dividends map[string]DividendEvent `json:"dividends"`
	Splits    map[string]SplitEvent    `json:"splits"`
}

type DividendEvent struct {
	Amount float64 `json:"amount"`
	Date   int64   `json:"date"`
}

type SplitEvent struct {
	Date        int64   `json:"date"`
	Numerator   float64 `json:"numerator"`
	Denominator float64 `json:"denominator"`
	SplitRatio  string  `json:"splitRatio"`
}

// ChartQuote columns are parallel to ChartResult.Timestamp. Yahoo sends null
// for days without trades.
type ChartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}
