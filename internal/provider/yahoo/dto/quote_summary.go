// Package dto holds the JSON shapes returned by the Yahoo Finance endpoints.
package dto

// QuoteSummaryResponse is the body of /v10/finance/quoteSummary.
type QuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []QuoteSummaryResult `json:"result"`
		Error  *Error               `json:"error"`
	} `json:"quoteSummary"`
}

type QuoteSummaryResult struct {
	Price         *Price         `json:"price"`
	SummaryDetail *SummaryDetail `json:"summaryDetail"`
}

type Price struct {
	Symbol    string `json:"symbol"`
	LongName  string `json:"longName"`
	ShortName string `json:"shortName"`
	Currency  string `json:"currency"`
}

type SummaryDetail struct {
	Currency       string   `json:"currency"`
	DividendRate   RawValue `json:"dividendRate"`
	DividendYield  RawValue `json:"dividendYield"`
	ExDividendDate RawValue `json:"exDividendDate"`
}

// RawValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} pair. Missing values are
// sent as an empty object, leaving Raw nil.
type RawValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

type Error struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
