package utils

import (
	"encoding/csv"
	"os"
	"strings"
)

// ReadTickersFromCSV reads ticker symbols from the first column of a CSV file.
// A leading "Symbol" or "Ticker" header row is skipped, as are blank cells.
func ReadTickersFromCSV(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var tickers []string
	for i, record := range records {
		if len(record) == 0 {
			continue
		}
		ticker := strings.TrimSpace(record[0])
		if i == 0 && isTickerHeader(ticker) {
			continue
		}
		if ticker == "" {
			continue
		}
		tickers = append(tickers, strings.ToUpper(ticker))
	}

	return tickers, nil
}

func isTickerHeader(cell string) bool {
	switch strings.ToLower(cell) {
	case "symbol", "ticker", "tickers", "symbols":
		return true
	}
	return false
}
