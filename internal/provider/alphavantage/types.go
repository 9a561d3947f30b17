package alphavantage

import "tickertape/internal/model"

const (
	metaKey         = "Meta Data"
	seriesKeyPrefix = "Time Series"
	quoteKey        = "Global Quote"
)

// notice keys carry a human-readable reason instead of data (throttling, bad symbol, premium endpoint).
var noticeKeys = []string{"Error Message", "Note", "Information"}

// seriesEntry is one bar of a daily or intraday series. Numbers arrive as strings.
type seriesEntry struct {
	Open   model.OptFloat `json:"1. open"`
	High   model.OptFloat `json:"2. high"`
	Low    model.OptFloat `json:"3. low"`
	Close  model.OptFloat `json:"4. close"`
	Volume model.OptInt   `json:"5. volume"`
}

type globalQuote struct {
	Symbol           string         `json:"01. symbol"`
	Open             model.OptFloat `json:"02. open"`
	High             model.OptFloat `json:"03. high"`
	Low              model.OptFloat `json:"04. low"`
	Price            model.OptFloat `json:"05. price"`
	Volume           model.OptInt   `json:"06. volume"`
	LatestTradingDay string         `json:"07. latest trading day"`
	PreviousClose    model.OptFloat `json:"08. previous close"`
	Change           model.OptFloat `json:"09. change"`
	ChangePercent    string         `json:"10. change percent"`
}

// Summary is the most recent bar of a series, for quick-glance logging.
type Summary struct {
	Date   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Quote is the decoded GLOBAL_QUOTE answer.
type Quote struct {
	Symbol           string
	Open             float64
	High             float64
	Low              float64
	Price            float64
	Volume           int64
	LatestTradingDay string
	PreviousClose    float64
	Change           float64
	ChangePercent    string
}

// Listing is one row of the LISTING_STATUS CSV.
type Listing struct {
	Symbol        string
	Name          string
	Exchange      string
	AssetType     string
	IPODate       string
	DelistingDate string
	Status        string
}
