package moa

import "encoding/json"

//
// ────────────────────────────────────────────────
//   Client Configuration
// ────────────────────────────────────────────────
//

// Config holds the upstream endpoint settings.
type Config struct {
	BaseURL    string // e.g. "https://data.moa.gov.tw"
	MarketName string // market filter, e.g. "台北一"
}

// FarmTransPath is the open-data dataset for wholesale fruit & vegetable transactions.
const FarmTransPath = "/Service/OpenData/FromM/FarmTransData.aspx"

//
// ────────────────────────────────────────────────
//   MOA API: FarmTransData record
// ────────────────────────────────────────────────
//

// Record is one row of the FarmTransData response. Prices and volume arrive as
// JSON numbers and are kept as json.Number so their literal text survives decoding.
type Record struct {
	TradeDate    string      `json:"交易日期"` // "114.12.03"
	CategoryCode string      `json:"種類代碼"` // "N04" vegetable, "N05" fruit
	CropCode     string      `json:"作物代號"`
	CropName     string      `json:"作物名稱"`
	MarketCode   string      `json:"市場代號"`
	MarketName   string      `json:"市場名稱"`
	UpperPrice   json.Number `json:"上價"`
	MiddlePrice  json.Number `json:"中價"`
	LowerPrice   json.Number `json:"下價"`
	AveragePrice json.Number `json:"平均價"`
	Volume       json.Number `json:"交易量"`
}
