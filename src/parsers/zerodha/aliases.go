package zerodha

import "github.com/username/tradejournal/backend/src/parsers/columns"

// Header spellings seen across Zerodha Console P&L statements and tradebooks,
// most recent layout first. New legacy variants are appended here.
var (
	symbolAliases = columns.Aliases{
		"Symbol", "symbol", "SYMBOL", "Tradingsymbol", "tradingsymbol", "Trading Symbol",
		"Scrip", "Scrip Name", "Instrument",
	}
	quantityAliases = columns.Aliases{
		"Quantity", "quantity", "QUANTITY", "Qty", "Qty.", "qty",
		"Buy Quantity", "Sell Quantity", "Open Quantity",
	}
	buyPriceAliases = columns.Aliases{
		"Buy Price", "Buy price", "buy_price", "BUY PRICE", "Buy Price (₹)", "Buy Price (Rs.)",
		"Avg. Buy Price", "Buy Avg.", "Buy Avg", "Buy Average", "Avg Buy Price",
	}
	sellPriceAliases = columns.Aliases{
		"Sell Price", "Sell price", "sell_price", "SELL PRICE", "Sell Price (₹)", "Sell Price (Rs.)",
		"Avg. Sell Price", "Sell Avg.", "Sell Avg", "Sell Average", "Avg Sell Price",
	}
	buyValueAliases = columns.Aliases{
		"Buy Value", "Buy value", "buy_value", "BUY VALUE", "Buy Value (₹)", "Buy Value (Rs.)",
	}
	sellValueAliases = columns.Aliases{
		"Sell Value", "Sell value", "sell_value", "SELL VALUE", "Sell Value (₹)", "Sell Value (Rs.)",
	}
	priceAliases = columns.Aliases{
		"Price", "price", "Trade Price", "Avg. Price", "Average Price", "average_price",
	}
	profitLossAliases = columns.Aliases{
		"Realised P&L", "Realized P&L", "Realised P&L (₹)", "Realized P&L (₹)",
		"Realised P&L (Rs.)", "Realized P&L (Rs.)", "realized_pnl", "Realized PnL", "Realised PnL",
		"Net Realized P&L", "P&L", "PnL",
	}
	dateAliases = columns.Aliases{
		"Trade Date", "trade_date", "Date", "date", "Order Execution Time", "order_execution_time",
		"Buy Date", "Entry Date",
	}
	exitDateAliases = columns.Aliases{
		"Sell Date", "Exit Date",
	}
	directionAliases = columns.Aliases{
		"Trade Type", "trade_type", "Type", "Buy/Sell", "Side", "Transaction Type",
	}
)

var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2-1-2006",
	"2006-01-02 15:04:05",
	"2 Jan 2006",
}

var markerRules = columns.MarkerRules{
	Extra: []string{"Particulars", "Futures", "Options"},
}
