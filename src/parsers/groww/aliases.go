package groww

import "github.com/username/tradejournal/backend/src/parsers/columns"

// Header spellings seen across Groww stock and F&O P&L reports and order
// histories, most recent layout first.
var (
	symbolAliases = columns.Aliases{
		"Stock name", "Stock Name", "Scrip Name", "Scrip name", "Symbol", "symbol",
		"Company Name", "Name", "Contract",
	}
	quantityAliases = columns.Aliases{
		"Quantity", "quantity", "Qty", "Qty.", "Lots x Lot size", "Total Quantity",
	}
	buyPriceAliases = columns.Aliases{
		"Buy price", "Buy Price", "Buy price (₹)", "Buy Price (₹)", "Avg buy price",
		"Average buy price", "Avg. Buy Price", "Buy avg",
	}
	sellPriceAliases = columns.Aliases{
		"Sell price", "Sell Price", "Sell price (₹)", "Sell Price (₹)", "Avg sell price",
		"Average sell price", "Avg. Sell Price", "Sell avg",
	}
	buyValueAliases = columns.Aliases{
		"Buy value", "Buy Value", "Buy value (₹)", "Buy Value (₹)", "Invested value", "Invested Value",
	}
	sellValueAliases = columns.Aliases{
		"Sell value", "Sell Value", "Sell value (₹)", "Sell Value (₹)",
	}
	priceAliases = columns.Aliases{
		"Price", "Execution price", "Avg. price",
	}
	profitLossAliases = columns.Aliases{
		"Realised P&L", "Realized P&L", "Realised P&L (₹)", "Realized P&L (₹)",
		"Realised PnL", "Net P&L", "P&L",
	}
	buyDateAliases = columns.Aliases{
		"Buy date", "Buy Date", "Date", "Trade date", "Trade Date", "Execution date and time",
		"Order date",
	}
	sellDateAliases = columns.Aliases{
		"Sell date", "Sell Date",
	}
	directionAliases = columns.Aliases{
		"Type", "Buy/Sell", "Side", "Transaction type", "Order type",
	}
)

var markerRules = columns.MarkerRules{
	Extra:  []string{"Futures", "Options", "trades"},
	Strict: true,
}
