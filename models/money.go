package models

import "github.com/shopspring/decimal"

func init() {
	// 金额以 JSON 数字输出，与前端约定保持一致
	decimal.MarshalJSONWithoutQuotes = true
}

// SignedAmount 返回交易对账户余额的影响：收入为正，支出为负
func SignedAmount(txType string, amount decimal.Decimal) decimal.Decimal {
	if txType == TransactionTypeExpense {
		return amount.Neg()
	}
	return amount
}

// MoneyScale 金额保留的小数位数，与 decimal(15,2) 列一致
const MoneyScale = 2

// HasMoneyScale 金额小数位不超过 MoneyScale（10.500 视为合法）
func HasMoneyScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(MoneyScale))
}
