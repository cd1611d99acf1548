package stella

import "errors"

// ErrInsufficientFunds signals that both buckets together cannot cover the
// requested amount. The wallet is left untouched.
var ErrInsufficientFunds = errors.New("stella: insufficient funds")

// Drawdown computes the bucket split for spending amount from a wallet:
// the monthly bucket drains first and only the remainder spills into topup.
// Spending subscription credits before purchased credits is policy; callers
// must apply the returned balances atomically against the values passed in.
func Drawdown(monthly, topup, amount int64) (newMonthly, newTopup int64, err error) {
	if amount < 0 {
		amount = 0
	}
	if monthly+topup < amount {
		return monthly, topup, ErrInsufficientFunds
	}

	monthlySpend := amount
	if monthlySpend > monthly {
		monthlySpend = monthly
	}
	topupSpend := amount - monthlySpend

	return monthly - monthlySpend, topup - topupSpend, nil
}

// DrawdownSplit returns how much of amount each bucket pays, using the same
// monthly-first policy as Drawdown.
func DrawdownSplit(monthly, topup, amount int64) (monthlySpend, topupSpend int64, err error) {
	newMonthly, newTopup, err := Drawdown(monthly, topup, amount)
	if err != nil {
		return 0, 0, err
	}
	return monthly - newMonthly, topup - newTopup, nil
}
