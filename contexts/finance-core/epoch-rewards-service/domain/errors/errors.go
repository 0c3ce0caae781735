package errors

import "errors"

var (
	ErrUnauthorized        = errors.New("caller is not authorized for this operation")
	ErrNoRewardsAvailable  = errors.New("no rewards available for user in current epoch")
	ErrAlreadyClaimed      = errors.New("rewards already claimed for this epoch")
	ErrInsufficientBalance = errors.New("pool balance is insufficient for reward payout")
	ErrPayoutFailed        = errors.New("external reward payout failed")
	ErrNotCurrentEpoch     = errors.New("registration must target the current epoch")
	ErrInvalidInput        = errors.New("invalid rewards input")
)
