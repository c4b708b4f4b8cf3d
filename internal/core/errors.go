package core

import "errors"

var (
	ErrInvalidConfiguration  = errors.New("invalid print configuration")
	ErrMerchantNotConfigured = errors.New("merchant payout details not configured")
	ErrNoFiles               = errors.New("no files provided")
	ErrRequestNotFound       = errors.New("print request not found")
	ErrPayeeNotConfigured    = errors.New("payee payout id is empty")
	ErrPaymentNotConfirmed   = errors.New("payment not confirmed")
)
