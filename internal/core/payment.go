package core

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

const qrCodeSize = 256

type Payee struct {
	Name     string
	PayoutID string
}

// TransactionTag builds a reconciliation tag unique per request: the
// admission timestamp plus the queue number.
func TransactionTag(at time.Time, queueNumber int64) string {
	return fmt.Sprintf("TXN%d-%d", at.UnixMilli(), queueNumber)
}

// BuildPaymentDescriptor encodes a UPI payment intent for the given payee and
// amount, and renders it as a scannable QR code.
func BuildPaymentDescriptor(payee Payee, amount int64, transactionTag string) (PaymentDescriptor, error) {
	if payee.PayoutID == "" {
		return PaymentDescriptor{}, ErrPayeeNotConfigured
	}

	uri := fmt.Sprintf("upi://pay?pa=%s&pn=%s&mc=0000&tr=%s&tn=PrintPayment&am=%d&cu=INR",
		url.QueryEscape(payee.PayoutID),
		url.QueryEscape(payee.Name),
		url.QueryEscape(transactionTag),
		amount)

	png, err := qrcode.Encode(uri, qrcode.Medium, qrCodeSize)
	if err != nil {
		return PaymentDescriptor{}, fmt.Errorf("failed to render payment code: %w", err)
	}

	return PaymentDescriptor{
		URI:          uri,
		RenderedCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}
