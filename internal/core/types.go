package core

import (
	"time"
)

type ColorMode string

const (
	ColorModeColor     ColorMode = "color"
	ColorModeGrayscale ColorMode = "grayscale"
)

type RequestState string

const (
	StatePending   RequestState = "pending"
	StateConfirmed RequestState = "confirmed"
	StatePrinting  RequestState = "printing"
)

// PrintFile is one uploaded document, addressed by the URL it was stored under.
type PrintFile struct {
	StorageRef   string `json:"filePath"`
	OriginalName string `json:"originalName"`
}

type PrinterSettings struct {
	Printer   string    `json:"printer"`
	ColorMode ColorMode `json:"colorMode"`
	Copies    int       `json:"copies"`
}

// PaymentDescriptor carries the UPI deep link and its rendered QR code
// (a data: URL the client page can drop straight into an img tag).
type PaymentDescriptor struct {
	URI          string `json:"upiUrl"`
	RenderedCode string `json:"upiQrCode"`
}

// PrintRequest is one walk-up print job. Files, settings, cost and the payment
// descriptor are fixed at admission; only PaymentConfirmed and State change
// afterwards, and only through the engine.
type PrintRequest struct {
	QueueNumber      int64           `json:"queueNumber"`
	Files            []PrintFile     `json:"files"`
	PrinterSettings  PrinterSettings `json:"printerSettings"`
	TotalCost        int64           `json:"totalCost"`
	PaymentConfirmed bool            `json:"paymentConfirmed"`
	PaymentDescriptor
	OwnerSessionID string       `json:"ownerSessionId,omitempty"`
	State          RequestState `json:"state"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// DispatchDescriptor is the payload handed to whatever executes the actual
// printing on the merchant side.
type DispatchDescriptor struct {
	QueueNumber     int64           `json:"queueNumber"`
	Files           []PrintFile     `json:"files"`
	PrinterSettings PrinterSettings `json:"printerSettings"`
}

type MerchantProfile struct {
	ShopName string `json:"shopName"`
	PayoutID string `json:"upiId"`
}

type QueueStats struct {
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Printing  int `json:"printing"`
	Total     int `json:"total"`
}
