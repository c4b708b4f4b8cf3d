package db

import "time"

type MerchantProfile struct {
	ShopName  string    `json:"shopName"`
	PayoutID  string    `json:"upiId"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type HistoryEntry struct {
	ID          int64     `json:"id"`
	QueueNumber int64     `json:"queueNumber"`
	Event       string    `json:"event"`
	TotalCost   int64     `json:"totalCost"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
