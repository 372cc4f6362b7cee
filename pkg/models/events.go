package models

// Gateway webhook event names.
const (
	EventChargeSuccess    = "charge.success"
	EventChargeFailed     = "charge.failed"
	EventTransferSuccess  = "transfer.success"
	EventTransferFailed   = "transfer.failed"
	EventTransferReversed = "transfer.reversed"
)

// GatewayEvent is a verified payment gateway webhook.
type GatewayEvent struct {
	Event string           `json:"event"`
	Data  GatewayEventData `json:"data"`
}

// GatewayEventData carries the fields of an event the settlement path reads.
// Amount is in the gateway's minor unit.
type GatewayEventData struct {
	Reference    string `json:"reference"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status,omitempty"`
	TransferCode string `json:"transfer_code,omitempty"`
}
