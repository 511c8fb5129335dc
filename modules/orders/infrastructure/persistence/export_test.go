package persistence

var (
	SaveDeliveryInTx   = saveDeliveryInTx
	DeliveryStatements = deliveryStatements
)
