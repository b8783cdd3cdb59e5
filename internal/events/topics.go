package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated      = "order.created"
	TopicOrderPaid         = "order.paid"
	TopicOrderCancelled    = "order.cancelled"
	TopicPaymentFailed     = "payment.failed"
	TopicPromotionRedeemed = "promotion.redeemed"
	TopicProductSynced     = "marketplace.product_synced"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderPaid,
		TopicOrderCancelled,
		TopicPaymentFailed,
		TopicPromotionRedeemed,
		TopicProductSynced,
	}
}
