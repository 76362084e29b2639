package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated      = "order.created"
	TopicOrderStatusSet    = "order.status_set"
	TopicVoucherRedeemed   = "voucher.redeemed"
	TopicVoucherExhausted  = "voucher.exhausted"
	TopicVoucherSweptStale = "voucher.swept_stale"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderStatusSet,
		TopicVoucherRedeemed,
		TopicVoucherExhausted,
		TopicVoucherSweptStale,
	}
}
