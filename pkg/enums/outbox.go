package enums

// OutboxEventType labels the domain event stored in outbox_events.
type OutboxEventType string

const (
	OutboxEventOrderCreated      OutboxEventType = "order.created"
	OutboxEventInventoryApproved OutboxEventType = "inventory.approved"
	OutboxEventTipsPaid          OutboxEventType = "work_session.tips_paid"
)

// String implements fmt.Stringer.
func (t OutboxEventType) String() string {
	return string(t)
}

// OutboxAggregateType labels which entity an outbox event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateOrder       OutboxAggregateType = "order"
	OutboxAggregateInventory   OutboxAggregateType = "inventory_item"
	OutboxAggregateWorkSession OutboxAggregateType = "work_session"
)

// String implements fmt.Stringer.
func (t OutboxAggregateType) String() string {
	return string(t)
}
