package outbox

// Event is the domain event envelope staged in the outbox table inside the
// transaction that produced it. The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}
