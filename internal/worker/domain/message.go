package domain

import (
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuongbtq/cleaning-scheduler/internal/events"
)

// EventMessage is a decoded job event together with the delivery it came in on
type EventMessage struct {
	Event    events.JobEvent
	Delivery amqp.Delivery
}
