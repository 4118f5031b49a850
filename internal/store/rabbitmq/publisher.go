package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// JobMessage is the wire payload for one distribution job. The track id is
// carried alongside the job id so queue consumers and ops tooling can see
// which release a delivery belongs to without a database lookup.
type JobMessage struct {
	JobID   string `json:"job_id"`
	TrackID string `json:"track_id"`
}

type queueSpec struct {
	Name string
	Args amqp.Table
}

// jobQueues returns the distribution queues in declaration order:
//
//	<queue>        main, dead-letters to <queue>.dlq on reject
//	<queue>.retry  TTL parking lot, dead-letters back to <queue>
//	<queue>.dlq    terminal
//
// The dlq comes first so the dead-letter targets exist before the queues
// pointing at them.
func jobQueues(queue string) []queueSpec {
	return []queueSpec{
		{Name: queue + ".dlq"},
		{Name: queue + ".retry", Args: amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": queue,
		}},
		{Name: queue, Args: amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": queue + ".dlq",
		}},
	}
}

// DeclareJobTopology declares the distribution queues. Every process that
// touches them declares through here: RabbitMQ rejects redeclaration with
// inequivalent arguments (PRECONDITION_FAILED), so publisher and worker
// must agree on the exact argument tables, and this is the single place
// they are written down.
func DeclareJobTopology(ch *amqp.Channel, queue string) error {
	for _, q := range jobQueues(queue) {
		if _, err := ch.QueueDeclare(q.Name, true, false, false, false, q.Args); err != nil {
			return err
		}
	}
	return nil
}

// Publisher hands distribution jobs to the worker fleet.
type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := DeclareJobTopology(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// PublishJob enqueues one distribution job for the worker.
func (p *Publisher) PublishJob(ctx context.Context, jobID, trackID string) error {
	body, err := json.Marshal(JobMessage{JobID: jobID, TrackID: trackID})
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(cctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}
