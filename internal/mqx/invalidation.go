package mqx

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"fontier-admin/internal/logx"
	"fontier-admin/internal/querycache"
)

const (
	DefaultExchange = "fontier.invalidations"
	routingPrefix   = "invalidate."
)

var logger = logx.GetScope("mqx")

// RoutingKey is invalidate.<kind>, so consumers can bind to a subset of kinds.
func RoutingKey(ev querycache.Event) string {
	return routingPrefix + ev.Dep.Key.Kind
}

// EncodeEvent and DecodeEvent are the wire form of an invalidation.
func EncodeEvent(ev querycache.Event) ([]byte, error) { return json.Marshal(ev) }

func DecodeEvent(body []byte) (querycache.Event, error) {
	var ev querycache.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("decode invalidation: %w", err)
	}
	if ev.Dep.Key.Kind == "" {
		return ev, fmt.Errorf("decode invalidation: missing kind")
	}
	return ev, nil
}

// Notifier adapts a Publisher to querycache.Notifier.
type Notifier struct {
	pub Publisher
}

func NewNotifier(pub Publisher) *Notifier { return &Notifier{pub: pub} }

// Notify implements querycache.Notifier.
func (n *Notifier) Notify(ctx context.Context, ev querycache.Event) error {
	body, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	return n.pub.Publish(ctx, RoutingKey(ev), body)
}

// Applier receives remote invalidations; *querycache.Cache implements it.
type Applier interface {
	ApplyRemote(ev querycache.Event) bool
}

// Consumer binds a private queue to the exchange and applies every event it receives.
type Consumer struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	deliveries <-chan amqp.Delivery
}

// NewConsumer declares an exclusive auto-delete queue bound to invalidate.<kind> for
// each of kinds, or to every kind when kinds is empty.
func NewConsumer(url, exchange string, kinds ...string) (*Consumer, error) {
	exchange = lo.Ternary(exchange != "", exchange, DefaultExchange)
	conn, ch, err := dial(url, exchange)
	if err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	bindings := lo.Ternary(len(kinds) == 0, []string{routingPrefix + "*"},
		lo.Map(kinds, func(k string, _ int) string { return routingPrefix + k }))
	for _, key := range bindings {
		if err := ch.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, err
		}
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Consumer{conn: conn, ch: ch, deliveries: deliveries}, nil
}

// Run applies events until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context, dst Applier) {
	consume(ctx, c.deliveries, dst)
}

func (c *Consumer) Close() error {
	_ = c.ch.Close()
	return c.conn.Close()
}

func consume(ctx context.Context, deliveries <-chan amqp.Delivery, dst Applier) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				logger.Warn("invalidation channel closed")
				return
			}
			ev, err := DecodeEvent(d.Body)
			if err != nil {
				logger.Warn("drop invalidation", zap.String("routing_key", d.RoutingKey), zap.Error(err))
				continue
			}
			if dst.ApplyRemote(ev) {
				logger.Debug("remote invalidation", zap.String("op", ev.Op), zap.String("dep", ev.Dep.String()),
					zap.String("origin", ev.Origin))
			}
		}
	}
}
