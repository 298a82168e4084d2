package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"wallet/config"
	"wallet/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

// 账本事件类型
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
)

// LedgerEvent 交易提交后推送的账本事件
type LedgerEvent struct {
	Type          string          `json:"type"`
	TransactionID uint            `json:"transaction_id"`
	UserID        uint            `json:"user_id"`
	AccountID     uint            `json:"account_id"`
	CategoryID    uint            `json:"category_id"`
	TxType        string          `json:"tx_type"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	Date          time.Time       `json:"date"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewLedgerEvent 由交易构造事件，Balance 取交易附带账户的最新余额
func NewLedgerEvent(eventType string, t *models.Transaction, now time.Time) LedgerEvent {
	e := LedgerEvent{
		Type:          eventType,
		TransactionID: t.ID,
		UserID:        t.UserID,
		AccountID:     t.AccountID,
		CategoryID:    t.CategoryID,
		TxType:        t.Type,
		Amount:        t.Amount,
		Date:          t.Date,
		OccurredAt:    now,
	}
	if t.Account != nil {
		e.Balance = t.Account.Balance
	}
	return e
}

// ToJSON 序列化
func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventPublisher 账本事件推送
type EventPublisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
	Close() error
}

// NopPublisher 未启用推送时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, LedgerEvent) error { return nil }
func (NopPublisher) Close() error                              { return nil }

// AMQPPublisher 通过 RabbitMQ 推送账本事件
type AMQPPublisher struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	routingKey string
}

// NewAMQPPublisher 连接 RabbitMQ 并声明持久化 direct 交换机
func NewAMQPPublisher(url, exchange, routingKey string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("连接 RabbitMQ 失败: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("打开 channel 失败: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("声明交换机失败: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, routingKey: routingKey}, nil
}

// Publish 以持久化消息推送事件，超时 5 秒
func (p *AMQPPublisher) Publish(ctx context.Context, event LedgerEvent) error {
	body, err := event.ToJSON()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	})
}

// Close 关闭 channel 与连接
func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// NewEventPublisher 按配置创建推送器；未启用或连接失败时退化为 NopPublisher
func NewEventPublisher(cfg config.AMQPConfig) EventPublisher {
	if !cfg.Enabled {
		return NopPublisher{}
	}
	p, err := NewAMQPPublisher(cfg.URL, cfg.Exchange, cfg.RoutingKey)
	if err != nil {
		log.Printf("警告: 账本事件推送不可用: %v", err)
		return NopPublisher{}
	}
	log.Printf("账本事件推送已启用: exchange=%s routing_key=%s", cfg.Exchange, cfg.RoutingKey)
	return p
}
