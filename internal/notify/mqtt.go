package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"wastewise/backend/config"
)

const (
	qosAtLeastOnce = 1
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// MQTT 基于 paho 的事件发布器
type MQTT struct {
	client mqtt.Client
	topic  string
	logger *zap.Logger
}

// NewMQTT 连接 broker；断线后由 paho 自动重连
func NewMQTT(cfg *config.MQTTConfig, logger *zap.Logger) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("MQTT 连接断开", zap.Error(err))
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.Info("MQTT 已连接", zap.String("broker", cfg.Broker))
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("连接 MQTT broker 超时: %s", cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("连接 MQTT broker 失败: %w", err)
	}
	return newMQTTWithClient(client, cfg.Topic, logger), nil
}

func newMQTTWithClient(client mqtt.Client, topic string, logger *zap.Logger) *MQTT {
	return &MQTT{client: client, topic: topic, logger: logger}
}

// Publish 以 QoS 1、非保留方式发布事件
func (p *MQTT) Publish(ctx context.Context, ev AnalysisEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	tok := p.client.Publish(p.topic, qosAtLeastOnce, false, payload)
	timeout := publishTimeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < timeout {
			timeout = d
		}
	}
	if !tok.WaitTimeout(timeout) {
		return fmt.Errorf("发布事件超时: %s", p.topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("发布事件失败: %w", err)
	}
	return nil
}

// Close 断开连接，等待未完成的发送最多 250ms
func (p *MQTT) Close() {
	p.client.Disconnect(250)
}
