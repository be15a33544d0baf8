package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// ── mock paho 客户端 ──

type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool                     { return !t.timeout }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	mqtt.Client
	token        *fakeToken
	sent         []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic, qos, retained, payload.([]byte)})
	return c.token
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestMQTT_Publish(t *testing.T) {
	fc := &fakeClient{token: &fakeToken{}}
	p := newMQTTWithClient(fc, "wastewise/analysis", zap.NewNop())

	uid := uint(7)
	ev := AnalysisEvent{
		ClassName:       "recycle",
		ConfidenceScore: 91.5,
		Instruction:     "Place in blue bin after rinsing.",
		UserID:          &uid,
		Timestamp:       time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC),
	}
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("期望发布成功，实际 %v", err)
	}
	if len(fc.sent) != 1 {
		t.Fatalf("期望发布 1 条，实际 %d", len(fc.sent))
	}
	msg := fc.sent[0]
	if msg.topic != "wastewise/analysis" || msg.qos != 1 || msg.retained {
		t.Errorf("发布参数错误: %+v", msg)
	}

	var got map[string]any
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatalf("负载不是 JSON: %v", err)
	}
	if got["class_name"] != "recycle" || got["user_id"] != float64(7) {
		t.Errorf("负载内容不符: %v", got)
	}
	if got["image_path"] != nil {
		t.Errorf("未存图时 image_path 应为 null，实际 %v", got["image_path"])
	}

	p.Close()
	if !fc.disconnected {
		t.Error("Close 应断开连接")
	}
}

func TestMQTT_PublishFailure(t *testing.T) {
	brokerErr := errors.New("not connected")
	p := newMQTTWithClient(&fakeClient{token: &fakeToken{err: brokerErr}}, "t", zap.NewNop())
	if err := p.Publish(context.Background(), AnalysisEvent{}); !errors.Is(err, brokerErr) {
		t.Errorf("期望包装 broker 错误，实际 %v", err)
	}

	p = newMQTTWithClient(&fakeClient{token: &fakeToken{timeout: true}}, "t", zap.NewNop())
	if err := p.Publish(context.Background(), AnalysisEvent{}); err == nil {
		t.Error("超时应返回错误")
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), AnalysisEvent{}); err != nil {
		t.Errorf("Nop 不应返回错误: %v", err)
	}
	p.Close()
}
