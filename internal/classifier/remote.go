package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"wastewise/backend/config"
	apperr "wastewise/backend/pkg/errors"
)

// Remote 基于 TF-Serving REST 协议的推理客户端
// POST {endpoint}/v1/models/{model}:predict
type Remote struct {
	url       string
	labels    []string
	inputSize int
	client    *http.Client
	logger    *zap.Logger
}

type predictRequest struct {
	Instances []Tensor `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error,omitempty"`
}

// NewRemote 创建推理客户端，labels 顺序须与模型输出一致
func NewRemote(cfg *config.ClassifierConfig, labels []string, logger *zap.Logger) *Remote {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Remote{
		url:       fmt.Sprintf("%s/v1/models/%s:predict", strings.TrimRight(cfg.Endpoint, "/"), cfg.Model),
		labels:    labels,
		inputSize: cfg.InputSize,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// Classify 预处理图片并调用远程模型，返回概率最高的标签
func (r *Remote) Classify(ctx context.Context, img image.Image) (Prediction, error) {
	if img == nil || img.Bounds().Empty() {
		return Prediction{}, apperr.Inference("empty frame", nil)
	}

	body, err := json.Marshal(predictRequest{Instances: []Tensor{Preprocess(img, r.inputSize)}})
	if err != nil {
		return Prediction{}, apperr.Inference("encode model input", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return Prediction{}, apperr.Inference("build inference request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return Prediction{}, apperr.Inference("inference backend unavailable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Prediction{}, apperr.Inference("read inference response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Prediction{}, apperr.Inference(
			fmt.Sprintf("inference backend returned %d", resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(raw))),
		)
	}

	var out predictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Prediction{}, apperr.Inference("decode inference response", err)
	}
	if out.Error != "" {
		return Prediction{}, apperr.Inference("model error", fmt.Errorf("%s", out.Error))
	}

	pred, err := r.pick(out.Predictions)
	if err != nil {
		return Prediction{}, err
	}

	r.logger.Debug("推理完成",
		zap.String("label", pred.Label),
		zap.Float64("confidence", pred.Confidence),
		zap.Duration("latency", time.Since(start)),
	)
	return pred, nil
}

func (r *Remote) pick(predictions [][]float64) (Prediction, error) {
	if len(predictions) == 0 || len(predictions[0]) == 0 {
		return Prediction{}, apperr.Inference("model returned no prediction", nil)
	}
	probs := predictions[0]
	if len(probs) != len(r.labels) {
		return Prediction{}, apperr.Inference(
			fmt.Sprintf("model returned %d classes, expected %d", len(probs), len(r.labels)), nil)
	}

	i := argmax(probs)
	conf := probs[i]
	if conf < 0 {
		conf = 0
	} else if conf > 1 {
		conf = 1
	}
	return Prediction{Label: r.labels[i], Confidence: conf}, nil
}
