package service

import (
	"context"
	"errors"
	"image"
	"math"
	"time"

	"go.uber.org/zap"

	"wastewise/backend/config"
	"wastewise/backend/internal/classifier"
	"wastewise/backend/internal/disposal"
	"wastewise/backend/internal/dto"
	"wastewise/backend/internal/imagestore"
	"wastewise/backend/internal/model"
	"wastewise/backend/internal/notify"
	"wastewise/backend/internal/policy"
	"wastewise/backend/internal/repository"
	apperr "wastewise/backend/pkg/errors"
)

// AnalysisService 识别业务接口，HTTP 接口与摄像头循环共用
type AnalysisService interface {
	// Analyze 识别一帧图片，按角色决定是否存图落库
	Analyze(ctx context.Context, caller Caller, img image.Image) (*dto.AnalyzeResponse, error)
}

type analysisService struct {
	guestMode  string
	repo       *repository.Repository
	classifier classifier.Classifier
	images     imagestore.Store
	publisher  notify.Publisher
	logger     *zap.Logger
}

// NewAnalysisService 创建 AnalysisService 实例
func NewAnalysisService(
	cfg *config.Config,
	repo *repository.Repository,
	clf classifier.Classifier,
	images imagestore.Store,
	pub notify.Publisher,
	logger *zap.Logger,
) AnalysisService {
	return &analysisService{
		guestMode:  cfg.Feature.GuestPersistence,
		repo:       repo,
		classifier: clf,
		images:     images,
		publisher:  pub,
		logger:     logger,
	}
}

func (s *analysisService) Analyze(ctx context.Context, caller Caller, img image.Image) (*dto.AnalyzeResponse, error) {
	// 1. 角色门
	if d := policy.Authorize(policy.OpClassify, caller.Role, caller.UserID, 0); !d.Allowed {
		logViolation(s.logger, policy.OpClassify, caller, d.Reason)
		if d.Reason == policy.ReasonUnknownRole {
			return nil, apperr.Validation("unknown role")
		}
		return nil, apperr.Wrap(apperr.ErrForbidden, d.Reason, nil)
	}

	// 2. 需要归属的角色必须对应已存在的用户
	owner, err := s.resolveOwner(ctx, caller)
	if err != nil {
		return nil, err
	}

	// 3. 推理
	pred, err := s.classifier.Classify(ctx, img)
	if err != nil {
		s.logger.Warn("推理失败", zap.Error(err))
		if !errors.Is(err, apperr.ErrInference) {
			err = apperr.Inference("classification failed", err)
		}
		return nil, err
	}

	resp := &dto.AnalyzeResponse{
		ClassName:       pred.Label,
		ConfidenceScore: confidencePercent(pred.Confidence),
		Instruction:     disposal.InstructionFor(pred.Label),
		WasteImpact:     disposal.ImpactFor(pred.Label, 1),
	}

	// 4. 存图落库
	timestamp := time.Now().UTC()
	if s.shouldPersist(caller, owner) {
		entry, err := s.persist(ctx, owner, resp, img)
		if err != nil {
			return nil, err
		}
		resp.ImagePath = &entry.ImagePath
		timestamp = entry.Timestamp
	}

	// 5. 推送事件，失败只记录
	ev := notify.AnalysisEvent{
		ClassName:       resp.ClassName,
		ConfidenceScore: resp.ConfidenceScore,
		Instruction:     resp.Instruction,
		UserID:          owner,
		ImagePath:       resp.ImagePath,
		Timestamp:       timestamp,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("推送识别事件失败", zap.Error(err))
	}

	s.logger.Info("识别完成",
		zap.String("class_name", resp.ClassName),
		zap.Float64("confidence_score", resp.ConfidenceScore),
		zap.String("role", caller.Role.String()),
		zap.Bool("persisted", resp.ImagePath != nil),
	)
	return resp, nil
}

// resolveOwner 返回记录归属；游客为 nil
func (s *analysisService) resolveOwner(ctx context.Context, caller Caller) (*uint, error) {
	return verifyAccount(ctx, s.repo, s.logger, policy.OpPersistAnalysis, caller)
}

func (s *analysisService) shouldPersist(caller Caller, owner *uint) bool {
	if owner == nil {
		return caller.Role == policy.RoleGuest && s.guestMode == config.GuestPersistSentinel
	}
	d := policy.Authorize(policy.OpPersistAnalysis, caller.Role, caller.UserID, *owner)
	if !d.Allowed {
		logViolation(s.logger, policy.OpPersistAnalysis, caller, d.Reason)
	}
	return d.Allowed
}

func (s *analysisService) persist(ctx context.Context, owner *uint, resp *dto.AnalyzeResponse, img image.Image) (*model.AnalysisLog, error) {
	name, err := s.images.Save(ctx, resp.ClassName, img)
	if err != nil {
		s.logger.Error("保存图片失败", zap.Error(err))
		return nil, apperr.Storage("save image", err)
	}

	entry := &model.AnalysisLog{
		UserID:          owner,
		ImagePath:       name,
		ClassName:       resp.ClassName,
		ConfidenceScore: resp.ConfidenceScore,
	}
	if err := s.repo.Analysis.Create(ctx, entry); err != nil {
		s.logger.Error("写入识别记录失败", zap.Error(err))
		// 回收已保存的图片，避免无记录引用的孤儿文件
		if derr := s.images.Delete(ctx, name); derr != nil {
			s.logger.Warn("清理图片失败", zap.String("image", name), zap.Error(derr))
		}
		return nil, apperr.Storage("record analysis", err)
	}
	return entry, nil
}

// confidencePercent 将 [0,1] 概率换算为百分比并保留两位小数
func confidencePercent(p float64) float64 {
	pct := math.Round(p*100*100) / 100
	return math.Max(0, math.Min(100, pct))
}
