package service

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"wastewise/backend/internal/dto"
	"wastewise/backend/internal/model"
	"wastewise/backend/internal/policy"
	"wastewise/backend/internal/repository"
	apperr "wastewise/backend/pkg/errors"
)

// 历史记录条数
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// HistoryService 历史与统计业务接口
// 游客与被角色门拒绝的调用方得到空结果；账户校验失败返回错误
type HistoryService interface {
	History(ctx context.Context, caller Caller, limit int) ([]model.AnalysisLog, error)
	Stats(ctx context.Context, caller Caller) (*dto.StatsResponse, error)
	Breakdown(ctx context.Context, caller Caller) ([]dto.LabelShare, error)
}

type historyService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewHistoryService 创建 HistoryService 实例
func NewHistoryService(repo *repository.Repository, logger *zap.Logger) HistoryService {
	return &historyService{repo: repo, logger: logger}
}

func (s *historyService) History(ctx context.Context, caller Caller, limit int) ([]model.AnalysisLog, error) {
	filter, ok, err := s.scope(ctx, policy.OpReadHistory, caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.AnalysisLog{}, nil
	}

	logs, err := s.repo.Analysis.List(ctx, filter, clampLimit(limit))
	if err != nil {
		s.logger.Error("查询历史记录失败", zap.Error(err))
		return nil, apperr.Storage("query history", err)
	}
	if logs == nil {
		logs = []model.AnalysisLog{}
	}
	return logs, nil
}

func (s *historyService) Stats(ctx context.Context, caller Caller) (*dto.StatsResponse, error) {
	resp := &dto.StatsResponse{PerLabel: map[string]int64{}}

	rows, ok, err := s.aggregate(ctx, caller)
	if err != nil || !ok {
		return resp, err
	}

	var confTotal float64
	for _, r := range rows {
		resp.TotalScans += r.Count
		resp.PerLabel[r.ClassName] = r.Count
		confTotal += r.ConfidenceTotal
	}
	resp.OrganicCount = resp.PerLabel[model.LabelOrganic]
	resp.RecycleCount = resp.PerLabel[model.LabelRecycle]
	resp.TrashCount = resp.PerLabel[model.LabelTrash]
	if resp.TotalScans > 0 {
		resp.AvgConfidence = round2(confTotal / float64(resp.TotalScans))
	}
	return resp, nil
}

func (s *historyService) Breakdown(ctx context.Context, caller Caller) ([]dto.LabelShare, error) {
	rows, ok, err := s.aggregate(ctx, caller)
	if err != nil {
		return nil, err
	}
	shares := []dto.LabelShare{}
	if !ok {
		return shares, nil
	}

	var total int64
	for _, r := range rows {
		total += r.Count
	}
	for _, r := range rows {
		shares = append(shares, dto.LabelShare{
			Label:      r.ClassName,
			Count:      r.Count,
			Percentage: round2(float64(r.Count) / float64(total) * 100),
		})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Label < shares[j].Label
	})
	return shares, nil
}

func (s *historyService) aggregate(ctx context.Context, caller Caller) ([]repository.LabelAggregate, bool, error) {
	filter, ok, err := s.scope(ctx, policy.OpReadStats, caller)
	if err != nil || !ok {
		return nil, false, err
	}
	rows, err := s.repo.Analysis.AggregateByLabel(ctx, filter)
	if err != nil {
		s.logger.Error("统计识别记录失败", zap.Error(err))
		return nil, false, apperr.Storage("query stats", err)
	}
	return rows, true, nil
}

// scope 核对账户后经角色门得到查询过滤条件
func (s *historyService) scope(ctx context.Context, op policy.Operation, caller Caller) (*policy.OwnerFilter, bool, error) {
	if caller.Role.Valid() {
		if _, err := verifyAccount(ctx, s.repo, s.logger, op, caller); err != nil {
			return nil, false, err
		}
	}

	d := policy.Authorize(op, caller.Role, caller.UserID, caller.UserID)
	if !d.Allowed {
		// 游客读取为正常路径，不记为违规
		if caller.Role != policy.RoleGuest {
			logViolation(s.logger, op, caller, d.Reason)
		}
		return nil, false, nil
	}
	return d.Filter, true, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
