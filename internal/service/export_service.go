package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"wastewise/backend/internal/policy"
	apperr "wastewise/backend/pkg/errors"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
// 工作簿包含两个 Sheet：
//   - "History"：调用方可见的最近识别记录
//   - "Summary"：按标签的数量与占比
type ExportService interface {
	ExportHistory(ctx context.Context, caller Caller) (*bytes.Buffer, string, error)
}

type exportService struct {
	history HistoryService
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(history HistoryService, logger *zap.Logger) ExportService {
	return &exportService{history: history, logger: logger, now: time.Now}
}

func (s *exportService) ExportHistory(ctx context.Context, caller Caller) (*bytes.Buffer, string, error) {
	if caller.Role == policy.RoleGuest {
		return nil, "", apperr.Wrap(apperr.ErrForbidden, policy.ReasonGuest, nil)
	}

	// 1. 查询数据
	logs, err := s.history.History(ctx, caller, MaxHistoryLimit)
	if err != nil {
		return nil, "", err
	}
	shares, err := s.history.Breakdown(ctx, caller)
	if err != nil {
		return nil, "", err
	}

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	const historySheet, summarySheet = "History", "Summary"
	idx, _ := f.NewSheet(historySheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")
	f.NewSheet(summarySheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#70AD47"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// History 表头
	headers := []string{"ID", "Timestamp (UTC)", "Class", "Confidence (%)", "Image"}
	for i, h := range headers {
		f.SetCellValue(historySheet, cell(i+1, 1), h)
	}
	f.SetCellStyle(historySheet, cell(1, 1), cell(len(headers), 1), headerStyle)
	f.SetColWidth(historySheet, "A", "A", 8)
	f.SetColWidth(historySheet, "B", "B", 22)
	f.SetColWidth(historySheet, "C", "D", 14)
	f.SetColWidth(historySheet, "E", "E", 36)

	for i, l := range logs {
		row := i + 2
		f.SetCellValue(historySheet, cell(1, row), l.ID)
		f.SetCellValue(historySheet, cell(2, row), l.Timestamp.UTC().Format("2006-01-02 15:04:05"))
		f.SetCellValue(historySheet, cell(3, row), l.ClassName)
		f.SetCellValue(historySheet, cell(4, row), l.ConfidenceScore)
		f.SetCellValue(historySheet, cell(5, row), l.ImagePath)
	}

	// Summary
	for i, h := range []string{"Label", "Count", "Percentage (%)"} {
		f.SetCellValue(summarySheet, cell(i+1, 1), h)
	}
	f.SetCellStyle(summarySheet, cell(1, 1), cell(3, 1), headerStyle)
	f.SetColWidth(summarySheet, "A", "C", 16)
	for i, sh := range shares {
		row := i + 2
		f.SetCellValue(summarySheet, cell(1, row), sh.Label)
		f.SetCellValue(summarySheet, cell(2, row), sh.Count)
		f.SetCellValue(summarySheet, cell(3, row), sh.Percentage)
	}

	// 3. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("analysis_history_%s.xlsx", s.now().UTC().Format("2006-01-02"))
	return buf, filename, nil
}

// cell 列号、行号 → 单元格坐标
func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
