package imagestore

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"go.uber.org/zap"

	"wastewise/backend/config"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.Black)
	return img
}

func TestLocal_SaveAndOpen(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return time.Date(2026, 10, 14, 9, 5, 7, 0, time.UTC) }

	name, err := s.Save(context.Background(), "Recycle", testImage())
	if err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	if name != "recycle_2026-10-14_09-05-07.jpg" {
		t.Errorf("文件名不符: %s", name)
	}

	data, err := s.Open(context.Background(), name)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("保存的内容不是 JPEG: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("期望宽度 8，实际 %d", img.Bounds().Dx())
	}
}

func TestLocal_OpenMissing(t *testing.T) {
	s, _ := NewLocal(t.TempDir())
	_, err := s.Open(context.Background(), "trash_2026-01-01_00-00-00.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("期望 ErrNotFound，实际 %v", err)
	}
}

func TestLocal_Delete(t *testing.T) {
	s, _ := NewLocal(t.TempDir())
	ctx := context.Background()

	name, err := s.Save(ctx, "trash", testImage())
	if err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	if err := s.Delete(ctx, name); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if _, err := s.Open(ctx, name); !errors.Is(err, ErrNotFound) {
		t.Errorf("删除后期望 ErrNotFound，实际 %v", err)
	}

	// 重复删除不报错
	if err := s.Delete(ctx, name); err != nil {
		t.Errorf("删除不存在的图片不应报错: %v", err)
	}
	if err := s.Delete(ctx, "../etc/passwd"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("期望 ErrInvalidName，实际 %v", err)
	}
}

func TestValidName(t *testing.T) {
	for _, ok := range []string{"trash_2026-01-01_00-00-00.jpg", "a.jpg", "x-1"} {
		if err := ValidName(ok); err != nil {
			t.Errorf("%q 应合法", ok)
		}
	}
	for _, bad := range []string{"", "../etc/passwd", "..", "a/b.jpg", `a\b.jpg`, ".hidden", "a..b", "/abs.jpg"} {
		if !errors.Is(ValidName(bad), ErrInvalidName) {
			t.Errorf("%q 应被拒绝", bad)
		}
	}
}

func TestFileName_BadLabel(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := fileName("../x", now); got != "unknown_2026-01-02_03-04-05.jpg" {
		t.Errorf("非法标签应替换为 unknown，实际 %s", got)
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(context.Background(), &config.StorageConfig{Backend: "ftp"}, zap.NewNop())
	if err == nil {
		t.Error("未知后端应返回错误")
	}
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), &config.S3Config{Region: "us-east-1"}, zap.NewNop())
	if err == nil {
		t.Error("缺少 bucket 应返回错误")
	}
}
