package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/png"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestQRCodePNG(t *testing.T) {
	repos := newMockRepos()
	st := repos.addStudent("20230001", "Ahmet", "Yılmaz", "CE")
	svc := NewQRCodeService(repos.Repository, zap.NewNop())

	data, filename, err := svc.PNG(context.Background(), st.StudentID)
	if err != nil {
		t.Fatalf("PNG 失败: %v", err)
	}
	if filename != "QR_20230001.png" {
		t.Errorf("文件名不符: %s", filename)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("应为合法 PNG: %v", err)
	}
	// 每模块 20 像素，宽度应为 20 的倍数
	if w := img.Bounds().Dx(); w%20 != 0 || w < 21*20 {
		t.Errorf("图片宽度不符: %d", w)
	}
}

func TestQRCodeBase64(t *testing.T) {
	repos := newMockRepos()
	st := repos.addStudent("20230001", "Ahmet", "Yılmaz", "CE")
	svc := NewQRCodeService(repos.Repository, zap.NewNop())

	resp, err := svc.Base64(context.Background(), st.StudentID)
	if err != nil {
		t.Fatalf("Base64 失败: %v", err)
	}
	if resp.StudentID != st.StudentID || resp.StudentName != "Ahmet Yılmaz" {
		t.Errorf("学生信息不符: %+v", resp)
	}
	if !strings.HasPrefix(resp.QRCode, "data:image/png;base64,") {
		t.Fatalf("应为 data URI，实际前缀: %.30s", resp.QRCode)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(resp.QRCode, "data:image/png;base64,"))
	if err != nil {
		t.Fatalf("base64 解码失败: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(raw)); err != nil {
		t.Errorf("应为合法 PNG: %v", err)
	}
}

func TestQRCode_StudentNotFound(t *testing.T) {
	svc := NewQRCodeService(newMockRepos().Repository, zap.NewNop())

	if _, _, err := svc.PNG(context.Background(), "missing"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，实际: %v", err)
	}
	if _, err := svc.Base64(context.Background(), "missing"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，实际: %v", err)
	}
}
