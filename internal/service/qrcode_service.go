package service

import (
	"context"
	"encoding/base64"
	"errors"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/erciktiburak/school-attendance-api/internal/dto"
	"github.com/erciktiburak/school-attendance-api/internal/repository"
	pkgerrors "github.com/erciktiburak/school-attendance-api/pkg/errors"
)

// ── 二维码模块业务错误 ──

var (
	ErrQRGenerateFail = pkgerrors.New(pkgerrors.KindInternal, 18002, "Failed to generate QR code")
)

const (
	// qrModulePixels 每个模块 20 像素
	qrModulePixels  = -20
	qrDataURIPrefix = "data:image/png;base64,"
)

// QRCodeService 学生扫码串的二维码图片
type QRCodeService interface {
	// PNG 返回图片字节及建议文件名
	PNG(ctx context.Context, studentID string) ([]byte, string, error)
	Base64(ctx context.Context, studentID string) (*dto.QRCodeBase64Response, error)
}

type qrCodeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewQRCodeService 创建 QRCodeService 实例
func NewQRCodeService(repo *repository.Repository, logger *zap.Logger) QRCodeService {
	return &qrCodeService{repo: repo, logger: logger}
}

func (s *qrCodeService) PNG(ctx context.Context, studentID string) ([]byte, string, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", studentID), zap.Error(err))
		return nil, "", err
	}

	png, err := encodeQR(student.QRCode)
	if err != nil {
		s.logger.Error("生成二维码失败", zap.String("id", studentID), zap.Error(err))
		return nil, "", ErrQRGenerateFail
	}
	return png, "QR_" + student.StudentNumber + ".png", nil
}

func (s *qrCodeService) Base64(ctx context.Context, studentID string) (*dto.QRCodeBase64Response, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", studentID), zap.Error(err))
		return nil, err
	}

	png, err := encodeQR(student.QRCode)
	if err != nil {
		s.logger.Error("生成二维码失败", zap.String("id", studentID), zap.Error(err))
		return nil, ErrQRGenerateFail
	}
	return &dto.QRCodeBase64Response{
		StudentID:   student.StudentID,
		StudentName: student.FullName(),
		QRCode:      qrDataURIPrefix + base64.StdEncoding.EncodeToString(png),
	}, nil
}

// encodeQR 纠错等级 Q（约 25%）
func encodeQR(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.High, qrModulePixels)
}
