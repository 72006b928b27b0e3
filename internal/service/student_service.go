package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/erciktiburak/school-attendance-api/internal/dto"
	"github.com/erciktiburak/school-attendance-api/internal/model"
	"github.com/erciktiburak/school-attendance-api/internal/realtime"
	"github.com/erciktiburak/school-attendance-api/internal/repository"
	pkgerrors "github.com/erciktiburak/school-attendance-api/pkg/errors"
)

// ── 学生模块业务错误 ──

var (
	ErrStudentNotFound   = pkgerrors.New(pkgerrors.KindNotFound, 12001, "Student not found")
	ErrStudentQRNotFound = pkgerrors.New(pkgerrors.KindNotFound, 12002, "Student not found with this QR code")
	ErrStudentDuplicate  = pkgerrors.New(pkgerrors.KindConflict, 12003, "Student number or email already exists")
	ErrStudentIDMismatch = pkgerrors.New(pkgerrors.KindValidation, 12004, "Student ID does not match the request path")
	ErrImportInvalidFile = pkgerrors.New(pkgerrors.KindValidation, 12005, "Invalid spreadsheet file")
)

// StudentService 学生名册业务接口
type StudentService interface {
	Create(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error)
	GetByID(ctx context.Context, id string) (*dto.StudentResponse, error)
	GetByQRCode(ctx context.Context, code string) (*dto.StudentResponse, error)
	List(ctx context.Context) ([]dto.StudentResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error)
	Delete(ctx context.Context, id string) error
	// Import 从 xlsx 首个工作表导入学生，列顺序与学生导出一致，首行为表头
	Import(ctx context.Context, r io.Reader) (*dto.ImportResult, error)
}

type studentService struct {
	repo        *repository.Repository
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, broadcaster Broadcaster, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, broadcaster: broadcaster, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *studentService) Create(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	student := &model.Student{
		StudentNumber: strings.TrimSpace(req.StudentNumber),
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Email:         strings.TrimSpace(req.Email),
		Department:    strings.TrimSpace(req.Department),
	}
	if err := s.create(ctx, student); err != nil {
		return nil, err
	}
	return toStudentResponse(student), nil
}

// create 生成扫码串、写库并推送 NewStudentAdded
func (s *studentService) create(ctx context.Context, student *model.Student) error {
	student.QRCode = uuid.NewString()

	if err := s.repo.Student.Create(ctx, student); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrStudentDuplicate
		}
		s.logger.Error("创建学生失败", zap.String("student_number", student.StudentNumber), zap.Error(err))
		return err
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(realtime.EventNewStudentAdded, map[string]interface{}{
			"studentId":     student.StudentID,
			"studentName":   student.FullName(),
			"studentNumber": student.StudentNumber,
			"department":    student.Department,
		})
	}
	return nil
}

// ────────────────────── Read ──────────────────────

func (s *studentService) GetByID(ctx context.Context, id string) (*dto.StudentResponse, error) {
	student, err := s.getStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStudentResponse(student), nil
}

func (s *studentService) getStudent(ctx context.Context, id string) (*model.Student, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return student, nil
}

func (s *studentService) GetByQRCode(ctx context.Context, code string) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByQRCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentQRNotFound
		}
		s.logger.Error("按扫码串查询学生失败", zap.Error(err))
		return nil, err
	}
	return toStudentResponse(student), nil
}

func (s *studentService) List(ctx context.Context) ([]dto.StudentResponse, error) {
	students, err := s.repo.Student.List(ctx)
	if err != nil {
		s.logger.Error("列出学生失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, *toStudentResponse(&students[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *studentService) Update(ctx context.Context, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	if req.StudentID != "" && req.StudentID != id {
		return nil, ErrStudentIDMismatch
	}

	student, err := s.getStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Version != nil {
		student.Version = *req.Version
	}

	student.StudentNumber = strings.TrimSpace(req.StudentNumber)
	student.FirstName = strings.TrimSpace(req.FirstName)
	student.LastName = strings.TrimSpace(req.LastName)
	student.Email = strings.TrimSpace(req.Email)
	student.Department = strings.TrimSpace(req.Department)

	if err := s.repo.Student.Update(ctx, student); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrStudentDuplicate
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			// 记录在读取后被删除则视为不存在
			if _, getErr := s.getStudent(ctx, id); errors.Is(getErr, ErrStudentNotFound) {
				return nil, ErrStudentNotFound
			}
			return nil, err
		}
		s.logger.Error("更新学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *studentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Student.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		s.logger.Error("删除学生失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Import ──────────────────────

func (s *studentService) Import(ctx context.Context, r io.Reader) (*dto.ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, ErrImportInvalidFile
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("关闭导入文件失败", zap.Error(err))
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrImportInvalidFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, ErrImportInvalidFile
	}

	result := &dto.ImportResult{Errors: []dto.ImportRowError{}}
	for i, row := range rows {
		if i == 0 {
			continue // 表头
		}
		if isBlankRow(row) {
			continue
		}
		result.Total++

		rowNum := i + 1
		student, msg := parseStudentRow(row)
		if msg != "" {
			result.Failed++
			result.Errors = append(result.Errors, dto.ImportRowError{Row: rowNum, StudentNumber: rowValue(row, 0), Message: msg})
			continue
		}

		if err := s.create(ctx, student); err != nil {
			result.Failed++
			msg := "Internal error"
			if appErr := pkgerrors.As(err); appErr != nil {
				msg = appErr.Message
			}
			result.Errors = append(result.Errors, dto.ImportRowError{Row: rowNum, StudentNumber: student.StudentNumber, Message: msg})
			continue
		}
		result.Imported++
	}

	s.logger.Info("学生导入完成",
		zap.Int("total", result.Total),
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// parseStudentRow 列：学号、名、姓、邮箱、院系；返回非空 msg 表示该行无效
func parseStudentRow(row []string) (*model.Student, string) {
	st := &model.Student{
		StudentNumber: rowValue(row, 0),
		FirstName:     rowValue(row, 1),
		LastName:      rowValue(row, 2),
		Email:         rowValue(row, 3),
		Department:    rowValue(row, 4),
	}
	switch {
	case st.StudentNumber == "":
		return nil, "Student number is required"
	case len(st.StudentNumber) > 20:
		return nil, "Student number is too long"
	case st.FirstName == "" || st.LastName == "":
		return nil, "First and last name are required"
	case tooLong(st.FirstName, 100) || tooLong(st.LastName, 100):
		return nil, "First or last name is too long"
	case tooLong(st.Email, 255):
		return nil, "Email is too long"
	case tooLong(st.Department, 100):
		return nil, "Department is too long"
	}
	if _, err := mail.ParseAddress(st.Email); err != nil {
		return nil, fmt.Sprintf("Invalid email %q", st.Email)
	}
	return st, ""
}

// tooLong 按字符数比较，与 VARCHAR(n) 一致
func tooLong(v string, max int) bool {
	return utf8.RuneCountInString(v) > max
}

func rowValue(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
