package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/erciktiburak/school-attendance-api/internal/model"
	"github.com/erciktiburak/school-attendance-api/internal/repository"
	pkgerrors "github.com/erciktiburak/school-attendance-api/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = pkgerrors.New(pkgerrors.KindInternal, 18001, "Failed to generate Excel file")
)

const (
	exportHeaderFill = "#4F46E5"
	exportTimeLayout = "2006-01-02 15:04:05"
	exportEmptyCell  = "-"
	studentSheetName = "Students"
)

var (
	attendanceHeaders = []string{"Student Number", "Name", "Department", "Check-in Time", "Check-out Time", "Location", "Status"}
	studentHeaders    = []string{"Student Number", "First Name", "Last Name", "Email", "Department"}

	// 状态列字体颜色
	statusColors = map[model.AttendanceStatus]string{
		model.StatusPresent: "#008000",
		model.StatusLate:    "#FFA500",
		model.StatusAbsent:  "#FF0000",
	}
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写出。
type ExportService interface {
	// ExportAttendance 导出某日签到记录；date 为空时取当天
	ExportAttendance(ctx context.Context, date string) (*bytes.Buffer, string, error)
	// ExportStudents 导出全部学生
	ExportStudents(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	now    clock
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, now: systemClock, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// 签到记录导出
// ═══════════════════════════════════════════════════════════
//
// 表头一行，之后每条记录一行；列顺序固定：
// Student Number | Name | Department | Check-in Time | Check-out Time | Location | Status

func (s *exportService) ExportAttendance(ctx context.Context, date string) (*bytes.Buffer, string, error) {
	day, err := parseDate(date, model.DateOf(s.now()))
	if err != nil {
		return nil, "", err
	}
	records, err := s.repo.Attendance.ListByDate(ctx, day)
	if err != nil {
		s.logger.Error("查询导出签到记录失败", zap.Error(err))
		return nil, "", err
	}

	buf, err := buildAttendanceWorkbook(records, day)
	if err != nil {
		s.logger.Error("生成签到 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("Attendance_%s.xlsx", day.Format(time.DateOnly)), nil
}

func (s *exportService) ExportStudents(ctx context.Context) (*bytes.Buffer, string, error) {
	students, err := s.repo.Student.List(ctx)
	if err != nil {
		s.logger.Error("查询导出学生失败", zap.Error(err))
		return nil, "", err
	}

	buf, err := buildStudentWorkbook(students)
	if err != nil {
		s.logger.Error("生成学生 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("Students_%s.xlsx", s.now().Format(time.DateOnly)), nil
}

// ── 工作簿构建 ──

func buildAttendanceWorkbook(records []model.AttendanceRecord, day time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Attendance - " + day.Format(time.DateOnly)
	if err := prepareSheet(f, sheet, attendanceHeaders); err != nil {
		return nil, err
	}

	statusStyles := make(map[model.AttendanceStatus]int, len(statusColors))
	for status, color := range statusColors {
		id, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Color: color}})
		if err != nil {
			return nil, err
		}
		statusStyles[status] = id
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for i := range records {
		r := &records[i]
		row := i + 2

		var number, name, department string
		if r.Student != nil {
			number = r.Student.StudentNumber
			name = r.Student.FullName()
			department = r.Student.Department
		}
		checkOut := exportEmptyCell
		if r.CheckOutTime != nil {
			checkOut = r.CheckOutTime.UTC().Format(exportTimeLayout)
		}

		values := []interface{}{
			number,
			name,
			department,
			r.CheckInTime.UTC().Format(exportTimeLayout),
			checkOut,
			r.Location,
			string(r.Status),
		}
		if err := f.SetSheetRow(sheet, cell("A", row), &values); err != nil {
			return nil, err
		}

		style, ok := statusStyles[r.Status]
		if !ok {
			style = boldStyle
		}
		statusCell := cell(colName(len(attendanceHeaders)-1), row)
		if err := f.SetCellStyle(sheet, statusCell, statusCell, style); err != nil {
			return nil, err
		}
	}

	return writeWorkbook(f)
}

func buildStudentWorkbook(students []model.Student) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := prepareSheet(f, studentSheetName, studentHeaders); err != nil {
		return nil, err
	}

	for i := range students {
		st := &students[i]
		values := []interface{}{st.StudentNumber, st.FirstName, st.LastName, st.Email, st.Department}
		if err := f.SetSheetRow(studentSheetName, cell("A", i+2), &values); err != nil {
			return nil, err
		}
	}

	return writeWorkbook(f)
}

// prepareSheet 创建唯一工作表并写入带样式的表头
func prepareSheet(f *excelize.File, sheet string, headers []string) error {
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{exportHeaderFill}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	last := cell(colName(len(headers)-1), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", colName(len(headers)-1), 20)
}

func writeWorkbook(f *excelize.File) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
