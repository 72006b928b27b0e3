package service

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/erciktiburak/school-attendance-api/internal/model"
)

// ── 课程日历 ──────────────────────────────────────────────
//
// 课程 Schedule 形如 "Mon,Wed 09:00-10:30" 时，每个星期几生成一个
// 每周重复的 VEVENT，首次发生日为当前日期起的第一个对应星期几。
// 时间按 UTC 输出。
// ─────────────────────────────────────────────────────────────

const calendarProductID = "-//School Attendance//Course Calendar//EN"

// scheduleSlot 解析后的上课时段
type scheduleSlot struct {
	Days  []time.Weekday
	Start time.Duration // 距零点
	End   time.Duration
}

var weekdayTokens = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// rruleDays RFC 5545 BYDAY 取值
var rruleDays = [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// parseSchedule 解析 "Mon,Wed 09:00-10:30"；不符合格式返回 false
func parseSchedule(schedule string) (scheduleSlot, bool) {
	fields := strings.Fields(schedule)
	if len(fields) != 2 {
		return scheduleSlot{}, false
	}

	var slot scheduleSlot
	seen := make(map[time.Weekday]bool)
	for _, tok := range strings.Split(fields[0], ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if len(tok) > 3 {
			tok = tok[:3]
		}
		day, ok := weekdayTokens[tok]
		if !ok {
			return scheduleSlot{}, false
		}
		if !seen[day] {
			seen[day] = true
			slot.Days = append(slot.Days, day)
		}
	}

	startStr, endStr, found := strings.Cut(fields[1], "-")
	if !found {
		return scheduleSlot{}, false
	}
	start, ok := parseClock(startStr)
	if !ok {
		return scheduleSlot{}, false
	}
	end, ok := parseClock(endStr)
	if !ok || end <= start {
		return scheduleSlot{}, false
	}
	slot.Start, slot.End = start, end
	return slot, true
}

func parseClock(s string) (time.Duration, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}

// nextWeekday from 当天或之后第一个 day
func nextWeekday(from time.Time, day time.Weekday) time.Time {
	offset := (int(day) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, offset)
}

func buildCourseCalendar(course *model.Course, slot scheduleSlot, now time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetName(course.CourseCode + " " + course.CourseName)

	today := model.DateOf(now)
	for _, day := range slot.Days {
		first := nextWeekday(today, day)

		evt := cal.AddEvent(fmt.Sprintf("%s-%s@school-attendance", course.CourseID, rruleDays[day]))
		evt.SetDtStampTime(now)
		evt.SetStartAt(first.Add(slot.Start))
		evt.SetEndAt(first.Add(slot.End))
		evt.SetSummary(fmt.Sprintf("%s %s", course.CourseCode, course.CourseName))
		if course.Location != "" {
			evt.SetLocation(course.Location)
		}
		if course.Teacher != nil {
			evt.SetDescription("Instructor: " + course.Teacher.FullName())
		}
		evt.AddRrule("FREQ=WEEKLY;BYDAY=" + rruleDays[day])
	}
	return cal
}
