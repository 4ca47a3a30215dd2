package view

import (
	"strconv"
	"time"

	"emsconsole/internal/domain/attendance"
	"emsconsole/internal/domain/employee"
	"emsconsole/internal/domain/leave"
	"emsconsole/internal/emsapi"
)

func AttendanceTable(records []emsapi.AttendanceRecord) Table {
	return Build(records, func(r emsapi.AttendanceRecord) string { return r.ID.String() }, []Column[emsapi.AttendanceRecord]{
		{Header: "Employee", Value: func(r emsapi.AttendanceRecord) string { return r.Name }, Fallback: "Unknown"},
		{Header: "Department", Value: func(r emsapi.AttendanceRecord) string { return r.Department }},
		{Header: "Position", Value: func(r emsapi.AttendanceRecord) string { return r.Position }},
		{Header: "Date", Value: func(r emsapi.AttendanceRecord) string { return r.Date }},
		{
			Header: "Status",
			Value:  func(r emsapi.AttendanceRecord) string { return Label(r.Status) },
			Class:  func(r emsapi.AttendanceRecord) string { return "badge " + BadgeClass(r.Status) },
		},
	}, "No attendance records found.")
}

func ReportTable(rows []emsapi.AttendanceReportRow) Table {
	itoa := strconv.Itoa
	return Build(rows, nil, []Column[emsapi.AttendanceReportRow]{
		{Header: "Employee", Value: func(r emsapi.AttendanceReportRow) string { return r.Name }, Fallback: "Unknown"},
		{Header: "Department", Value: func(r emsapi.AttendanceReportRow) string { return r.Department }},
		{Header: "Position", Value: func(r emsapi.AttendanceReportRow) string { return r.Position }},
		{Header: "Present", Value: func(r emsapi.AttendanceReportRow) string { return itoa(r.PresentDays) }},
		{Header: "Absent", Value: func(r emsapi.AttendanceReportRow) string { return itoa(r.AbsentDays) }},
		{Header: "Late", Value: func(r emsapi.AttendanceReportRow) string { return itoa(r.LateDays) }},
		{Header: "Marked", Value: func(r emsapi.AttendanceReportRow) string { return itoa(r.TotalMarkedDays) }},
		{Header: "Working Days", Value: func(r emsapi.AttendanceReportRow) string { return itoa(r.WorkingDays) }},
		{Header: "Attendance %", Value: func(r emsapi.AttendanceReportRow) string {
			return strconv.FormatFloat(ReportPercentage(r), 'f', 1, 64) + "%"
		}},
	}, "No report data for this period.")
}

// ReportPercentage is the upstream attendance percentage, computed from the
// day counts when the upstream left it out.
func ReportPercentage(r emsapi.AttendanceReportRow) float64 {
	if pct := r.AttendancePercentage.Float(); pct != 0 || r.PresentDays == 0 {
		return pct
	}
	return attendance.Percentage(r.PresentDays, r.WorkingDays)
}

func EmployeeTable(employees []emsapi.Employee) Table {
	return Build(employees, func(e emsapi.Employee) string { return e.ID.String() }, []Column[emsapi.Employee]{
		{Header: "Name", Value: func(e emsapi.Employee) string { return e.Name }, Fallback: "Unknown"},
		{Header: "Email", Value: func(e emsapi.Employee) string { return e.Email }},
		{Header: "Phone", Value: func(e emsapi.Employee) string {
			if e.Phone == "" {
				return ""
			}
			return employee.FormatPhone(e.Phone)
		}},
		{Header: "Position", Value: func(e emsapi.Employee) string { return e.Position }},
		{Header: "Department", Value: func(e emsapi.Employee) string { return e.Department }},
		{
			Header: "Role",
			Value:  func(e emsapi.Employee) string { return Label(e.Role) },
			Class:  func(e emsapi.Employee) string { return "badge " + BadgeClass(e.Role) },
		},
	}, "No employees found.")
}

func LeaveRequestTable(requests []emsapi.LeaveRequest) Table {
	return Build(requests, func(r emsapi.LeaveRequest) string { return r.ID.String() }, []Column[emsapi.LeaveRequest]{
		{Header: "Employee", Value: func(r emsapi.LeaveRequest) string {
			if r.Employee == nil {
				return ""
			}
			return r.Employee.Name
		}, Fallback: "Unknown"},
		{Header: "Type", Value: func(r emsapi.LeaveRequest) string { return leaveTypeLabel(r) }},
		{Header: "From", Value: func(r emsapi.LeaveRequest) string { return r.StartDate }},
		{Header: "To", Value: func(r emsapi.LeaveRequest) string { return r.EndDate }},
		{Header: "Days", Value: func(r emsapi.LeaveRequest) string { return strconv.Itoa(LeaveDays(r)) }},
		{Header: "Reason", Value: func(r emsapi.LeaveRequest) string { return r.Reason }},
		{
			Header: "Status",
			Value:  func(r emsapi.LeaveRequest) string { return Label(r.Status) },
			Class:  func(r emsapi.LeaveRequest) string { return "badge " + BadgeClass(r.Status) },
		},
	}, "No leave requests found.")
}

func leaveTypeLabel(r emsapi.LeaveRequest) string {
	if r.LeaveTypeLabel != "" {
		return r.LeaveTypeLabel
	}
	return leave.TypeLabel(r.LeaveType)
}

// LeaveDays prefers the upstream count and derives the inclusive span otherwise.
func LeaveDays(r emsapi.LeaveRequest) int {
	if r.LeaveDays > 0 {
		return r.LeaveDays
	}
	start, errStart := parseDay(r.StartDate)
	end, errEnd := parseDay(r.EndDate)
	if errStart != nil || errEnd != nil {
		return 0
	}
	days, err := leave.InclusiveDays(start, end)
	if err != nil {
		return 0
	}
	return days
}

// OwnAttendanceTable is an employee's attendance history, newest first as
// the upstream sends it.
func OwnAttendanceTable(records []emsapi.OwnAttendance) Table {
	return Build(records, func(r emsapi.OwnAttendance) string { return r.ID.String() }, []Column[emsapi.OwnAttendance]{
		{Header: "Date", Value: func(r emsapi.OwnAttendance) string { return r.Date }},
		{
			Header: "Status",
			Value:  func(r emsapi.OwnAttendance) string { return Label(r.Status) },
			Class:  func(r emsapi.OwnAttendance) string { return "badge " + BadgeClass(r.Status) },
		},
		{Header: "Recorded", Value: func(r emsapi.OwnAttendance) string { return recordedAt(r.CreatedAt) }},
	}, "No attendance history yet.")
}

// recordedAt shortens an upstream timestamp to "2006-01-02 15:04".
func recordedAt(raw string) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02 15:04")
		}
	}
	return raw
}
