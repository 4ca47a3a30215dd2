package emsapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) MarkAttendance(ctx context.Context, in MarkAttendanceInput) (string, error) {
	env, err := c.do(ctx, call{endpoint: "attendance.mark", method: http.MethodPost, path: "/admin/attendance/mark", body: in})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) BulkMarkAttendance(ctx context.Context, in BulkMarkInput) (BulkMarkResult, error) {
	var out BulkMarkResult
	env, err := c.do(ctx, call{endpoint: "attendance.bulk_mark", method: http.MethodPost, path: "/admin/attendance/bulk-mark", body: in})
	if err != nil {
		return out, err
	}
	out.Message = env.Message
	if err := env.Field("success_count", &out.SuccessCount); err != nil {
		return out, err
	}
	if err := env.Field("failed_count", &out.FailedCount); err != nil {
		return out, err
	}
	if err := env.Field("failed_employees", &out.FailedEmployees); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) FilterAttendance(ctx context.Context, f AttendanceFilter) ([]AttendanceRecord, error) {
	query := url.Values{}
	setIf(query, "employee_id", f.EmployeeID)
	setIf(query, "start_date", f.StartDate)
	setIf(query, "end_date", f.EndDate)
	setIf(query, "status", f.Status)
	env, err := c.do(ctx, call{endpoint: "attendance.filter", method: http.MethodGet, path: "/admin/attendance/filter", query: query})
	if err != nil {
		return nil, err
	}
	var records []AttendanceRecord
	if err := env.Field("data", &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) AttendanceReport(ctx context.Context, startDate, endDate, employeeID string) (AttendanceReport, error) {
	var out AttendanceReport
	query := url.Values{}
	query.Set("start_date", startDate)
	query.Set("end_date", endDate)
	setIf(query, "employee_id", employeeID)
	env, err := c.do(ctx, call{endpoint: "attendance.report", method: http.MethodGet, path: "/admin/attendance/report", query: query})
	if err != nil {
		return out, err
	}
	if err := env.Field("data", &out.Rows); err != nil {
		return out, err
	}
	if err := env.Field("summary", &out.Summary); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) DeleteAttendance(ctx context.Context, id string) (string, error) {
	env, err := c.do(ctx, call{endpoint: "attendance.delete", method: http.MethodDelete, path: "/admin/attendance/delete/" + url.PathEscape(id)})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) MarkOwnAttendance(ctx context.Context) (MarkOwnResult, error) {
	var out MarkOwnResult
	env, err := c.do(ctx, call{endpoint: "employee.attendance_mark", method: http.MethodPost, path: "/employee/attendance/mark", body: map[string]any{}})
	if err != nil {
		return out, err
	}
	out.Message = env.Message
	out.Kind = env.Type
	if err := env.Field("date", &out.Date); err != nil {
		return out, err
	}
	if err := env.Field("stats", &out.Stats); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) AttendanceHistory(ctx context.Context, limit int) ([]OwnAttendance, AttendanceStats, error) {
	var history []OwnAttendance
	var stats AttendanceStats
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	env, err := c.do(ctx, call{endpoint: "employee.attendance_history", method: http.MethodGet, path: "/employee/attendance/history", query: query})
	if err != nil {
		return nil, stats, err
	}
	if err := env.Field("history", &history); err != nil {
		return nil, stats, err
	}
	if err := env.Field("stats", &stats); err != nil {
		return nil, stats, err
	}
	return history, stats, nil
}

func (c *Client) AttendanceStats(ctx context.Context) (AttendanceStats, error) {
	var stats AttendanceStats
	env, err := c.do(ctx, call{endpoint: "employee.attendance_stats", method: http.MethodGet, path: "/employee/attendance/stats"})
	if err != nil {
		return stats, err
	}
	err = env.Field("stats", &stats)
	return stats, err
}

func setIf(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}
