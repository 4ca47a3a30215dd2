package emsapi

import (
	"context"
	"net/http"
	"time"
)

const (
	ClockIn  = "clock_in"
	ClockOut = "clock_out"
)

func (c *Client) Clock(ctx context.Context, action string, at time.Time) (ClockResult, error) {
	var out ClockResult
	body := map[string]string{"action": action, "timestamp": at.Format(time.RFC3339)}
	env, err := c.do(ctx, call{endpoint: "employee.clock", method: http.MethodPost, path: "/employee/clock", body: body})
	if err != nil {
		return out, err
	}
	out.Message = env.Message
	for _, field := range []struct {
		name string
		dst  any
	}{
		{"action", &out.Action},
		{"clock_in_time", &out.ClockInTime},
		{"clock_out_time", &out.ClockOutTime},
		{"timestamp", &out.Timestamp},
		{"total_hours", &out.TotalHours},
	} {
		if err := env.Field(field.name, field.dst); err != nil {
			return out, err
		}
	}
	switch {
	case out.ClockOutTime != "":
		out.Time = out.ClockOutTime
	case out.ClockInTime != "":
		out.Time = out.ClockInTime
	default:
		out.Time = out.Timestamp
	}
	return out, nil
}

func (c *Client) EmployeeDashboard(ctx context.Context) (EmployeeDashboard, error) {
	var out EmployeeDashboard
	env, err := c.do(ctx, call{endpoint: "employee.dashboard_data", method: http.MethodGet, path: "/employee/dashboard-data"})
	if err != nil {
		return out, err
	}
	if err := env.Field("stats", &out.Stats); err != nil {
		return out, err
	}
	if err := env.Field("today_attendance", &out.TodayAttendance); err != nil {
		return out, err
	}
	if err := env.Field("recent_leave_requests", &out.RecentLeaveRequests); err != nil {
		return out, err
	}
	if err := env.Field("timestamp", &out.Timestamp); err != nil {
		return out, err
	}
	return out, nil
}

// AdminDashboard reads the aggregate. This endpoint has no success flag; an
// "error" key marks a failure.
func (c *Client) AdminDashboard(ctx context.Context) (AdminDashboard, error) {
	var out AdminDashboard
	if err := c.doJSON(ctx, call{endpoint: "dashboard.admin_data", method: http.MethodGet, path: "/admin/dashboard/api/data"}, &out); err != nil {
		return AdminDashboard{}, err
	}
	if out.Error != "" {
		return AdminDashboard{}, &APIError{Endpoint: "dashboard.admin_data", Message: out.Error}
	}
	return out, nil
}
