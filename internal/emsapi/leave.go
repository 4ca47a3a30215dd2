package emsapi

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) SubmitLeave(ctx context.Context, in LeaveInput) (LeaveRequest, string, error) {
	var created LeaveRequest
	env, err := c.do(ctx, call{endpoint: "leave.submit", method: http.MethodPost, path: "/employee/leave/submit", body: in})
	if err != nil {
		return created, "", err
	}
	if err := env.Field("leave_request", &created); err != nil {
		return created, "", err
	}
	return created, env.Message, nil
}

func (c *Client) LeaveStats(ctx context.Context) (LeaveStats, error) {
	var stats LeaveStats
	env, err := c.do(ctx, call{endpoint: "leave.stats", method: http.MethodGet, path: "/employee/leave/stats"})
	if err != nil {
		return stats, err
	}
	err = env.Field("stats", &stats)
	return stats, err
}

func (c *Client) LeaveHistory(ctx context.Context) ([]LeaveRequest, LeaveStats, error) {
	var history []LeaveRequest
	var stats LeaveStats
	env, err := c.do(ctx, call{endpoint: "leave.history", method: http.MethodGet, path: "/employee/leave/history"})
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

func (c *Client) CancelLeave(ctx context.Context, id string) (string, error) {
	env, err := c.do(ctx, call{endpoint: "leave.cancel", method: http.MethodPost, path: "/employee/leave/" + url.PathEscape(id) + "/cancel", body: map[string]any{}})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) CreateLeaveRequest(ctx context.Context, in AdminLeaveInput) (LeaveRequest, string, error) {
	var created LeaveRequest
	env, err := c.do(ctx, call{endpoint: "leave_requests.create", method: http.MethodPost, path: "/admin/leave-requests/create", body: in})
	if err != nil {
		return created, "", err
	}
	if err := env.Field("data", &created); err != nil {
		return created, "", err
	}
	return created, env.Message, nil
}

func (c *Client) UpdateLeaveStatus(ctx context.Context, requestID, status string) (string, error) {
	body := map[string]string{"request_id": requestID, "status": status}
	env, err := c.do(ctx, call{endpoint: "leave_requests.update_status", method: http.MethodPost, path: "/admin/leave-requests/update-status", body: body})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) DeleteLeaveRequest(ctx context.Context, requestID string) (string, error) {
	body := map[string]string{"request_id": requestID}
	env, err := c.do(ctx, call{endpoint: "leave_requests.delete", method: http.MethodPost, path: "/admin/leave-requests/delete", body: body})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) AdminLeaveStats(ctx context.Context) (AdminLeaveStats, error) {
	var stats AdminLeaveStats
	env, err := c.do(ctx, call{endpoint: "leave_requests.stats", method: http.MethodGet, path: "/admin/leave-requests/stats"})
	if err != nil {
		return stats, err
	}
	err = env.Field("stats", &stats)
	return stats, err
}

// ListLeaveRequests reads the admin listing, newest first.
func (c *Client) ListLeaveRequests(ctx context.Context, status string) ([]LeaveRequest, error) {
	query := url.Values{}
	setIf(query, "status", status)
	env, err := c.do(ctx, call{endpoint: "leave_requests.list", method: http.MethodGet, path: "/admin/leave-requests/list", query: query})
	if err != nil {
		return nil, err
	}
	var out []LeaveRequest
	if err := env.Field("data", &out); err != nil {
		return nil, err
	}
	return out, nil
}
