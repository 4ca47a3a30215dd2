package emsapi

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) ListEmployees(ctx context.Context) ([]Employee, error) {
	env, err := c.do(ctx, call{endpoint: "employees.list", method: http.MethodGet, path: "/admin/employees/list"})
	if err != nil {
		return nil, err
	}
	var out []Employee
	if err := env.Field("employees", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetEmployee(ctx context.Context, id string) (Employee, error) {
	var out Employee
	env, err := c.do(ctx, call{endpoint: "employees.get", method: http.MethodGet, path: "/admin/employees/get/" + url.PathEscape(id)})
	if err != nil {
		return out, err
	}
	err = env.Field("employee", &out)
	return out, err
}

func (c *Client) AddEmployee(ctx context.Context, in EmployeeInput) (Employee, string, error) {
	var out Employee
	env, err := c.do(ctx, call{endpoint: "employees.add", method: http.MethodPost, path: "/admin/employees/add", body: in})
	if err != nil {
		return out, "", err
	}
	if err := env.Field("employee", &out); err != nil {
		return out, "", err
	}
	return out, env.Message, nil
}

func (c *Client) UpdateEmployee(ctx context.Context, id string, in EmployeeInput) (string, error) {
	env, err := c.do(ctx, call{endpoint: "employees.update", method: http.MethodPost, path: "/admin/employees/update/" + url.PathEscape(id), body: in})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) DeleteEmployee(ctx context.Context, id string) (string, error) {
	env, err := c.do(ctx, call{endpoint: "employees.delete", method: http.MethodPost, path: "/admin/employees/delete/" + url.PathEscape(id), body: map[string]any{}})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// UploadEmployeeImage sends a data URL (data:image/jpeg;base64,...) for the employee.
func (c *Client) UploadEmployeeImage(ctx context.Context, employeeID, dataURL string) (string, error) {
	body := map[string]string{"employee_id": employeeID, "image_data": dataURL}
	env, err := c.do(ctx, call{endpoint: "employees.upload_image", method: http.MethodPost, path: "/admin/employees/upload-image", body: body})
	if err != nil {
		return "", err
	}
	var imageURL string
	if err := env.Field("image_url", &imageURL); err != nil {
		return "", err
	}
	return imageURL, nil
}

func (c *Client) ProfileData(ctx context.Context) (Profile, error) {
	var out Profile
	env, err := c.do(ctx, call{endpoint: "employee.profile_data", method: http.MethodGet, path: "/employee/profile-data"})
	if err != nil {
		return out, err
	}
	err = env.Field("employee", &out)
	return out, err
}
