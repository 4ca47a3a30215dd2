package view

import (
	"time"

	"emsconsole/internal/domain/employee"
	"emsconsole/internal/emsapi"
)

func parseDay(value string) (time.Time, error) {
	if len(value) > 10 {
		value = value[:10]
	}
	return time.Parse("2006-01-02", value)
}

// FilterEmployees keeps the employees whose name, position, email or
// department contains q, ignoring case.
func FilterEmployees(list []emsapi.Employee, q string) []emsapi.Employee {
	out := make([]emsapi.Employee, 0, len(list))
	for _, e := range list {
		s := employee.Searchable{Name: e.Name, Position: e.Position, Email: e.Email, Department: e.Department}
		if s.Matches(q) {
			out = append(out, e)
		}
	}
	return out
}

// FilterLeaveRequests keeps requests in status; an empty status keeps all.
func FilterLeaveRequests(list []emsapi.LeaveRequest, status string) []emsapi.LeaveRequest {
	if status == "" {
		return list
	}
	out := make([]emsapi.LeaveRequest, 0, len(list))
	for _, r := range list {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// EmployeeIDs lists the ids in display order, for bulk selection.
func EmployeeIDs(list []emsapi.Employee) []string {
	ids := make([]string, len(list))
	for i, e := range list {
		ids[i] = e.ID.String()
	}
	return ids
}
