package web

import "emsconsole/internal/ui"

var adminLinks = []ui.Link{
	{Label: "nav.dashboard", Path: "/admin/dashboard", Icon: "fa-chart-line"},
	{Label: "nav.attendance", Path: "/admin/attendance", Icon: "fa-calendar-check"},
	{Label: "nav.employees", Path: "/admin/employees", Icon: "fa-users"},
	{Label: "nav.leave_requests", Path: "/admin/leave-requests", Icon: "fa-plane-departure"},
	{Label: "nav.logout", Path: "/logout", Icon: "fa-sign-out-alt", Logout: true},
}

var employeeLinks = []ui.Link{
	{Label: "nav.dashboard", Path: "/employee/dashboard", Icon: "fa-home"},
	{Label: "nav.attendance", Path: "/employee/attendance", Icon: "fa-calendar-check"},
	{Label: "nav.leave", Path: "/employee/leave", Icon: "fa-plane-departure"},
	{Label: "nav.profile", Path: "/employee/profile", Icon: "fa-user"},
	{Label: "nav.logout", Path: "/logout", Icon: "fa-sign-out-alt", Logout: true},
}

// LinksFor returns the navigation of a role. Labels are message ids.
func LinksFor(role string) []ui.Link {
	if role == "admin" {
		return adminLinks
	}
	return employeeLinks
}
