package view

import (
	"time"

	"emsconsole/internal/emsapi"
	"emsconsole/internal/ui"
)

const (
	CountUpDuration = time.Second
	CountUpStep     = 50 * time.Millisecond
)

type KPI struct {
	Key    string    `json:"key"`
	Label  string    `json:"label"`
	Value  float64   `json:"value"`
	Suffix string    `json:"suffix,omitempty"`
	Frames []float64 `json:"frames,omitempty"`
}

// ChartData is embedded in the page as JSON for the client-side charts.
type ChartData struct {
	AttendanceLabels []string  `json:"attendanceLabels"`
	AttendanceRates  []float64 `json:"attendanceRates"`
	LeaveLabels      []string  `json:"leaveLabels"`
	LeaveCounts      []float64 `json:"leaveCounts"`
}

type AdminDashboard struct {
	KPIs            []KPI     `json:"kpis"`
	Charts          ChartData `json:"charts"`
	AttendanceChart LineChart `json:"-"`
	LeaveChart      BarChart  `json:"-"`
	EmployeeOfMonth string    `json:"employeeOfMonth"`
	PresentCount    int       `json:"presentCount"`
	CurrentMonth    string    `json:"currentMonth"`
	UpdatedAt       string    `json:"updatedAt"`
	Stale           bool      `json:"stale"`
}

// NewAdminDashboard builds the dashboard view. previous holds the KPI values
// on screen; when set, each KPI gets count-up frames from its old value.
func NewAdminDashboard(d emsapi.AdminDashboard, previous map[string]float64) AdminDashboard {
	kpis := []KPI{
		{Key: "total_employees", Label: "Total Employees", Value: float64(d.TotalEmployees)},
		{Key: "attendance_today", Label: "Present Today", Value: float64(d.AttendanceToday)},
		{Key: "pending_leave_requests", Label: "Pending Leave", Value: float64(d.PendingLeaveRequests)},
		{Key: "overall_attendance_rate", Label: "Attendance Rate", Value: d.OverallAttendanceRate.Float(), Suffix: "%"},
	}
	if previous != nil {
		for i := range kpis {
			frames := ui.CountUp(previous[kpis[i].Key], kpis[i].Value, CountUpDuration, CountUpStep, ui.EaseOutQuad)
			decimals := 0
			if kpis[i].Suffix == "%" {
				decimals = 1
			}
			kpis[i].Frames = ui.RoundFrames(frames, decimals)
		}
	}

	var charts ChartData
	for _, p := range d.AttendanceTrends {
		charts.AttendanceLabels = append(charts.AttendanceLabels, p.Day)
		charts.AttendanceRates = append(charts.AttendanceRates, p.Rate.Float())
	}
	for _, p := range d.MonthlyLeaveTrends {
		charts.LeaveLabels = append(charts.LeaveLabels, p.Day)
		charts.LeaveCounts = append(charts.LeaveCounts, float64(p.Count))
	}

	name := d.EmployeeOfMonth.Name
	if name == "" {
		name = "N/A"
	}
	return AdminDashboard{
		KPIs:            kpis,
		Charts:          charts,
		AttendanceChart: NewLineChart(Series{Labels: charts.AttendanceLabels, Values: charts.AttendanceRates, Max: 100}, DefaultChartSize),
		LeaveChart:      NewBarChart(Series{Labels: charts.LeaveLabels, Values: charts.LeaveCounts}, DefaultChartSize),
		EmployeeOfMonth: name,
		PresentCount:    d.EmployeeOfMonth.PresentCount,
		CurrentMonth:    d.CurrentMonth,
		UpdatedAt:       d.Timestamp,
	}
}

// KPIValues is the inverse used as previous on the next refresh.
func KPIValues(kpis []KPI) map[string]float64 {
	out := make(map[string]float64, len(kpis))
	for _, k := range kpis {
		out[k.Key] = k.Value
	}
	return out
}
