package emsapi

type AttendanceRecord struct {
	ID         ID     `json:"id"`
	EmployeeID ID     `json:"employee_id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Position   string `json:"position"`
	Status     string `json:"status"`
	Date       string `json:"date"`
	CreatedAt  string `json:"created_at"`
}

type MarkAttendanceInput struct {
	EmployeeID string `json:"employee_id"`
	Status     string `json:"status"`
	Date       string `json:"date"`
}

type BulkMarkInput struct {
	EmployeeIDs []string `json:"employee_ids"`
	Status      string   `json:"status"`
	Date        string   `json:"date"`
}

type BulkMarkResult struct {
	Message         string   `json:"message"`
	SuccessCount    int      `json:"success_count"`
	FailedCount     int      `json:"failed_count"`
	FailedEmployees []string `json:"failed_employees"`
}

type AttendanceFilter struct {
	EmployeeID string
	StartDate  string
	EndDate    string
	Status     string
}

type AttendanceReportRow struct {
	Name                 string `json:"name"`
	Department           string `json:"department"`
	Position             string `json:"position"`
	PresentDays          int    `json:"present_days"`
	AbsentDays           int    `json:"absent_days"`
	LateDays             int    `json:"late_days"`
	TotalMarkedDays      int    `json:"total_marked_days"`
	WorkingDays          int    `json:"working_days"`
	AttendancePercentage Number `json:"attendance_percentage"`
}

type ReportSummary struct {
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	WorkingDays    int    `json:"working_days"`
	TotalEmployees int    `json:"total_employees"`
}

type AttendanceReport struct {
	Rows    []AttendanceReportRow
	Summary ReportSummary
}

type AttendanceStats struct {
	TotalDays      int    `json:"total_days"`
	PresentDays    int    `json:"present_days"`
	AttendanceRate Number `json:"attendance_rate"`
	MarkedToday    bool   `json:"marked_today"`
	CurrentMonth   string `json:"current_month"`
}

type OwnAttendance struct {
	ID        ID     `json:"id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type MarkOwnResult struct {
	Message string
	Kind    string
	Date    string
	Stats   AttendanceStats
}

type EmployeeRef struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Position   string `json:"position"`
}

type LeaveRequest struct {
	ID             ID           `json:"id"`
	EmployeeID     ID           `json:"employee_id"`
	Employee       *EmployeeRef `json:"employees,omitempty"`
	LeaveType      string       `json:"leave_type"`
	LeaveTypeLabel string       `json:"leave_type_label"`
	StartDate      string       `json:"start_date"`
	EndDate        string       `json:"end_date"`
	Reason         string       `json:"reason"`
	Status         string       `json:"status"`
	LeaveDays      int          `json:"leave_days"`
	CreatedAt      string       `json:"created_at"`
}

type LeaveInput struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

type AdminLeaveInput struct {
	EmployeeID string `json:"employee_id"`
	LeaveInput
}

type LeaveStats struct {
	TotalRequested   int `json:"total_requested"`
	ApprovedDays     int `json:"approved_days"`
	PendingRequests  int `json:"pending_requests"`
	RemainingBalance int `json:"remaining_balance"`
}

type AdminLeaveStats struct {
	TotalRequests    int            `json:"total_requests"`
	PendingRequests  int            `json:"pending_requests"`
	ApprovedRequests int            `json:"approved_requests"`
	RejectedRequests int            `json:"rejected_requests"`
	LeaveTypes       map[string]int `json:"leave_types"`
}

type Employee struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Position    string `json:"position"`
	Department  string `json:"department"`
	Role        string `json:"role"`
	Image       string `json:"image"`
	CreatedAt   string `json:"created_at"`
	HasPassword bool   `json:"has_password"`
}

type EmployeeInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password,omitempty"`
	Phone      string `json:"phone"`
	Position   string `json:"position"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

type Profile struct {
	ID         ID     `json:"id"`
	EmployeeID string `json:"employee_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	FullName   string `json:"full_name"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Position   string `json:"position"`
	Department string `json:"department"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	HireDate   string `json:"hire_date"`
	CreatedAt  string `json:"created_at"`
	Image      string `json:"image"`
}

type ClockResult struct {
	Action       string `json:"action"`
	Time         string `json:"time"`
	TotalHours   Number `json:"total_hours"`
	Message      string `json:"message"`
	ClockInTime  string `json:"clock_in_time"`
	ClockOutTime string `json:"clock_out_time"`
	Timestamp    string `json:"timestamp"`
}

type EmployeeStats struct {
	AttendanceRate  Number `json:"attendance_rate"`
	LeaveBalance    Number `json:"leave_balance"`
	PendingRequests int    `json:"pending_requests"`
	TeamSize        int    `json:"team_size"`
}

type TodayAttendance struct {
	ClockIn    string `json:"clock_in"`
	ClockOut   string `json:"clock_out"`
	TotalHours Number `json:"total_hours"`
	Status     string `json:"status"`
}

type RecentLeave struct {
	ID            ID     `json:"id"`
	LeaveType     string `json:"leave_type"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Status        string `json:"status"`
	SubmittedDate string `json:"submitted_date"`
}

type EmployeeDashboard struct {
	Stats               EmployeeStats   `json:"stats"`
	TodayAttendance     TodayAttendance `json:"today_attendance"`
	RecentLeaveRequests []RecentLeave   `json:"recent_leave_requests"`
	Timestamp           string          `json:"timestamp"`
}

type EmployeeOfMonth struct {
	Name         string `json:"name"`
	PresentCount int    `json:"present_count"`
}

type LeaveTrendPoint struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
	Date  string `json:"date"`
}

type AttendanceTrendPoint struct {
	Date           string `json:"date"`
	Day            string `json:"day"`
	Rate           Number `json:"rate"`
	PresentCount   int    `json:"present_count"`
	TotalEmployees int    `json:"total_employees"`
	FullDate       string `json:"full_date"`
}

// AdminDashboard is the bare aggregate served by /admin/dashboard/api/data.
type AdminDashboard struct {
	TotalEmployees        int                    `json:"total_employees"`
	AttendanceToday       int                    `json:"attendance_today"`
	PendingLeaveRequests  int                    `json:"pending_leave_requests"`
	OverallAttendanceRate Number                 `json:"overall_attendance_rate"`
	EmployeeOfMonth       EmployeeOfMonth        `json:"employee_of_month"`
	MonthlyLeaveTrends    []LeaveTrendPoint      `json:"monthly_leave_trends"`
	AttendanceTrends      []AttendanceTrendPoint `json:"attendance_trends"`
	CurrentMonth          string                 `json:"current_month"`
	Timestamp             string                 `json:"timestamp"`
	Error                 string                 `json:"error,omitempty"`
}
