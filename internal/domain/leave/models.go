package leave

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	// AnnualAllowance is the yearly leave allowance in days.
	AnnualAllowance = 20
	MinReasonLength = 10
)

var Statuses = []string{StatusPending, StatusApproved, StatusRejected}

// Type is one selectable leave type.
type Type struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var Types = []Type{
	{Value: "vacation", Label: "Annual Leave/Vacation"},
	{Value: "sick", Label: "Sick Leave"},
	{Value: "personal", Label: "Personal Leave"},
	{Value: "emergency", Label: "Emergency Leave"},
	{Value: "maternity", Label: "Maternity Leave"},
	{Value: "paternity", Label: "Paternity Leave"},
	{Value: "bereavement", Label: "Bereavement Leave"},
	{Value: "other", Label: "Other"},
}

// Draft is an in-progress leave form kept between page loads.
type Draft struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

func (d Draft) IsEmpty() bool {
	return d.LeaveType == "" && d.StartDate == "" && d.EndDate == "" && d.Reason == ""
}
