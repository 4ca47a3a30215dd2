package shared

import (
	"net/http"
	"time"

	"emsconsole/internal/domain/leave"
)

// LeaveForm reads the leave fields of r into a draft.
func LeaveForm(r *http.Request) leave.Draft {
	return leave.Draft{
		LeaveType: Field(r, "leave_type"),
		StartDate: Field(r, "start_date"),
		EndDate:   Field(r, "end_date"),
		Reason:    Field(r, "reason"),
	}
}

// Leave checks the fields both the employee and admin forms share: a known
// type, a start no earlier than today and an end no earlier than the start.
// It returns the parsed dates.
func (v *Validator) Leave(d leave.Draft, now time.Time) (start, end time.Time) {
	if v.Required("leave_type", d.LeaveType, "Leave type is required") && !leave.IsValidType(d.LeaveType) {
		v.Add("leave_type", "Select a valid leave type")
	}
	if v.Required("start_date", d.StartDate, "Start date is required") {
		start, _ = v.Date("start_date", d.StartDate)
		v.NotPast("start_date", start, now, "Start date cannot be in the past")
	}
	if v.Required("end_date", d.EndDate, "End date is required") {
		end, _ = v.Date("end_date", d.EndDate)
	}
	v.DateOrder("start_date", start, "end_date", end)
	return start, end
}

// LeaveReason requires a reason of at least leave.MinReasonLength
// characters. Only employees submitting their own request need one; admins
// may leave it blank.
func (v *Validator) LeaveReason(reason string) {
	if v.Required("reason", reason, "Reason is required") {
		v.MinLength("reason", reason, leave.MinReasonLength, "Reason must be at least 10 characters")
	}
}
