package submission

// Required field keys, in the order they are checked.
const (
	FieldName          = "Name"
	FieldEmail         = "Email"
	FieldPhone         = "Phone"
	FieldGitHubLink    = "GitHubLink"
	FieldStopwatchTime = "StopwatchTime"
)

var requiredFields = []string{
	FieldName,
	FieldEmail,
	FieldPhone,
	FieldGitHubLink,
	FieldStopwatchTime,
}

// RequiredFields returns the required keys in checking order.
func RequiredFields() []string {
	return append([]string(nil), requiredFields...)
}

// Validate reports one message per missing field. A field is missing when it is
// absent, not a JSON string, or the empty string. Only presence is checked.
func Validate(p Payload) []string {
	errs := make([]string, 0, len(requiredFields))
	for _, field := range requiredFields {
		if s, ok := p[field].(string); !ok || s == "" {
			errs = append(errs, field+" is required")
		}
	}
	return errs
}

// Validate runs the presence checks on an already typed submission.
func (s Submission) Validate() []string {
	return Validate(s.payload())
}

func (s Submission) payload() Payload {
	return Payload{
		FieldName:          s.Name,
		FieldEmail:         s.Email,
		FieldPhone:         s.Phone,
		FieldGitHubLink:    s.GitHubLink,
		FieldStopwatchTime: s.StopwatchTime,
	}
}
