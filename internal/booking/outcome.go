package booking

import "fmt"

// OutcomeKind discriminates the Outcome variants.
type OutcomeKind string

const (
	KindSuccess    OutcomeKind = "success"
	KindFieldError OutcomeKind = "field_error"
)

// Outcome is what a submission is expected to produce. Exactly one of the
// two variants is asserted per scenario.
type Outcome interface {
	Kind() OutcomeKind
	String() string
}

// Success expects the notification region to show Message.
type Success struct {
	Message string
}

func (Success) Kind() OutcomeKind { return KindSuccess }

func (s Success) String() string { return fmt.Sprintf("success(%q)", s.Message) }

// ExpectSuccess builds the success outcome for a booking on date.
func ExpectSuccess(date string) Success {
	return Success{Message: SuccessMessage(date)}
}

// FieldError expects the inline error region of Field to show Message and
// the notification to stay hidden. An empty Message means the field root
// must carry the invalid marker class instead; this is how the agreement
// checkbox reports a problem.
type FieldError struct {
	Field   Field
	Message string
}

func (FieldError) Kind() OutcomeKind { return KindFieldError }

func (f FieldError) String() string {
	if f.Message == "" {
		return fmt.Sprintf("field_error(%s marked %s)", f.Field, InvalidClass)
	}
	return fmt.Sprintf("field_error(%s: %q)", f.Field, f.Message)
}

// MarksInvalid reports whether the outcome is checked by class, not by text.
func (f FieldError) MarksInvalid() bool { return f.Message == "" }
