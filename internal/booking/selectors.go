package booking

import "fmt"

// Field is a stable data-test-id of the form.
type Field string

const (
	FieldCity         Field = "city"
	FieldDate         Field = "date"
	FieldName         Field = "name"
	FieldPhone        Field = "phone"
	FieldAgreement    Field = "agreement"
	FieldNotification Field = "notification"
)

// InvalidClass is the class the application puts on an invalid field root.
const InvalidClass = "input_invalid"

// Fields lists the input fields in the order they are filled.
var Fields = []Field{FieldCity, FieldDate, FieldName, FieldPhone, FieldAgreement}

// ParseField validates a data-test-id.
func ParseField(s string) (Field, error) {
	f := Field(s)
	for _, known := range Fields {
		if f == known {
			return f, nil
		}
	}
	if f == FieldNotification {
		return f, nil
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Root selects the field container.
func (f Field) Root() string { return fmt.Sprintf("[data-test-id='%s']", f) }

// Input selects the text input inside the field.
func (f Field) Input() string { return f.Root() + " input" }

// Sub selects the inline hint/error region of the field.
func (f Field) Sub() string { return f.Root() + " .input__sub" }

const (
	AgreementBox        = "[data-test-id='agreement'] .checkbox__box"
	NotificationContent = "[data-test-id='notification'] .notification__content"
	NotificationRoot    = "[data-test-id='notification']"
)

// SubmitButton selects the button whose visible text is exactly SubmitLabel.
func SubmitButton() string {
	return fmt.Sprintf("button:text-is(%q)", SubmitLabel)
}
