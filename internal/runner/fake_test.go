package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/netology-qa/card-delivery-e2e/internal/booking"
	"github.com/netology-qa/card-delivery-e2e/internal/stubapp"
)

// mockDriver is a testify mock of Driver.
type mockDriver struct {
	mock.Mock
}

func (m *mockDriver) Goto(url string) error { return m.Called(url).Error(0) }

func (m *mockDriver) Fill(selector, value string) error { return m.Called(selector, value).Error(0) }

func (m *mockDriver) Press(selector, key string) error { return m.Called(selector, key).Error(0) }

func (m *mockDriver) Click(selector string) error { return m.Called(selector).Error(0) }

func (m *mockDriver) Text(selector string) (string, error) {
	args := m.Called(selector)
	return args.String(0), args.Error(1)
}

func (m *mockDriver) Classes(selector string) ([]string, error) {
	args := m.Called(selector)
	classes, _ := args.Get(0).([]string)
	return classes, args.Error(1)
}

func (m *mockDriver) WaitVisible(selector string, timeout time.Duration) error {
	return m.Called(selector, timeout).Error(0)
}

func (m *mockDriver) IsVisible(selector string) (bool, error) {
	args := m.Called(selector)
	return args.Bool(0), args.Error(1)
}

func (m *mockDriver) Screenshot(path string) error { return m.Called(path).Error(0) }

// expectSubmit registers the calls of a form fill and submit.
func (m *mockDriver) expectSubmit(baseURL string, in booking.Input) {
	m.On("Goto", baseURL).Return(nil).Once()
	m.On("Fill", booking.FieldCity.Input(), in.City).Return(nil).Once()
	m.On("Press", booking.FieldDate.Input(), "Shift+Home").Return(nil).Once()
	m.On("Press", booking.FieldDate.Input(), "Delete").Return(nil).Once()
	m.On("Fill", booking.FieldDate.Input(), in.Date).Return(nil).Once()
	m.On("Fill", booking.FieldName.Input(), in.FullName).Return(nil).Once()
	m.On("Fill", booking.FieldPhone.Input(), in.Phone).Return(nil).Once()
	if in.AgreementChecked {
		m.On("Click", booking.AgreementBox).Return(nil).Once()
	}
	m.On("Click", booking.SubmitButton()).Return(nil).Once()
}

// formFake behaves like the delivery form page, validating with the stub
// application's rules.
type formFake struct {
	rules    stubapp.Rules
	values   map[string]string
	checked  bool
	violated *stubapp.Violation
	notified string
	submits  int
}

func newFormFake(rules stubapp.Rules) *formFake {
	return &formFake{rules: rules, values: map[string]string{}}
}

func (f *formFake) Goto(string) error {
	f.values = map[string]string{}
	f.checked = false
	f.violated = nil
	f.notified = ""
	return nil
}

func (f *formFake) Fill(selector, value string) error {
	f.values[selector] = value
	return nil
}

func (f *formFake) Press(selector, key string) error {
	if key == "Delete" {
		f.values[selector] = ""
	}
	return nil
}

func (f *formFake) Click(selector string) error {
	switch selector {
	case booking.AgreementBox:
		f.checked = !f.checked
	case booking.SubmitButton():
		f.submits++
		in := booking.Input{
			City:             f.values[booking.FieldCity.Input()],
			Date:             f.values[booking.FieldDate.Input()],
			FullName:         f.values[booking.FieldName.Input()],
			Phone:            f.values[booking.FieldPhone.Input()],
			AgreementChecked: f.checked,
		}
		if v, ok := f.rules.Validate(in); !ok {
			f.violated = &v
			return nil
		}
		f.notified = booking.SuccessMessage(in.Date)
	default:
		return fmt.Errorf("no element matches %s", selector)
	}
	return nil
}

func (f *formFake) Text(selector string) (string, error) {
	if selector == booking.NotificationContent {
		return f.notified, nil
	}
	if f.violated != nil && selector == f.violated.Field.Sub() {
		return f.violated.Message, nil
	}
	if strings.HasSuffix(selector, ".input__sub") {
		return "", nil
	}
	return "", fmt.Errorf("no element matches %s", selector)
}

func (f *formFake) Classes(selector string) ([]string, error) {
	classes := []string{"input"}
	if f.violated != nil && selector == f.violated.Field.Root() {
		classes = append(classes, booking.InvalidClass)
	}
	return classes, nil
}

func (f *formFake) WaitVisible(selector string, timeout time.Duration) error {
	if selector == booking.NotificationContent && f.notified == "" {
		return &TimeoutError{Region: selector, State: "visible", Timeout: timeout}
	}
	return nil
}

func (f *formFake) IsVisible(selector string) (bool, error) {
	switch selector {
	case booking.NotificationRoot, booking.NotificationContent:
		return f.notified != "", nil
	}
	return true, nil
}

func (f *formFake) Screenshot(string) error { return nil }
