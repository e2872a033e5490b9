package stubapp

import (
	"regexp"
	"strings"
	"time"

	"github.com/netology-qa/card-delivery-e2e/internal/booking"
)

// DefaultMinOffsetDays is how many days ahead the earliest delivery may be.
const DefaultMinOffsetDays = 3

// DefaultCities are the administrative centres delivery is offered to.
var DefaultCities = []string{
	"Москва", "Санкт-Петербург", "Казань", "Новосибирск", "Екатеринбург",
	"Нижний Новгород", "Самара", "Краснодар", "Владивосток", "Уфа",
	"Майкоп", "Ростов-на-Дону", "Калининград", "Томск", "Петрозаводск",
}

var (
	namePattern  = regexp.MustCompile(`^[А-Яа-яЁё\s-]+$`)
	phonePattern = regexp.MustCompile(`^\+\d{11}$`)
)

// Rules is the validation the form applies on submit.
type Rules struct {
	Cities        []string
	MinOffsetDays int
	Now           booking.Clock
}

// DefaultRules uses the wall clock and the default city list.
func DefaultRules() Rules {
	return Rules{
		Cities:        DefaultCities,
		MinOffsetDays: DefaultMinOffsetDays,
		Now:           booking.SystemClock,
	}
}

// Violation is the first invalid field of a submission. An empty Message on
// the agreement field means the checkbox is only marked invalid.
type Violation struct {
	Field   booking.Field `json:"field"`
	Message string        `json:"message"`
}

// Validate checks fields in form order and reports the first violation.
func (r Rules) Validate(in booking.Input) (Violation, bool) {
	city := strings.TrimSpace(in.City)
	switch {
	case city == "":
		return Violation{booking.FieldCity, booking.MsgRequired}, false
	case !r.supports(city):
		return Violation{booking.FieldCity, booking.MsgCityUnavailable}, false
	}

	date, err := booking.ParseDate(strings.TrimSpace(in.Date))
	if err != nil {
		return Violation{booking.FieldDate, booking.MsgDateInvalid}, false
	}
	if date.Before(r.earliest()) {
		return Violation{booking.FieldDate, booking.MsgDateImpossible}, false
	}

	name := strings.TrimSpace(in.FullName)
	switch {
	case name == "":
		return Violation{booking.FieldName, booking.MsgRequired}, false
	case !namePattern.MatchString(name):
		return Violation{booking.FieldName, booking.MsgNameInvalid}, false
	}

	phone := strings.TrimSpace(in.Phone)
	switch {
	case phone == "":
		return Violation{booking.FieldPhone, booking.MsgRequired}, false
	case !phonePattern.MatchString(phone):
		return Violation{booking.FieldPhone, booking.MsgPhoneInvalid}, false
	}

	if !in.AgreementChecked {
		return Violation{Field: booking.FieldAgreement}, false
	}
	return Violation{}, true
}

func (r Rules) supports(city string) bool {
	for _, c := range r.Cities {
		if strings.EqualFold(c, city) {
			return true
		}
	}
	return false
}

func (r Rules) earliest() time.Time {
	clock := r.Now
	if clock == nil {
		clock = booking.SystemClock
	}
	now := clock()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, r.MinOffsetDays)
}
