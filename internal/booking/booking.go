// Package booking holds the data model of the card delivery form: the values
// typed into the form, the outcome a submission is expected to produce and the
// DOM contract the form exposes to tests.
package booking

import "fmt"

// Input is the set of values entered into the delivery form for one scenario.
type Input struct {
	City             string `json:"city"`
	Date             string `json:"date"`
	FullName         string `json:"name"`
	Phone            string `json:"phone"`
	AgreementChecked bool   `json:"agreement"`
}

// ValidInput returns an input the application accepts for the given moment.
func ValidInput(now Clock) Input {
	return Input{
		City:             "Москва",
		Date:             ValidDate(now),
		FullName:         "Иванова Ольга",
		Phone:            "+79101111111",
		AgreementChecked: true,
	}
}

// With returns a copy of in with fn applied.
func (in Input) With(fn func(*Input)) Input {
	fn(&in)
	return in
}

func (in Input) String() string {
	return fmt.Sprintf("city=%q date=%q name=%q phone=%q agreement=%t",
		in.City, in.Date, in.FullName, in.Phone, in.AgreementChecked)
}
