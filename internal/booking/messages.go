package booking

const (
	successPrefix = "Встреча успешно забронирована на "

	MsgCityUnavailable = "Доставка в выбранный город недоступна"
	MsgDateImpossible  = "Заказ на выбранную дату невозможен"
	MsgDateInvalid     = "Неверно введена дата"
	MsgNameInvalid     = "Имя и Фамилия указаные неверно. Допустимы только русские буквы, пробелы и дефисы."
	MsgPhoneInvalid    = "Телефон указан неверно. Должно быть 11 цифр, например, +79012345678."
	MsgRequired        = "Поле обязательно для заполнения"

	// SubmitLabel is the exact visible text of the submit button.
	SubmitLabel = "Забронировать"
)

// SuccessMessage is the notification text shown after booking on date.
func SuccessMessage(date string) string {
	return successPrefix + date
}
