package dataset

import (
	"time"

	"golang.org/x/text/language"
)

// nameTable holds localized calendar names. Weekdays are indexed Monday=0
// through Sunday=6, matching the dataset's weekday numbering.
type nameTable struct {
	months   [12]string
	weekdays [7]string
}

// supportedTags orders the locales the dataset can localize into; the first
// entry is the fallback when matching fails outright.
var supportedTags = []language.Tag{
	language.Spanish,
	language.English,
}

var nameTables = []nameTable{
	{
		months: [12]string{"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
			"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"},
		weekdays: [7]string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado", "Domingo"},
	},
	{
		months: [12]string{"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December"},
		weekdays: [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
	},
}

var localeMatcher = language.NewMatcher(supportedTags)

// namesFor picks the name table for a BCP 47 language string ("es-ES",
// "en-US", ...). Unknown languages fall back to the first supported locale.
func namesFor(lang string) nameTable {
	_, index, _ := localeMatcher.Match(language.Make(lang))
	return nameTables[index]
}

// Calendar is the derived calendar breakdown of a watch timestamp.
type Calendar struct {
	Year        int
	MonthNum    int
	MonthName   string
	DayOfMonth  int
	WeekdayNum  int
	WeekdayName string
	Hour        int
	ISOWeek     int
}

// calendarFor breaks a watch timestamp down, localizing names per lang.
// Weekday numbering is Monday=0 through Sunday=6.
func calendarFor(watched time.Time, lang string) Calendar {
	names := namesFor(lang)
	weekdayNum := (int(watched.Weekday()) + 6) % 7
	_, isoWeek := watched.ISOWeek()
	return Calendar{
		Year:        watched.Year(),
		MonthNum:    int(watched.Month()),
		MonthName:   names.months[watched.Month()-1],
		DayOfMonth:  watched.Day(),
		WeekdayNum:  weekdayNum,
		WeekdayName: names.weekdays[weekdayNum],
		Hour:        watched.Hour(),
		ISOWeek:     isoWeek,
	}
}
