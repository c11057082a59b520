package dispatch

import (
	"fmt"
	"time"
)

var months = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var days = [...]string{
	"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
}

// clockTime renders the wall clock the way it gets spoken: 12-hour with
// AM/PM.
func clockTime(t time.Time) string {
	return t.Format("03:04 PM")
}

// clockDate renders a full Spanish date, e.g. "martes 1 de septiembre de 2026".
func clockDate(t time.Time) string {
	return fmt.Sprintf("%s %d de %s de %d",
		days[t.Weekday()], t.Day(), months[t.Month()-1], t.Year())
}
