package types

import (
	"math"
	"time"

	"github.com/xuri/excelize/v2"
)

// SerialToTime converts a 1900-based spreadsheet day serial into a UTC time,
// rounded to the nearest second. Invalid serials return the zero time.
func SerialToTime(serial float64) time.Time {
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}
	}
	return t.Round(time.Second).UTC()
}

// LooksLikeSerial reports whether f falls within the date-serial window used
// for display formatting.
func LooksLikeSerial(f float64) bool {
	return !math.IsNaN(f) && f > dateSerialMin && f < dateSerialMax
}
