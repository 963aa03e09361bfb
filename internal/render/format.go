package render

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"sellerdash/internal/domain"
)

// NotAvailable is shown for absent dates and attribute values.
const NotAvailable = "N/A"

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// FormatPrice renders price as Brazilian Real whatever the item currency
// is. The currency argument is accepted and ignored.
func FormatPrice(price float64, currency string) string {
	if price == 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return "R$ 0,00"
	}
	sign := ""
	if price < 0 {
		sign = "-"
		price = -price
	}
	return sign + "R$ " + ptBR.Sprint(number.Decimal(price, number.Scale(2)))
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FormatDate renders an ISO timestamp as dd/mm/yyyy, HH:MM in loc.
// Empty or unparsable input renders NotAvailable.
func FormatDate(s string, loc *time.Location) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NotAvailable
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc).Format("02/01/2006, 15:04")
		}
	}
	return NotAvailable
}

// StatusClass maps an item status to its display style.
func StatusClass(status string) string {
	switch status {
	case domain.StatusActive:
		return "status-active"
	case domain.StatusClosed:
		return "status-closed"
	default:
		return "status-paused"
	}
}

// StatusText maps an item status to its label, echoing unknown values.
func StatusText(status string) string {
	switch status {
	case domain.StatusActive:
		return "Ativo"
	case domain.StatusPaused:
		return "Pausado"
	case domain.StatusClosed:
		return "Finalizado"
	default:
		return status
	}
}

// ConditionText maps an item condition to its label.
func ConditionText(condition string) string {
	if condition == "new" {
		return "Novo"
	}
	return "Usado"
}

// AttributeValue picks the first present of value_name, value_struct.number
// and values[0].name.
func AttributeValue(a domain.Attribute) string {
	if a.ValueName != "" {
		return a.ValueName
	}
	if a.ValueStruct != nil && a.ValueStruct.Number != 0 {
		return strconv.FormatFloat(a.ValueStruct.Number, 'f', -1, 64)
	}
	if len(a.Values) > 0 && a.Values[0].Name != "" {
		return a.Values[0].Name
	}
	return NotAvailable
}
