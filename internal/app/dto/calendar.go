package dto

import (
	"stayrates/internal/domain/availability"
	"stayrates/internal/domain/shared/daterange"
)

type CalendarDay struct {
	Date        string   `json:"date"`
	IsAvailable bool     `json:"is_available"`
	Status      string   `json:"status"`
	Price       MoneyDTO `json:"price"`
	RateType    string   `json:"rate_type"`
	Reason      string   `json:"reason,omitempty"`
}

type Calendar struct {
	ApartmentID string        `json:"apartment_id"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	Days        []CalendarDay `json:"days"`
	Warnings    []RuleWarning `json:"warnings,omitempty"`
}

func MapCalendar(cal availability.Calendar) Calendar {
	days := make([]CalendarDay, 0, len(cal.Days))
	for _, d := range cal.Days {
		days = append(days, CalendarDay{
			Date:        daterange.Format(d.Date),
			IsAvailable: d.IsAvailable,
			Status:      string(d.Status),
			Price:       MapMoney(d.Price),
			RateType:    string(d.RateType),
			Reason:      d.Reason,
		})
	}
	out := Calendar{
		ApartmentID: string(cal.ApartmentID),
		Days:        days,
		Warnings:    MapWarnings(cal.Warnings),
	}
	if len(days) > 0 {
		out.From = days[0].Date
		out.To = days[len(days)-1].Date
	}
	return out
}
