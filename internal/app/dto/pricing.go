package dto

import (
	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/shared/daterange"
)

type RuleWarning struct {
	Date     string   `json:"date"`
	Kind     string   `json:"kind"`
	ChosenID string   `json:"chosen_rule_id"`
	RuleIDs  []string `json:"rule_ids"`
}

type PriceSegment struct {
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Nights   int      `json:"nights"`
	Price    MoneyDTO `json:"price"`
	Type     string   `json:"type"`
	RuleID   string   `json:"rule_id,omitempty"`
	RuleName string   `json:"rule_name,omitempty"`
	Subtotal MoneyDTO `json:"subtotal"`
}

// Quote mirrors pricing.StayQuote. Percentages are rendered as decimal
// strings so no precision is lost on the wire.
type Quote struct {
	ApartmentID          string         `json:"apartment_id"`
	CheckIn              string         `json:"check_in"`
	CheckOut             string         `json:"check_out"`
	Nights               int            `json:"nights"`
	Segments             []PriceSegment `json:"segments"`
	Subtotal             MoneyDTO       `json:"subtotal"`
	DiscountableSubtotal MoneyDTO       `json:"discountable_subtotal"`
	DiscountPercentage   string         `json:"discount_percentage"`
	DiscountAmount       MoneyDTO       `json:"discount_amount"`
	PriceAfterDiscount   MoneyDTO       `json:"price_after_discount"`
	ServiceFee           MoneyDTO       `json:"service_fee"`
	CleaningFee          MoneyDTO       `json:"cleaning_fee"`
	Total                MoneyDTO       `json:"total"`
	Warnings             []RuleWarning  `json:"warnings,omitempty"`
}

type Rate struct {
	ApartmentID string       `json:"apartment_id"`
	Date        string       `json:"date"`
	Price       MoneyDTO     `json:"price"`
	Type        string       `json:"type"`
	RuleID      string       `json:"rule_id,omitempty"`
	RuleName    string       `json:"rule_name,omitempty"`
	Warning     *RuleWarning `json:"warning,omitempty"`
}

func MapQuote(q pricing.StayQuote) Quote {
	segments := make([]PriceSegment, 0, len(q.Segments))
	for _, s := range q.Segments {
		segments = append(segments, PriceSegment{
			Start:    daterange.Format(s.Start),
			End:      daterange.Format(s.End),
			Nights:   s.Nights,
			Price:    MapMoney(s.Price),
			Type:     string(s.Type),
			RuleID:   s.RuleID,
			RuleName: s.RuleName,
			Subtotal: MapMoney(s.Subtotal),
		})
	}
	return Quote{
		ApartmentID:          string(q.ApartmentID),
		CheckIn:              daterange.Format(q.CheckIn),
		CheckOut:             daterange.Format(q.CheckOut),
		Nights:               q.Nights,
		Segments:             segments,
		Subtotal:             MapMoney(q.Subtotal),
		DiscountableSubtotal: MapMoney(q.DiscountableSubtotal),
		DiscountPercentage:   q.DiscountPercentage.String(),
		DiscountAmount:       MapMoney(q.DiscountAmount),
		PriceAfterDiscount:   MapMoney(q.PriceAfterDiscount),
		ServiceFee:           MapMoney(q.ServiceFee),
		CleaningFee:          MapMoney(q.CleaningFee),
		Total:                MapMoney(q.Total),
		Warnings:             MapWarnings(q.Warnings),
	}
}

func MapRate(apartmentID string, r pricing.Rate) Rate {
	out := Rate{
		ApartmentID: apartmentID,
		Date:        daterange.Format(r.Date),
		Price:       MapMoney(r.Price),
		Type:        string(r.Type),
		RuleID:      r.RuleID,
		RuleName:    r.RuleName,
	}
	if r.Conflict != nil {
		w := mapWarning(*r.Conflict)
		out.Warning = &w
	}
	return out
}

func MapWarnings(ws []pricing.RuleConflictWarning) []RuleWarning {
	if len(ws) == 0 {
		return nil
	}
	out := make([]RuleWarning, 0, len(ws))
	for _, w := range ws {
		out = append(out, mapWarning(w))
	}
	return out
}

func mapWarning(w pricing.RuleConflictWarning) RuleWarning {
	return RuleWarning{
		Date:     daterange.Format(w.Date),
		Kind:     string(w.Kind),
		ChosenID: w.ChosenID,
		RuleIDs:  append([]string(nil), w.RuleIDs...),
	}
}
