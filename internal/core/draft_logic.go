package core

import (
	"errors"
	"fmt"
	"strings"
)

// EntryDraft is a DSR row proposed from a free-text description. Amounts are
// strings so a model can return them exactly as written.
type EntryDraft struct {
	Bill            string  `json:"bill" jsonschema_description:"Bill or invoice number exactly as written"`
	Party           string  `json:"party" jsonschema_description:"Customer or party name"`
	Credit          string  `json:"credit" jsonschema_description:"Amount billed on credit, e.g. \"1200.00\", empty if none"`
	Payment         string  `json:"payment" jsonschema_description:"Amount received, empty if none"`
	Return          string  `json:"return" jsonschema_description:"Value of goods returned, empty if none"`
	Discount        string  `json:"discount" jsonschema_description:"Discount allowed, empty if none"`
	Confidence      float64 `json:"confidence" jsonschema_description:"Confidence between 0.0 and 1.0"`
	Reasoning       string  `json:"reasoning" jsonschema_description:"Short explanation of how the fields were read"`
	IsClarification bool    `json:"is_clarification" jsonschema_description:"True when the text lacks a bill number or any amount"`
	Question        string  `json:"question" jsonschema_description:"Question for the user when is_clarification is true"`
}

// Normalize cleans up common formatting issues in model output.
func (d *EntryDraft) Normalize() {
	d.Bill = strings.TrimSpace(d.Bill)
	d.Party = strings.TrimSpace(d.Party)
	for _, amt := range []*string{&d.Credit, &d.Payment, &d.Return, &d.Discount} {
		v := strings.TrimSpace(*amt)
		v = strings.ReplaceAll(v, ",", "")
		if strings.EqualFold(v, "null") || strings.EqualFold(v, "none") {
			v = ""
		}
		*amt = v
	}
}

// Validate checks the draft can be turned into an entry.
func (d *EntryDraft) Validate() error {
	if d.IsClarification {
		return nil
	}
	if d.Bill == "" {
		return errors.New("draft must specify a bill number")
	}
	for name, v := range map[string]string{"credit": d.Credit, "payment": d.Payment, "return": d.Return, "discount": d.Discount} {
		amt, err := ParseAmount(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if amt.IsNegative() {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1, got %v", d.Confidence)
	}
	return nil
}

// Row converts the draft into a raw day row.
func (d *EntryDraft) Row() RowInput {
	return RowInput{
		Bill:     d.Bill,
		Party:    d.Party,
		Credit:   d.Credit,
		Payment:  d.Payment,
		Return:   d.Return,
		Discount: d.Discount,
	}
}
