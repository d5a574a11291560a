package widget

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeCode uppercases a currency code as typed. Any string is accepted;
// unknown codes only fail later, at rate lookup.
func NormalizeCode(code string) string {
	return cases.Upper(language.Und).String(code)
}

// Input is a partial form change. Nil fields are left as they are.
type Input struct {
	Amount *string
	From   *string
	To     *string
}

// Apply writes the changed fields in form order. It reports whether a change
// of source code started a fetch.
func (w *Widget) Apply(in Input) (bool, error) {
	if in.Amount != nil {
		if err := w.SetAmount(*in.Amount); err != nil {
			return false, err
		}
	}
	if in.To != nil {
		if err := w.SetTo(*in.To); err != nil {
			return false, err
		}
	}
	if in.From != nil {
		return w.SetFrom(*in.From)
	}
	return false, nil
}
