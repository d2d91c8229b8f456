// Package report lays out and renders the Daily Sales Report PDF and exports
// ledgers as CSV or XLSX.
package report

import (
	"fmt"

	"dsr-ledger/internal/core"

	"github.com/shopspring/decimal"
)

// Geometry in PDF points with the origin at the bottom-left corner.
const (
	cm         = 72.0 / 2.54
	PageWidth  = 595.2755905511812 // A4
	PageHeight = 841.8897637795277
	Margin     = 1.5 * cm
	LineHeight = 0.6 * cm

	topY      = PageHeight - Margin
	breakY    = Margin + 2*cm
	numOffset = 1.5 * cm // numbers are right-aligned this far past the column start
)

// Column x positions.
var (
	colBill     = Margin
	colParty    = Margin + 2.5*cm
	colCredit   = Margin + 7.5*cm
	colPayment  = Margin + 10*cm
	colReturn   = Margin + 12.5*cm
	colDiscount = Margin + 15*cm
	colBalance  = Margin + 17.5*cm
)

// Align is the horizontal anchor of a text op.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

// Font is a core PDF font.
type Font struct {
	Family string
	Style  string // "", "B" or "I"
	Size   float64
}

var (
	fontTitle  = Font{"Helvetica", "B", 16}
	fontHeader = Font{"Helvetica", "B", 10}
	fontRow    = Font{"Helvetica", "", 9}
	fontNotesH = Font{"Helvetica", "B", 12}
	fontNote   = Font{"Helvetica", "", 10}
	fontGrand  = Font{"Helvetica", "B", 11}
	fontFooter = Font{"Helvetica", "I", 9}
)

// Op is a single drawing instruction.
type Op struct {
	Line  bool // horizontal rule from X to X2; otherwise text
	X, Y  float64
	X2    float64
	Align Align
	Font  Font
	Text  string
}

// Page is the ordered ops of one page.
type Page struct {
	Ops []Op
}

// Day is everything one report shows.
type Day struct {
	User    string
	Date    string
	Entries []core.Entry
	Notes   []core.Note
}

// FileName returns DSR_{user}_{date}.pdf.
func FileName(user, date string) string {
	return fmt.Sprintf("DSR_%s_%s.pdf", safeName(user), safeName(date))
}

type cursor struct {
	pages []Page
	y     float64
}

func (c *cursor) text(x float64, align Align, f Font, s string) {
	p := &c.pages[len(c.pages)-1]
	p.Ops = append(p.Ops, Op{X: x, Y: c.y, Align: align, Font: f, Text: s})
}

func (c *cursor) rule() {
	p := &c.pages[len(c.pages)-1]
	p.Ops = append(p.Ops, Op{Line: true, X: Margin, X2: PageWidth - Margin, Y: c.y})
}

// breakIfLow starts a new page when the cursor is below the break threshold.
func (c *cursor) breakIfLow() {
	if c.y < breakY {
		c.pages = append(c.pages, Page{})
		c.y = topY
	}
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Layout computes the pages of a DSR. Pagination depends only on the vertical
// cursor: a new page starts whenever the next line would fall below Margin + 2cm.
func Layout(d Day) []Page {
	c := &cursor{pages: []Page{{}}, y: topY}

	c.text(PageWidth/2, AlignCenter, fontTitle, "DAILY SALES REPORT - "+d.Date)
	c.y -= 2 * LineHeight

	c.text(colBill, AlignLeft, fontHeader, "Bill No")
	c.text(colParty, AlignLeft, fontHeader, "Party Name")
	c.text(colCredit+numOffset, AlignRight, fontHeader, "Credit")
	c.text(colPayment+numOffset, AlignRight, fontHeader, "Payment")
	c.text(colReturn+numOffset, AlignRight, fontHeader, "Return")
	c.text(colDiscount+numOffset, AlignRight, fontHeader, "Discount")
	c.text(colBalance+numOffset, AlignRight, fontHeader, "Balance")
	c.y -= 0.25 * LineHeight
	c.rule()
	c.y -= LineHeight

	for _, e := range d.Entries {
		c.breakIfLow()
		c.text(colBill, AlignLeft, fontRow, e.Bill)
		c.text(colParty, AlignLeft, fontRow, e.Party)
		c.text(colCredit+numOffset, AlignRight, fontRow, amount(e.Credit))
		c.text(colPayment+numOffset, AlignRight, fontRow, amount(e.Payment))
		c.text(colReturn+numOffset, AlignRight, fontRow, amount(e.Return))
		c.text(colDiscount+numOffset, AlignRight, fontRow, amount(e.Discount))
		c.text(colBalance+numOffset, AlignRight, fontRow, amount(e.Balance))
		c.y -= LineHeight
	}

	totals := core.Summarize(d.Entries, d.Notes)

	c.y -= 0.25 * LineHeight
	c.breakIfLow()
	c.rule()
	c.y -= LineHeight
	c.breakIfLow()
	c.text(colParty, AlignLeft, fontHeader, "Totals:")
	c.text(colPayment+numOffset, AlignRight, fontHeader, amount(totals.Payment))
	c.text(colReturn+numOffset, AlignRight, fontHeader, amount(totals.Return))
	c.text(colDiscount+numOffset, AlignRight, fontHeader, amount(totals.Discount))

	if len(d.Notes) > 0 {
		c.y -= 2 * LineHeight
		c.breakIfLow()
		c.text(Margin, AlignLeft, fontNotesH, "Other Collections / Notes:")
		c.y -= LineHeight
		for _, n := range d.Notes {
			c.breakIfLow()
			c.text(Margin+0.5*cm, AlignLeft, fontNote, "- "+n.Description+":")
			c.text(colPayment+numOffset, AlignRight, fontNote, amount(n.Amount))
			c.y -= LineHeight
		}
	}

	c.y -= LineHeight
	c.breakIfLow()
	c.rule()
	c.y -= LineHeight
	c.breakIfLow()
	c.text(colPayment+numOffset, AlignRight, fontGrand, "Grand Total: "+amount(totals.Grand))

	// The footer sits below the break threshold, so it never triggers a page.
	c.y = Margin / 2
	c.text(PageWidth/2, AlignCenter, fontFooter, "Report Prepared By: "+d.User)

	return c.pages
}
