package printer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/psc-ict/frontdesk/internal/model"
)

// ESC/POS control sequences understood by the front-desk receipt printer.
const (
	boldOn      = "\x1b\x45\x01"
	boldOff     = "\x1b\x45\x00"
	quadSize    = "\x1d\x21\x33"
	normalSize  = "\x1d\x21\x00"
	centerAlign = "\x1b\x61\x01"
	leftAlign   = "\x1b\x61\x00"
	cutPaper    = "\x1d\x56\x00"

	divider = "-----------------------------\n"
)

var nonDigit = regexp.MustCompile(`\D`)

// MaskPhone hides the middle of a phone number on printed receipts,
// keeping the first 4 and last 2 digits (0792******01). Numbers too
// short to mask are returned unchanged.
func MaskPhone(phone string) string {
	if phone == "" {
		return ""
	}
	digits := nonDigit.ReplaceAllString(phone, "")
	if len(digits) >= 6 {
		return digits[:4] + "******" + digits[len(digits)-2:]
	}
	return phone
}

func writeHeader(b *strings.Builder, title, code string) {
	b.WriteString(centerAlign + boldOn)
	b.WriteString("PARKLANDS SPORTS CLUB\n")
	b.WriteString(boldOff)
	b.WriteString("PO BOX 123-456, NAIROBI\n")
	b.WriteString("Tel: 0712 345 6789\n")
	b.WriteString("Web: www.parklandssportsclub.org\n\n")
	b.WriteString(boldOn + title + "\n" + boldOff + "\n")
	if code != "" {
		b.WriteString(centerAlign + boldOn + quadSize)
		b.WriteString(code + "\n")
		b.WriteString(normalSize + boldOff + "\n")
	}
	b.WriteString(leftAlign)
}

func writeFooter(b *strings.Builder) {
	b.WriteString("\n" + centerAlign + boldOn)
	b.WriteString("Thank you for using PSC Lost+Found\n")
	b.WriteString("Handled by PSC ICT Department\n")
	b.WriteString(boldOff + "\n\n\n")
	b.WriteString(cutPaper)
}

func writeField(b *strings.Builder, label, value string) {
	b.WriteString(boldOn + label + ": " + boldOff + value + "\n")
}

// PrintLostReceipt prints the acknowledgment slip handed to a member
// after reporting a lost item.
func (p *Printer) PrintLostReceipt(item *model.LostItem) bool {
	var b strings.Builder
	writeHeader(&b, "LOST ITEM RECEIPT", item.TrackingID)

	b.WriteString(boldOn + "Item Details\n" + boldOff + divider)
	writeField(&b, "Type", item.Type)
	writeField(&b, "Item", item.ItemName)
	writeField(&b, "Description", item.Description)
	writeField(&b, "Place Lost", item.PlaceLost)

	b.WriteString("\n" + boldOn + "Reporter Information\n" + boldOff + divider)
	writeField(&b, "Name", item.OwnerName)
	writeField(&b, "Phone", MaskPhone(item.ReporterPhone))
	writeField(&b, "Member ID", item.ReporterMemberID)

	b.WriteString("\n")
	writeField(&b, "Date Reported", item.DateReported.Format("2006-01-02 15:04"))
	writeField(&b, "Status", item.Status)

	writeFooter(&b)
	return p.print("lost-receipt", b.String())
}

// PrintFoundReceipt prints the intake slip for an item handed in.
func (p *Printer) PrintFoundReceipt(item *model.FoundItem) bool {
	var b strings.Builder
	writeHeader(&b, "FOUND ITEM RECEIPT", fmt.Sprintf("%d", item.ID))

	b.WriteString(boldOn + "Item Details\n" + boldOff + divider)
	writeField(&b, "Type", item.Type)
	writeField(&b, "Item", item.ItemName)
	writeField(&b, "Description", item.Description)
	writeField(&b, "Place Found", item.PlaceFound)

	b.WriteString("\n" + boldOn + "Finder Information\n" + boldOff + divider)
	writeField(&b, "Name", item.FinderName)
	writeField(&b, "Phone", MaskPhone(item.FinderPhone))

	b.WriteString("\n")
	writeField(&b, "Date Reported", item.DateReported.Format("2006-01-02 15:04"))
	writeField(&b, "Status", item.Status)

	writeFooter(&b)
	return p.print("found-receipt", b.String())
}

// PrintPackageLabel prints the drop-off label with the pickup code and
// shelf slot. Phones are masked.
func (p *Printer) PrintPackageLabel(pkg *model.Package) bool {
	var b strings.Builder
	writeHeader(&b, strings.ToUpper(pkg.Type)+" DROP-OFF", pkg.Code)

	b.WriteString(boldOn + "Package Details\n" + boldOff + divider)
	writeField(&b, "Code", pkg.Code)
	if pkg.Shelf != "" {
		writeField(&b, "Shelf", pkg.Shelf)
	}
	writeField(&b, "Description", pkg.Description)

	b.WriteString("\n" + boldOn + "Recipient\n" + boldOff + divider)
	writeField(&b, "Name", pkg.RecipientName)
	writeField(&b, "Phone", MaskPhone(pkg.RecipientPhone))

	b.WriteString("\n" + boldOn + "Dropped By\n" + boldOff + divider)
	writeField(&b, "Name", pkg.DroppedBy)
	writeField(&b, "Phone", MaskPhone(pkg.DropperPhone))

	b.WriteString("\n")
	writeField(&b, "Date", time.Now().Format("2006-01-02 15:04"))

	writeFooter(&b)
	return p.print("package-label", b.String())
}

// PrintMatchChit prints a potential-match slip for counter staff.
func (p *Printer) PrintMatchChit(m model.MatchResult) bool {
	var b strings.Builder
	writeHeader(&b, "POTENTIAL MATCH", m.LostItem.TrackingID)

	writeField(&b, "Confidence", fmt.Sprintf("%.0f%%", m.Score*100))

	b.WriteString("\n" + boldOn + "Lost Item\n" + boldOff + divider)
	writeField(&b, "Item", m.LostItem.ItemName)
	writeField(&b, "Desc", m.LostItem.Description)
	writeField(&b, "Lost at", m.LostItem.PlaceLost)
	writeField(&b, "Reporter", m.LostItem.OwnerName)

	b.WriteString("\n" + boldOn + "Found Item\n" + boldOff + divider)
	writeField(&b, "ID", fmt.Sprintf("%d", m.FoundItem.ID))
	writeField(&b, "Item", m.FoundItem.ItemName)
	writeField(&b, "Desc", m.FoundItem.Description)
	writeField(&b, "Found at", m.FoundItem.PlaceFound)
	writeField(&b, "Finder", m.FoundItem.FinderName)

	if len(m.Reasons) > 0 {
		b.WriteString("\n" + boldOn + "Why\n" + boldOff + divider)
		for _, r := range m.Reasons {
			b.WriteString("* " + r + "\n")
		}
	}

	writeFooter(&b)
	return p.print("match-chit", b.String())
}
