package enrich

import (
	"fmt"
	"strings"

	"horse.fit/breakdown/internal/congress"
	"horse.fit/breakdown/internal/db"
)

// Target identifies the bill an enrichment task works on.
type Target struct {
	BillID     string
	NaturalKey string
	Slug       string
	BillType   string
	Congress   int
}

func TargetFromBill(bill *db.Bill) Target {
	if bill == nil {
		return Target{}
	}
	t := Target{
		BillID:     bill.ID,
		NaturalKey: bill.NaturalKey,
	}
	if bill.Slug != nil {
		t.Slug = strings.ToLower(strings.TrimSpace(*bill.Slug))
	}
	if bill.BillType != nil {
		t.BillType = strings.ToLower(strings.TrimSpace(*bill.BillType))
	}
	if bill.Congress != nil {
		t.Congress = *bill.Congress
	}
	return t
}

// DocumentURL builds the introduced-version XML location of a bill. Only
// House and Senate bills (hr, s) publish this document; ok is false for
// every other bill type.
func DocumentURL(baseURL string, t Target) (string, bool) {
	return versionURL(baseURL, t, "xml")
}

// TextURL builds the plain-text HTML rendition of the same bill version. It
// is tried when the XML document yields no text.
func TextURL(baseURL string, t Target) (string, bool) {
	return versionURL(baseURL, t, "htm")
}

// DocumentURLs lists the locations to try for a bill, XML first.
func DocumentURLs(baseURL string, t Target) []string {
	var urls []string
	if u, ok := DocumentURL(baseURL, t); ok {
		urls = append(urls, u)
	}
	if u, ok := TextURL(baseURL, t); ok {
		urls = append(urls, u)
	}
	return urls
}

func versionURL(baseURL string, t Target, ext string) (string, bool) {
	if t.BillType != "hr" && t.BillType != "s" {
		return "", false
	}
	if t.Slug == "" || t.Congress <= 0 {
		return "", false
	}
	suffix := congress.ChamberFromBillType(t.BillType).DocumentSuffix()
	if suffix == "" {
		return "", false
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return fmt.Sprintf("%s/%d/bills/%s/BILLS-%d%si%s.%s", base, t.Congress, t.Slug, t.Congress, t.Slug, suffix, ext), true
}
