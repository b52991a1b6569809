package congress

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Endpoints builds provider URLs for one congress.
type Endpoints struct {
	BaseURL  string
	Congress int
}

func (e Endpoints) base() string {
	return strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
}

// Bills lists bills for a chamber ("house", "senate" or "both") and category.
func (e Endpoints) Bills(chamber, category string) string {
	return fmt.Sprintf("%s/%d/%s/bills/%s.json", e.base(), e.Congress, url.PathEscape(chamber), url.PathEscape(category))
}

func (e Endpoints) Members(chamber Chamber) string {
	return fmt.Sprintf("%s/%d/%s/members.json", e.base(), e.Congress, chamber.PathSegment())
}

func (e Endpoints) MemberVotes(memberID string) string {
	return fmt.Sprintf("%s/members/%s/votes.json", e.base(), url.PathEscape(memberID))
}

func (e Endpoints) MemberBills(memberID, category string) string {
	return fmt.Sprintf("%s/members/%s/bills/%s.json", e.base(), url.PathEscape(memberID), url.PathEscape(category))
}

func (e Endpoints) BillSubjects(slug string) string {
	return fmt.Sprintf("%s/%d/bills/%s/subjects.json", e.base(), e.Congress, url.PathEscape(slug))
}

// WithOffset appends the offset query parameter used for pagination.
func WithOffset(rawURL string, offset int) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + "offset=" + strconv.Itoa(offset)
}
