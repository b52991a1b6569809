package congress

import "strings"

// BillRecord is one bill as returned by the bill list and member bill
// endpoints. Every field is optional.
type BillRecord struct {
	BillID                *string            `json:"bill_id"`
	BillSlug              *string            `json:"bill_slug"`
	BillType              *string            `json:"bill_type"`
	Number                *string            `json:"number"`
	BillURI               *string            `json:"bill_uri"`
	Title                 *string            `json:"title"`
	ShortTitle            *string            `json:"short_title"`
	SponsorTitle          *string            `json:"sponsor_title"`
	SponsorID             *string            `json:"sponsor_id"`
	SponsorName           *string            `json:"sponsor_name"`
	SponsorState          *string            `json:"sponsor_state"`
	SponsorParty          *string            `json:"sponsor_party"`
	GpoPdfURI             *string            `json:"gpo_pdf_uri"`
	CongressDotGovURL     *string            `json:"congressdotgov_url"`
	GovtrackURL           *string            `json:"govtrack_url"`
	IntroducedDate        *string            `json:"introduced_date"`
	Active                *bool              `json:"active"`
	LastVote              *string            `json:"last_vote"`
	HousePassage          *string            `json:"house_passage"`
	SenatePassage         *string            `json:"senate_passage"`
	Enacted               *string            `json:"enacted"`
	Vetoed                *string            `json:"vetoed"`
	Cosponsors            *int               `json:"cosponsors"`
	CosponsorsByParty     *CosponsorsByParty `json:"cosponsors_by_party"`
	Committees            *string            `json:"committees"`
	CommitteeCodes        []string           `json:"committee_codes"`
	SubcommitteeCodes     []string           `json:"subcommittee_codes"`
	PrimarySubject        *string            `json:"primary_subject"`
	Summary               *string            `json:"summary"`
	SummaryShort          *string            `json:"summary_short"`
	LatestMajorActionDate *string            `json:"latest_major_action_date"`
	LatestMajorAction     *string            `json:"latest_major_action"`
}

type CosponsorsByParty struct {
	D *int `json:"D"`
	R *int `json:"R"`
}

// NaturalKey is the provider bill id, for example "hr1-118".
func (r BillRecord) NaturalKey() string {
	return trimmed(r.BillID)
}

// LegislatorRecord is one member from the chamber member list.
type LegislatorRecord struct {
	ID                   *string  `json:"id"`
	Title                *string  `json:"title"`
	ShortTitle           *string  `json:"short_title"`
	FirstName            *string  `json:"first_name"`
	MiddleName           *string  `json:"middle_name"`
	LastName             *string  `json:"last_name"`
	Suffix               *string  `json:"suffix"`
	DateOfBirth          *string  `json:"date_of_birth"`
	Gender               *string  `json:"gender"`
	Party                *string  `json:"party"`
	LeadershipRole       *string  `json:"leadership_role"`
	TwitterAccount       *string  `json:"twitter_account"`
	FacebookAccount      *string  `json:"facebook_account"`
	YoutubeAccount       *string  `json:"youtube_account"`
	URL                  *string  `json:"url"`
	ContactForm          *string  `json:"contact_form"`
	InOffice             *bool    `json:"in_office"`
	NextElection         *string  `json:"next_election"`
	TotalVotes           *float64 `json:"total_votes"`
	MissedVotes          *float64 `json:"missed_votes"`
	MissedVotesPct       *float64 `json:"missed_votes_pct"`
	VotesWithPartyPct    *float64 `json:"votes_with_party_pct"`
	VotesAgainstPartyPct *float64 `json:"votes_against_party_pct"`
	Office               *string  `json:"office"`
	Phone                *string  `json:"phone"`
	State                *string  `json:"state"`
	District             *string  `json:"district"`

	// Chamber is set by the caller from the endpoint the record came from.
	Chamber Chamber `json:"-"`
}

func (r LegislatorRecord) NaturalKey() string {
	return trimmed(r.ID)
}

// VoteRecord is one member position from the member votes endpoint.
type VoteRecord struct {
	MemberID *string   `json:"member_id"`
	Chamber  *string   `json:"chamber"`
	Congress *string   `json:"congress"`
	Session  *string   `json:"session"`
	RollCall *string   `json:"roll_call"`
	VoteURI  *string   `json:"vote_uri"`
	Bill     *VoteBill `json:"bill"`
	Question *string   `json:"question"`
	Result   *string   `json:"result"`
	Date     *string   `json:"date"`
	Time     *string   `json:"time"`
	Position *string   `json:"position"`
}

type VoteBill struct {
	BillID       *string `json:"bill_id"`
	Number       *string `json:"number"`
	SponsorID    *string `json:"sponsor_id"`
	BillURI      *string `json:"bill_uri"`
	Title        *string `json:"title"`
	LatestAction *string `json:"latest_action"`
}

// NaturalKey identifies one member's position on one roll call. It is empty
// when any component is missing.
func (r VoteRecord) NaturalKey() string {
	parts := []string{trimmed(r.MemberID), trimmed(r.Chamber), trimmed(r.Congress), trimmed(r.Session), trimmed(r.RollCall)}
	for _, part := range parts {
		if part == "" {
			return ""
		}
	}
	return strings.ToLower(strings.Join(parts, ":"))
}

// BillKey is the natural key of the bill voted on, if any.
func (r VoteRecord) BillKey() string {
	if r.Bill == nil {
		return ""
	}
	return trimmed(r.Bill.BillID)
}

// SubjectRecord is one legislative subject term attached to a bill.
type SubjectRecord struct {
	Name    string `json:"name"`
	URLName string `json:"url_name"`
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
