package db

import "time"

// Legislator maps legislators. NaturalKey is the provider member id.
type Legislator struct {
	ID                   string    `gorm:"column:id;type:text;primaryKey"`
	NaturalKey           string    `gorm:"column:natural_key;type:text;not null;uniqueIndex"`
	Chamber              *string   `gorm:"column:chamber;type:text"`
	Title                *string   `gorm:"column:title;type:text"`
	ShortTitle           *string   `gorm:"column:short_title;type:text"`
	FirstName            *string   `gorm:"column:first_name;type:text"`
	MiddleName           *string   `gorm:"column:middle_name;type:text"`
	LastName             *string   `gorm:"column:last_name;type:text"`
	Suffix               *string   `gorm:"column:suffix;type:text"`
	DateOfBirth          *string   `gorm:"column:date_of_birth;type:text"`
	Gender               *string   `gorm:"column:gender;type:text"`
	Party                *string   `gorm:"column:party;type:text"`
	LeadershipRole       *string   `gorm:"column:leadership_role;type:text"`
	TwitterAccount       *string   `gorm:"column:twitter_account;type:text"`
	FacebookAccount      *string   `gorm:"column:facebook_account;type:text"`
	YoutubeAccount       *string   `gorm:"column:youtube_account;type:text"`
	URL                  *string   `gorm:"column:url;type:text"`
	ContactForm          *string   `gorm:"column:contact_form;type:text"`
	InOffice             *bool     `gorm:"column:in_office"`
	NextElection         *string   `gorm:"column:next_election;type:text"`
	TotalVotes           *int      `gorm:"column:total_votes"`
	MissedVotes          *int      `gorm:"column:missed_votes"`
	MissedVotesPct       *float64  `gorm:"column:missed_votes_pct"`
	VotesWithPartyPct    *float64  `gorm:"column:votes_with_party_pct"`
	VotesAgainstPartyPct *float64  `gorm:"column:votes_against_party_pct"`
	Office               *string   `gorm:"column:office;type:text"`
	Phone                *string   `gorm:"column:phone;type:text"`
	State                *string   `gorm:"column:state;type:text"`
	District             *string   `gorm:"column:district;type:text"`
	CreatedAt            time.Time `gorm:"column:created_at;not null"`
	UpdatedAt            time.Time `gorm:"column:updated_at;not null"`
}

func (Legislator) TableName() string { return "legislators" }

// Bill maps bills. NaturalKey is the provider bill id (for example hr1-118).
type Bill struct {
	ID                    string     `gorm:"column:id;type:text;primaryKey"`
	NaturalKey            string     `gorm:"column:natural_key;type:text;not null;uniqueIndex"`
	Slug                  *string    `gorm:"column:slug;type:text"`
	BillType              *string    `gorm:"column:bill_type;type:text"`
	Number                *string    `gorm:"column:number;type:text"`
	Chamber               *string    `gorm:"column:chamber;type:text"`
	Congress              *int       `gorm:"column:congress"`
	Title                 *string    `gorm:"column:title;type:text"`
	ShortTitle            *string    `gorm:"column:short_title;type:text"`
	SponsorID             *string    `gorm:"column:sponsor_id;type:text"`
	SponsorTitle          *string    `gorm:"column:sponsor_title;type:text"`
	SponsorName           *string    `gorm:"column:sponsor_name;type:text"`
	SponsorState          *string    `gorm:"column:sponsor_state;type:text"`
	SponsorParty          *string    `gorm:"column:sponsor_party;type:text"`
	GpoPdfURI             *string    `gorm:"column:gpo_pdf_uri;type:text"`
	CongressDotGovURL     *string    `gorm:"column:congressdotgov_url;type:text"`
	GovtrackURL           *string    `gorm:"column:govtrack_url;type:text"`
	IntroducedDate        *string    `gorm:"column:introduced_date;type:text"`
	Active                *bool      `gorm:"column:active"`
	LastVote              *string    `gorm:"column:last_vote;type:text"`
	HousePassage          *string    `gorm:"column:house_passage;type:text"`
	SenatePassage         *string    `gorm:"column:senate_passage;type:text"`
	Enacted               *string    `gorm:"column:enacted;type:text"`
	Vetoed                *string    `gorm:"column:vetoed;type:text"`
	Cosponsors            *int       `gorm:"column:cosponsors"`
	CosponsorsD           *int       `gorm:"column:cosponsors_d"`
	CosponsorsR           *int       `gorm:"column:cosponsors_r"`
	Committees            *string    `gorm:"column:committees;type:text"`
	CommitteeCodes        StringList `gorm:"column:committee_codes;type:text"`
	SubcommitteeCodes     StringList `gorm:"column:subcommittee_codes;type:text"`
	PrimarySubject        *string    `gorm:"column:primary_subject;type:text"`
	Subjects              StringList `gorm:"column:subjects;type:text"`
	Summary               *string    `gorm:"column:summary;type:text"`
	SummaryShort          *string    `gorm:"column:summary_short;type:text"`
	LatestMajorActionDate *string    `gorm:"column:latest_major_action_date;type:text"`
	LatestMajorAction     *string    `gorm:"column:latest_major_action;type:text"`
	PrimaryIssueID        *string    `gorm:"column:primary_issue_id;type:text"`
	CreatedAt             time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt             time.Time  `gorm:"column:updated_at;not null"`
}

func (Bill) TableName() string { return "bills" }

// Issue maps issues, a named group of subject tags.
type Issue struct {
	ID        string     `gorm:"column:id;type:text;primaryKey"`
	Slug      string     `gorm:"column:slug;type:text;not null;uniqueIndex"`
	Name      string     `gorm:"column:name;type:text;not null"`
	Subjects  StringList `gorm:"column:subjects;type:text"`
	CreatedAt time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt time.Time  `gorm:"column:updated_at;not null"`
}

func (Issue) TableName() string { return "issues" }

// BillIssue maps the bill_issues junction.
type BillIssue struct {
	BillID    string    `gorm:"column:bill_id;type:text;primaryKey"`
	IssueID   string    `gorm:"column:issue_id;type:text;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (BillIssue) TableName() string { return "bill_issues" }

// Cosponsor maps cosponsors, one row per (bill, legislator).
type Cosponsor struct {
	BillID       string    `gorm:"column:bill_id;type:text;primaryKey"`
	LegislatorID string    `gorm:"column:legislator_id;type:text;primaryKey"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (Cosponsor) TableName() string { return "cosponsors" }

// Vote maps one legislator's recorded position on one roll call.
type Vote struct {
	ID           string     `gorm:"column:id;type:text;primaryKey"`
	NaturalKey   string     `gorm:"column:natural_key;type:text;not null;uniqueIndex"`
	LegislatorID string     `gorm:"column:legislator_id;type:text;not null"`
	BillID       string     `gorm:"column:bill_id;type:text;not null"`
	Chamber      *string    `gorm:"column:chamber;type:text"`
	Congress     *string    `gorm:"column:congress;type:text"`
	Session      *string    `gorm:"column:session;type:text"`
	RollCall     *string    `gorm:"column:roll_call;type:text"`
	VoteURI      *string    `gorm:"column:vote_uri;type:text"`
	Question     *string    `gorm:"column:question;type:text"`
	Result       *string    `gorm:"column:result;type:text"`
	Position     *bool      `gorm:"column:position"`
	VotedAt      *time.Time `gorm:"column:voted_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null"`
}

func (Vote) TableName() string { return "votes" }

// BillEnrichment maps bill_enrichments. Text and Summary are written at most once.
type BillEnrichment struct {
	ID            string     `gorm:"column:id;type:text;primaryKey"`
	BillID        string     `gorm:"column:bill_id;type:text;not null;uniqueIndex"`
	Text          *string    `gorm:"column:text;type:text"`
	Summary       *string    `gorm:"column:summary;type:text"`
	TextFetchedAt *time.Time `gorm:"column:text_fetched_at"`
	SummarizedAt  *time.Time `gorm:"column:summarized_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;not null"`
}

func (BillEnrichment) TableName() string { return "bill_enrichments" }

// SyncRun maps sync_runs, the ledger of engine entry-point invocations.
type SyncRun struct {
	ID           string     `gorm:"column:id;type:text;primaryKey" json:"id"`
	Entity       string     `gorm:"column:entity;type:text;not null" json:"entity"`
	Status       string     `gorm:"column:status;type:text;not null" json:"status"`
	StartedAt    time.Time  `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt   *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	Fetched      int        `gorm:"column:fetched;not null;default:0" json:"fetched"`
	Duplicates   int        `gorm:"column:duplicates;not null;default:0" json:"duplicates"`
	Inserted     int        `gorm:"column:inserted;not null;default:0" json:"inserted"`
	Updated      int        `gorm:"column:updated;not null;default:0" json:"updated"`
	Skipped      int        `gorm:"column:skipped;not null;default:0" json:"skipped"`
	ErrorMessage *string    `gorm:"column:error_message;type:text" json:"error,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (SyncRun) TableName() string { return "sync_runs" }
