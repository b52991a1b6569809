package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

func (p *Pool) FindLegislatorByNaturalKey(ctx context.Context, key string) (*Legislator, error) {
	var row Legislator
	if err := p.findByNaturalKey(ctx, &row, key); err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("find legislator %q: %w", key, err)
	}
	return &row, nil
}

func (p *Pool) InsertLegislator(ctx context.Context, row *Legislator) (bool, error) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	inserted, err := p.insertByNaturalKey(ctx, row)
	if err != nil {
		return false, fmt.Errorf("insert legislator %q: %w", row.NaturalKey, err)
	}
	return inserted, nil
}

func (p *Pool) MergeLegislator(ctx context.Context, id string, in *Legislator) error {
	err := p.mergeByID(ctx, &Legislator{}, id, map[string]any{
		"chamber":                 in.Chamber,
		"title":                   in.Title,
		"short_title":             in.ShortTitle,
		"first_name":              in.FirstName,
		"middle_name":             in.MiddleName,
		"last_name":               in.LastName,
		"suffix":                  in.Suffix,
		"date_of_birth":           in.DateOfBirth,
		"gender":                  in.Gender,
		"party":                   in.Party,
		"leadership_role":         in.LeadershipRole,
		"twitter_account":         in.TwitterAccount,
		"facebook_account":        in.FacebookAccount,
		"youtube_account":         in.YoutubeAccount,
		"url":                     in.URL,
		"contact_form":            in.ContactForm,
		"in_office":               in.InOffice,
		"next_election":           in.NextElection,
		"total_votes":             in.TotalVotes,
		"missed_votes":            in.MissedVotes,
		"missed_votes_pct":        in.MissedVotesPct,
		"votes_with_party_pct":    in.VotesWithPartyPct,
		"votes_against_party_pct": in.VotesAgainstPartyPct,
		"office":                  in.Office,
		"phone":                   in.Phone,
		"state":                   in.State,
		"district":                in.District,
	})
	if err != nil {
		return fmt.Errorf("merge legislator %s: %w", id, err)
	}
	return nil
}

func (p *Pool) ListLegislators(ctx context.Context) ([]Legislator, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	var rows []Legislator
	if err := p.gdb.WithContext(ctx).Order("natural_key").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list legislators: %w", err)
	}
	return rows, nil
}
