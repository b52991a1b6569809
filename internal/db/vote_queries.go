package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

func (p *Pool) FindVoteByNaturalKey(ctx context.Context, key string) (*Vote, error) {
	var row Vote
	if err := p.findByNaturalKey(ctx, &row, key); err != nil {
		if IsNoRows(err) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("find vote %q: %w", key, err)
	}
	return &row, nil
}

func (p *Pool) InsertVote(ctx context.Context, row *Vote) (bool, error) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	inserted, err := p.insertByNaturalKey(ctx, row)
	if err != nil {
		return false, fmt.Errorf("insert vote %q: %w", row.NaturalKey, err)
	}
	return inserted, nil
}

func (p *Pool) MergeVote(ctx context.Context, id string, in *Vote) error {
	err := p.mergeByID(ctx, &Vote{}, id, map[string]any{
		"chamber":   in.Chamber,
		"congress":  in.Congress,
		"session":   in.Session,
		"roll_call": in.RollCall,
		"vote_uri":  in.VoteURI,
		"question":  in.Question,
		"result":    in.Result,
		"position":  in.Position,
		"voted_at":  in.VotedAt,
	})
	if err != nil {
		return fmt.Errorf("merge vote %s: %w", id, err)
	}
	return nil
}
