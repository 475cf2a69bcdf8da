package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/season-engine/internal/storage/repository"
)

// Tx exposes the repositories bound to one open transaction.
type Tx struct {
	Saves     repository.SaveRepository
	Teams     repository.TeamRepository
	Matchdays repository.MatchdayRepository
	Matches   repository.MatchRepository
	Stats     repository.PlayerStatRepository
}

func newTx(tx *sql.Tx) *Tx {
	return &Tx{
		Saves:     repository.NewSaveRepository(tx),
		Teams:     repository.NewTeamRepository(tx),
		Matchdays: repository.NewMatchdayRepository(tx),
		Matches:   repository.NewMatchRepository(tx),
		Stats:     repository.NewPlayerStatRepository(tx),
	}
}

// TxFunc is a function that runs within a transaction.
type TxFunc func(*Tx) error

// WithTransaction executes fn within a database transaction.
// It commits on success and rolls back on error or panic; a panic is re-raised.
// fn must only use the repositories on the Tx it receives.
func (db *DB) WithTransaction(ctx context.Context, fn TxFunc) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
			}
		} else {
			err = tx.Commit()
			if err != nil {
				err = fmt.Errorf("failed to commit transaction: %w", err)
			}
		}
	}()

	return fn(newTx(tx))
}
