package postgres

import (
	"context"
	"time"

	"github.com/KotFed0t/finvault_portfolio/internal/converter/dbConverter"
	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/internal/model/dbModel"
	"github.com/shopspring/decimal"
)

func (p *Postgres) InsertSnapshot(ctx context.Context, userID int64, totalValue decimal.Decimal, recordedAt time.Time) (snapshot model.PortfolioSnapshot, err error) {
	op := "Postgres.InsertSnapshot"
	query := `
		INSERT INTO portfolio_history (user_id, total_value, recorded_at)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, total_value, recorded_at
		`
	params := map[string]any{
		"userID":     userID,
		"totalValue": totalValue,
		"recordedAt": recordedAt,
	}
	done := logQuery(ctx, op, query, params)
	defer func() { done(err) }()

	dbSnapshot := dbModel.Snapshot{}
	err = p.txOrDb(ctx).QueryRowxContext(ctx, query, userID, totalValue, recordedAt).StructScan(&dbSnapshot)
	if err != nil {
		return model.PortfolioSnapshot{}, err
	}

	return dbConverter.ConvertSnapshot(dbSnapshot), nil
}

// GetSnapshots returns the user's points oldest first. A nil since means the whole history.
func (p *Postgres) GetSnapshots(ctx context.Context, userID int64, since *time.Time) (snapshots []model.PortfolioSnapshot, err error) {
	op := "Postgres.GetSnapshots"
	query := `
		SELECT id, user_id, total_value, recorded_at
		FROM portfolio_history
		WHERE user_id = $1
		AND ($2::timestamptz IS NULL OR recorded_at >= $2::timestamptz)
		ORDER BY recorded_at ASC, id ASC
		`
	done := logQuery(ctx, op, query, map[string]any{"userID": userID, "since": since})
	defer func() { done(err) }()

	rows, err := p.txOrDb(ctx).QueryxContext(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots = make([]model.PortfolioSnapshot, 0)
	for rows.Next() {
		var dbSnapshot dbModel.Snapshot
		if err = rows.StructScan(&dbSnapshot); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, dbConverter.ConvertSnapshot(dbSnapshot))
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return snapshots, nil
}
