package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/KotFed0t/finvault_portfolio/data/repository"
	"github.com/KotFed0t/finvault_portfolio/internal/converter/dbConverter"
	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/internal/model/dbModel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const holdingWithAssetColumns = `p.id, p.user_id, p.asset_id, p.quantity, p.invested_value,
	a.cmc_id, a.symbol, a.name, a.slug, a.type, a.logo_url, a.price, a.percent_change_24h`

func (p *Postgres) GetHoldings(ctx context.Context, userID int64) (holdings []model.Holding, err error) {
	op := "Postgres.GetHoldings"
	query := `
		SELECT ` + holdingWithAssetColumns + `
		FROM portfolio p
		JOIN assets a ON a.id = p.asset_id
		WHERE p.user_id = $1
		ORDER BY p.id
		`
	done := logQuery(ctx, op, query, map[string]any{"userID": userID})
	defer func() { done(err) }()

	rows, err := p.txOrDb(ctx).QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holdings = make([]model.Holding, 0)
	for rows.Next() {
		var dbHolding dbModel.HoldingWithAsset
		if err = rows.StructScan(&dbHolding); err != nil {
			return nil, err
		}
		holdings = append(holdings, dbConverter.ConvertHolding(dbHolding))
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return holdings, nil
}

func (p *Postgres) GetHolding(ctx context.Context, userID, assetID int64) (holding model.Holding, err error) {
	op := "Postgres.GetHolding"
	query := `
		SELECT ` + holdingWithAssetColumns + `
		FROM portfolio p
		JOIN assets a ON a.id = p.asset_id
		WHERE p.user_id = $1
		AND p.asset_id = $2
		`
	done := logQuery(ctx, op, query, map[string]any{"userID": userID, "assetID": assetID})
	defer func() { done(err) }()

	dbHolding := dbModel.HoldingWithAsset{}
	err = p.txOrDb(ctx).QueryRowxContext(ctx, query, userID, assetID).StructScan(&dbHolding)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Holding{}, repository.ErrNotFound
		}
		return model.Holding{}, err
	}

	return dbConverter.ConvertHolding(dbHolding), nil
}

// UpsertHolding adds quantity and invested value to the user's row for the asset,
// creating it on first add. Returns the merged totals.
func (p *Postgres) UpsertHolding(ctx context.Context, userID, assetID int64, quantity, invested decimal.Decimal) (totalQuantity, totalInvested decimal.Decimal, err error) {
	op := "Postgres.UpsertHolding"
	query := `
		INSERT INTO portfolio (user_id, asset_id, quantity, invested_value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT portfolio_user_asset_key DO UPDATE SET
			quantity = portfolio.quantity + EXCLUDED.quantity,
			invested_value = portfolio.invested_value + EXCLUDED.invested_value,
			dt_update = now()
		RETURNING quantity, invested_value
		`
	params := map[string]any{
		"userID":   userID,
		"assetID":  assetID,
		"quantity": quantity,
		"invested": invested,
	}
	done := logQuery(ctx, op, query, params)
	defer func() { done(err) }()

	err = p.txOrDb(ctx).QueryRowxContext(ctx, query, userID, assetID, quantity, invested).Scan(&totalQuantity, &totalInvested)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23503" { // foreign_key_violation
				return decimal.Zero, decimal.Zero, repository.ErrNotFound
			}
		}
		return decimal.Zero, decimal.Zero, err
	}

	return totalQuantity, totalInvested, nil
}

func (p *Postgres) DeleteHolding(ctx context.Context, userID, assetID int64) (err error) {
	op := "Postgres.DeleteHolding"
	query := `
		DELETE FROM portfolio
		WHERE
			user_id = $1
			AND asset_id = $2
		`
	done := logQuery(ctx, op, query, map[string]any{"userID": userID, "assetID": assetID})
	defer func() { done(err) }()

	res, err := p.txOrDb(ctx).ExecContext(ctx, query, userID, assetID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListUserIDsWithHoldings returns every user that holds at least one asset.
func (p *Postgres) ListUserIDsWithHoldings(ctx context.Context) (userIDs []int64, err error) {
	op := "Postgres.ListUserIDsWithHoldings"
	query := `SELECT DISTINCT user_id FROM portfolio ORDER BY user_id`
	done := logQuery(ctx, op, query, nil)
	defer func() { done(err) }()

	userIDs = make([]int64, 0)
	err = p.txOrDb(ctx).SelectContext(ctx, &userIDs, query)
	if err != nil {
		return nil, err
	}

	return userIDs, nil
}
