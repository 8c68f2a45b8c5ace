package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/KotFed0t/finvault_portfolio/data/repository"
	"github.com/KotFed0t/finvault_portfolio/internal/converter/dbConverter"
	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/internal/model/dbModel"
)

func (p *Postgres) GetFxRate(ctx context.Context, base, target string) (rate model.FxRate, err error) {
	op := "Postgres.GetFxRate"
	query := `
		SELECT base_currency, target_currency, rate, updated_at
		FROM fx_rates
		WHERE base_currency = $1
		AND target_currency = $2
		`
	done := logQuery(ctx, op, query, map[string]any{"base": base, "target": target})
	defer func() { done(err) }()

	dbRate := dbModel.FxRate{}
	err = p.txOrDb(ctx).GetContext(ctx, &dbRate, query, base, target)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.FxRate{}, repository.ErrNotFound
		}
		return model.FxRate{}, err
	}

	return dbConverter.ConvertFxRate(dbRate), nil
}

func (p *Postgres) UpsertFxRate(ctx context.Context, rate model.FxRate) (err error) {
	op := "Postgres.UpsertFxRate"
	query := `
		INSERT INTO fx_rates (base_currency, target_currency, rate, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (base_currency, target_currency) DO UPDATE SET
			rate = EXCLUDED.rate,
			updated_at = EXCLUDED.updated_at
		`
	done := logQuery(ctx, op, query, map[string]any{"rate": rate})
	defer func() { done(err) }()

	_, err = p.txOrDb(ctx).ExecContext(ctx, query, rate.BaseCurrency, rate.TargetCurrency, rate.Rate, rate.UpdatedAt)
	return err
}
