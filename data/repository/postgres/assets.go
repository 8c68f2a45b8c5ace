package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/KotFed0t/finvault_portfolio/data/repository"
	"github.com/KotFed0t/finvault_portfolio/internal/converter/dbConverter"
	"github.com/KotFed0t/finvault_portfolio/internal/model"
	"github.com/KotFed0t/finvault_portfolio/internal/model/dbModel"
)

const (
	upsertAssetsChunkSize = 200
	assetColumnsCount     = 14
)

const assetColumns = `id, cmc_id, rank, symbol, name, slug, type, is_active, platform, logo_url,
	price, percent_change_24h, display_price, display_currency, price_updated_at`

// UpsertAssets writes catalog rows keyed on cmc_id in one transaction.
// The type column is fixed at first insert, nil logo/platform/display price keep the stored values.
func (p *Postgres) UpsertAssets(ctx context.Context, assets []model.Asset) (err error) {
	op := "Postgres.UpsertAssets"
	done := logQuery(ctx, op, "", map[string]any{"count": len(assets)})
	defer func() { done(err) }()

	assets = dedupeByCmcID(assets)
	if len(assets) == 0 {
		return nil
	}

	return p.WithinTransaction(ctx, func(ctx context.Context) error {
		for start := 0; start < len(assets); start += upsertAssetsChunkSize {
			end := min(start+upsertAssetsChunkSize, len(assets))
			if err := p.upsertAssetsChunk(ctx, assets[start:end]); err != nil {
				return fmt.Errorf("upsert chunk %d-%d: %w", start, end, err)
			}
		}
		return nil
	})
}

func (p *Postgres) upsertAssetsChunk(ctx context.Context, assets []model.Asset) error {
	sb := strings.Builder{}
	args := make([]any, 0, len(assets)*assetColumnsCount)

	sb.WriteString(`INSERT INTO assets (cmc_id, rank, symbol, name, slug, type, is_active, platform, logo_url,
		price, percent_change_24h, display_price, display_currency, price_updated_at) VALUES `)

	for i, asset := range assets {
		platform, err := marshalPlatform(asset.Platform)
		if err != nil {
			return err
		}

		args = append(args,
			asset.CmcID,
			asset.Rank,
			asset.Symbol,
			asset.Name,
			asset.Slug,
			string(asset.Type),
			asset.IsActive,
			platform,
			nullString(asset.LogoURL),
			asset.Price,
			asset.PercentChange24h,
			asset.DisplayPrice,
			nullString(asset.DisplayCurrency),
			asset.PriceUpdatedAt,
		)

		sb.WriteString("(")
		for col := 0; col < assetColumnsCount; col++ {
			if col > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("$%d", i*assetColumnsCount+col+1))
		}
		sb.WriteString(")")

		if i < len(assets)-1 {
			sb.WriteString(",")
		}
	}

	sb.WriteString(`
		ON CONFLICT (cmc_id) DO UPDATE SET
			rank = EXCLUDED.rank,
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			is_active = EXCLUDED.is_active,
			platform = COALESCE(EXCLUDED.platform, assets.platform),
			logo_url = COALESCE(EXCLUDED.logo_url, assets.logo_url),
			price = EXCLUDED.price,
			percent_change_24h = EXCLUDED.percent_change_24h,
			display_price = COALESCE(EXCLUDED.display_price, assets.display_price),
			display_currency = COALESCE(EXCLUDED.display_currency, assets.display_currency),
			price_updated_at = EXCLUDED.price_updated_at,
			dt_update = now()
	`)

	_, err := p.txOrDb(ctx).ExecContext(ctx, sb.String(), args...)
	return err
}

func (p *Postgres) GetAssetByID(ctx context.Context, assetID int64) (asset model.Asset, err error) {
	op := "Postgres.GetAssetByID"
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`
	done := logQuery(ctx, op, query, map[string]any{"assetID": assetID})
	defer func() { done(err) }()

	dbAsset := dbModel.Asset{}
	err = p.txOrDb(ctx).GetContext(ctx, &dbAsset, query, assetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Asset{}, repository.ErrNotFound
		}
		return model.Asset{}, err
	}

	return dbConverter.ConvertAsset(dbAsset), nil
}

// ListSymbols returns upper(symbol) -> asset id for active assets of the type.
// When several assets share a symbol the best ranked one wins.
func (p *Postgres) ListSymbols(ctx context.Context, assetType model.AssetType) (symbols map[string]int64, err error) {
	op := "Postgres.ListSymbols"
	query := `
		SELECT id, upper(symbol) AS symbol
		FROM assets
		WHERE type = $1
		AND is_active
		ORDER BY rank NULLS LAST, id
		`
	done := logQuery(ctx, op, query, map[string]any{"type": assetType})
	defer func() { done(err) }()

	rows, err := p.txOrDb(ctx).QueryxContext(ctx, query, string(assetType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	symbols = make(map[string]int64)
	for rows.Next() {
		var (
			id     int64
			symbol string
		)
		if err = rows.Scan(&id, &symbol); err != nil {
			return nil, err
		}
		if _, ok := symbols[symbol]; !ok {
			symbols[symbol] = id
		}
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return symbols, nil
}

func (p *Postgres) SearchAssets(ctx context.Context, search string, limit, offset int) (assets []model.Asset, hasNextPage bool, err error) {
	query := `
		SELECT ` + assetColumns + `
		FROM assets
		WHERE symbol ILIKE $1 ESCAPE '\' OR name ILIKE $1 ESCAPE '\' OR slug ILIKE $1 ESCAPE '\'
		ORDER BY rank ASC NULLS LAST, id
		LIMIT $2
		OFFSET $3
		`
	pattern := "%" + escapeLike(search) + "%"
	return p.selectAssetsPage(ctx, "Postgres.SearchAssets", query, limit, offset, pattern)
}

func (p *Postgres) ListAssets(ctx context.Context, limit, offset int) (assets []model.Asset, hasNextPage bool, err error) {
	query := `
		SELECT ` + assetColumns + `
		FROM assets
		ORDER BY rank ASC NULLS LAST, id
		LIMIT $1
		OFFSET $2
		`
	return p.selectAssetsPage(ctx, "Postgres.ListAssets", query, limit, offset)
}

// selectAssetsPage appends limit+1 and offset to args, the extra row only signals the next page.
func (p *Postgres) selectAssetsPage(ctx context.Context, op, query string, limit, offset int, args ...any) (assets []model.Asset, hasNextPage bool, err error) {
	done := logQuery(ctx, op, query, map[string]any{"args": args, "limit": limit, "offset": offset})
	defer func() { done(err) }()

	args = append(args, limit+1, offset)
	rows, err := p.txOrDb(ctx).QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	assets = make([]model.Asset, 0, limit)
	for rows.Next() {
		var dbAsset dbModel.Asset
		if err = rows.StructScan(&dbAsset); err != nil {
			return nil, false, err
		}
		assets = append(assets, dbConverter.ConvertAsset(dbAsset))
	}

	if err = rows.Err(); err != nil {
		return nil, false, err
	}

	if len(assets) > limit {
		return assets[:limit], true, nil
	}

	return assets, false, nil
}

func dedupeByCmcID(assets []model.Asset) []model.Asset {
	seen := make(map[int64]struct{}, len(assets))
	res := make([]model.Asset, 0, len(assets))
	for _, asset := range assets {
		if _, ok := seen[asset.CmcID]; ok {
			continue
		}
		seen[asset.CmcID] = struct{}{}
		res = append(res, asset)
	}
	return res
}

func marshalPlatform(platform *model.AssetPlatform) (*string, error) {
	if platform == nil {
		return nil, nil
	}
	raw, err := json.Marshal(platform)
	if err != nil {
		return nil, fmt.Errorf("marshal platform: %w", err)
	}
	s := string(raw)
	return &s, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeReplacer.Replace(s)
}
