package listings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/rentals/internal/common"
	"github.com/dmitrijs2005/rentals/internal/dbx"
	"github.com/dmitrijs2005/rentals/internal/server/models"
	"github.com/dmitrijs2005/rentals/internal/server/search"
)

const listingColumns = `id, creator_id, category, street_address, city, province, country,
	guest_count, bedroom_count, bed_count, bathroom_count, amenities, photo_paths,
	title, description, highlight, highlight_desc, price, created_at, updated_at`

// PostgresRepository implements Repository over a dbx.DBTX. Amenities and
// photo paths are stored as jsonb arrays; seq keeps insertion order.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(s rowScanner) (*models.Listing, error) {
	l := &models.Listing{}
	var amenities, photos []byte

	err := s.Scan(&l.ID, &l.CreatorID, &l.Category, &l.StreetAddress, &l.City, &l.Province, &l.Country,
		&l.GuestCount, &l.BedroomCount, &l.BedCount, &l.BathroomCount, &amenities, &photos,
		&l.Title, &l.Description, &l.Highlight, &l.HighlightDesc, &l.Price, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := decodeList(amenities, &l.Amenities); err != nil {
		return nil, fmt.Errorf("amenities: %w", err)
	}
	if err := decodeList(photos, &l.PhotoPaths); err != nil {
		return nil, fmt.Errorf("photo paths: %w", err)
	}

	return l, nil
}

func decodeList(raw []byte, dst *[]string) error {
	*dst = []string{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *PostgresRepository) Create(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	amenities, err := encodeList(l.Amenities)
	if err != nil {
		return nil, fmt.Errorf("encode amenities: %w", err)
	}
	photos, err := encodeList(l.PhotoPaths)
	if err != nil {
		return nil, fmt.Errorf("encode photo paths: %w", err)
	}

	query :=
		`INSERT INTO listings (` + listingColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		 `

	_, err = r.db.ExecContext(ctx, query,
		l.ID, l.CreatorID, l.Category, l.StreetAddress, l.City, l.Province, l.Country,
		l.GuestCount, l.BedroomCount, l.BedCount, l.BathroomCount, amenities, photos,
		l.Title, l.Description, l.Highlight, l.HighlightDesc, l.Price, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return l, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	return getByID(ctx, r.db, id, false)
}

func getByID(ctx context.Context, db dbx.DBTX, id string, forUpdate bool) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	l, err := scanListing(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

func (r *PostgresRepository) Find(ctx context.Context, c search.Criteria) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings`

	where, args := c.SQL(1)
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Update locks the row, applies mutate and writes every column back. When
// the repository was built over a *sql.Tx the caller owns the transaction.
func (r *PostgresRepository) Update(ctx context.Context, id string, mutate MutateFunc) (*models.Listing, error) {
	var updated *models.Listing

	apply := func(ctx context.Context, tx dbx.DBTX) error {
		l, err := getByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := mutate(l); err != nil {
			return err
		}
		if err := update(ctx, tx, l); err != nil {
			return err
		}
		updated = l
		return nil
	}

	var err error
	if b, ok := r.db.(dbx.TxBeginner); ok {
		err = dbx.WithTx(ctx, b, nil, apply)
	} else {
		err = apply(ctx, r.db)
	}
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func update(ctx context.Context, db dbx.DBTX, l *models.Listing) error {
	amenities, err := encodeList(l.Amenities)
	if err != nil {
		return fmt.Errorf("encode amenities: %w", err)
	}
	photos, err := encodeList(l.PhotoPaths)
	if err != nil {
		return fmt.Errorf("encode photo paths: %w", err)
	}

	query :=
		`UPDATE listings SET category = $2, street_address = $3, city = $4, province = $5, country = $6,
		 guest_count = $7, bedroom_count = $8, bed_count = $9, bathroom_count = $10,
		 amenities = $11, photo_paths = $12, title = $13, description = $14,
		 highlight = $15, highlight_desc = $16, price = $17, updated_at = $18
		 WHERE id = $1
		 `

	res, err := db.ExecContext(ctx, query,
		l.ID, l.Category, l.StreetAddress, l.City, l.Province, l.Country,
		l.GuestCount, l.BedroomCount, l.BedCount, l.BathroomCount,
		amenities, photos, l.Title, l.Description,
		l.Highlight, l.HighlightDesc, l.Price, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
