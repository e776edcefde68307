package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"storefront-service/internal/domain"
)

// --- CartStorer Implementation ---

// GetCart returns the raw cart blob for a user. A user without a cart row
// gets an empty cart, not an error. Callers must reconcile the result
// before trusting it.
func (s *PostgresStore) GetCart(ctx context.Context, userID string) (domain.RawCart, error) {
	query := `SELECT data FROM storefront.carts WHERE user_id = $1;`
	var blob []byte
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RawCart{}, nil
		}
		return nil, fmt.Errorf("store: GetCart failed to scan row: %w", err)
	}

	var raw domain.RawCart
	if err := json.Unmarshal(blob, &raw); err != nil {
		// A corrupt blob is treated as an empty cart; the reconciler would
		// strip it anyway and the next save overwrites it.
		return domain.RawCart{}, nil
	}
	if raw == nil {
		raw = domain.RawCart{}
	}
	return raw, nil
}

func (s *PostgresStore) SaveCart(ctx context.Context, userID string, cart domain.CartData) error {
	blob, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("store: SaveCart failed to marshal cart: %w", err)
	}
	query := `
		INSERT INTO storefront.carts (user_id, data, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = CURRENT_TIMESTAMP;
	`
	if _, err := s.db.ExecContext(ctx, query, userID, blob); err != nil {
		return fmt.Errorf("store: SaveCart failed to upsert cart: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClearCart(ctx context.Context, userID string) error {
	query := `
		INSERT INTO storefront.carts (user_id, data, updated_at)
		VALUES ($1, '{}'::jsonb, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET data = '{}'::jsonb, updated_at = CURRENT_TIMESTAMP;
	`
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("store: ClearCart failed to reset cart: %w", err)
	}
	return nil
}

// --- InquiryStorer Implementation ---

func (s *PostgresStore) CreateInquiry(ctx context.Context, inq *domain.Inquiry) (*domain.Inquiry, error) {
	lines, err := json.Marshal(inq.Lines)
	if err != nil {
		return nil, fmt.Errorf("store: CreateInquiry failed to marshal lines: %w", err)
	}

	id := inq.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := inq.Status
	if status == "" {
		status = domain.InquiryPending
	}
	emailStatus := inq.EmailStatus
	if emailStatus == "" {
		emailStatus = domain.EmailPending
	}

	query := `
		INSERT INTO storefront.inquiries
			(id, user_id, user_email, user_name, user_phone, products, message, status, email_status, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, user_id, user_email, user_name, user_phone, products, message, status, email_status, total_amount, created_at, updated_at;
	`
	created, err := scanInquiry(s.db.QueryRowContext(ctx, query,
		id, inq.UserID, inq.UserEmail, inq.UserName, inq.UserPhone,
		lines, inq.Message, status, emailStatus, inq.TotalAmount,
	))
	if err != nil {
		return nil, fmt.Errorf("store: CreateInquiry failed to scan row: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetInquiryByID(ctx context.Context, id string) (*domain.Inquiry, error) {
	query := `
		SELECT id, user_id, user_email, user_name, user_phone, products, message, status, email_status, total_amount, created_at, updated_at
		FROM storefront.inquiries
		WHERE id = $1;
	`
	inq, err := scanInquiry(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInquiryNotFound
		}
		return nil, fmt.Errorf("store: GetInquiryByID failed to scan row: %w", err)
	}
	return inq, nil
}

func (s *PostgresStore) ListInquiries(ctx context.Context, params ListInquiriesParams) ([]domain.Inquiry, int, error) {
	var queryArgs []any
	whereCondition := ""
	if params.UserID != nil {
		whereCondition = " WHERE user_id = $1"
		queryArgs = append(queryArgs, *params.UserID)
	}

	countQuery := "SELECT COUNT(*) FROM storefront.inquiries" + whereCondition
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery, queryArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: ListInquiries failed to count inquiries: %w", err)
	}
	if totalCount == 0 {
		return []domain.Inquiry{}, 0, nil
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`
		SELECT id, user_id, user_email, user_name, user_phone, products, message, status, email_status, total_amount, created_at, updated_at
		FROM storefront.inquiries%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d;
	`, whereCondition, len(queryArgs)+1, len(queryArgs)+2)
	queryArgs = append(queryArgs, limit, params.Offset)

	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: ListInquiries failed to query inquiries: %w", err)
	}
	defer rows.Close()

	inquiries := make([]domain.Inquiry, 0, limit)
	for rows.Next() {
		inq, err := scanInquiry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("store: ListInquiries failed to scan inquiry row: %w", err)
		}
		inquiries = append(inquiries, *inq)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: ListInquiries iteration error: %w", err)
	}
	return inquiries, totalCount, nil
}

func (s *PostgresStore) UpdateInquiryStatus(ctx context.Context, id string, status domain.InquiryStatus) error {
	query := `
		UPDATE storefront.inquiries
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2;
	`
	result, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("store: UpdateInquiryStatus failed to execute update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: UpdateInquiryStatus failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrInquiryNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateInquiryEmailStatus(ctx context.Context, id string, status domain.EmailStatus) error {
	query := `
		UPDATE storefront.inquiries
		SET email_status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2;
	`
	result, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("store: UpdateInquiryEmailStatus failed to execute update: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: UpdateInquiryEmailStatus failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrInquiryNotFound
	}
	return nil
}

func scanInquiry(row rowScanner) (*domain.Inquiry, error) {
	var inq domain.Inquiry
	var userID sql.NullString
	var lines []byte

	err := row.Scan(
		&inq.ID, &userID, &inq.UserEmail, &inq.UserName, &inq.UserPhone,
		&lines, &inq.Message, &inq.Status, &inq.EmailStatus, &inq.TotalAmount,
		&inq.CreatedAt, &inq.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		inq.UserID = &userID.String
	}
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &inq.Lines); err != nil {
			return nil, fmt.Errorf("store: decoding inquiry lines: %w", err)
		}
	}
	return &inq, nil
}
