package storage

import (
	"context"
	"errors"
	"time"

	"github.com/getatme/platform/libs/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

type Owner struct {
	ID        string
	Email     string
	Status    string // active | disabled
	CreatedAt time.Time
}

func (r *Repository) UpsertOwner(ctx context.Context, tx pgx.Tx, id, email string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO owners (id, email, status)
		VALUES ($1, $2, 'active')
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			status = 'active',
			updated_at = now()
	`, id, email)
	return err
}

func (r *Repository) DisableOwner(ctx context.Context, tx pgx.Tx, id string) error {
	_, err := tx.Exec(ctx, `
		UPDATE owners
		SET status = 'disabled', updated_at = now()
		WHERE id = $1
	`, id)
	return err
}

type Profile struct {
	OwnerID     string
	Handle      string
	DisplayName string
	Bio         string
	Theme       string
	AvatarURL   string
	UpdatedAt   time.Time
}

// GetOrCreateProfile returns the owner's profile, creating an empty one
// on first touch.
func (r *Repository) GetOrCreateProfile(ctx context.Context, ownerID string) (Profile, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (owner_id)
		VALUES ($1)
		ON CONFLICT (owner_id) DO NOTHING
	`, ownerID)
	if err != nil {
		return Profile{}, err
	}
	return r.getProfile(ctx, ownerID)
}

func (r *Repository) getProfile(ctx context.Context, ownerID string) (Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `
		SELECT owner_id, COALESCE(handle, ''), COALESCE(display_name, ''), COALESCE(bio, ''),
			COALESCE(theme, 'default'), COALESCE(avatar_url, ''), updated_at
		FROM profiles
		WHERE owner_id = $1
	`, ownerID).Scan(&p.OwnerID, &p.Handle, &p.DisplayName, &p.Bio, &p.Theme, &p.AvatarURL, &p.UpdatedAt)
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, p Profile) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE profiles
		SET display_name = $2,
			bio = $3,
			theme = $4,
			avatar_url = $5,
			updated_at = now()
		WHERE owner_id = $1
	`, p.OwnerID, p.DisplayName, p.Bio, p.Theme, nullIfEmpty(p.AvatarURL))
	return err
}

// ClaimHandle assigns a handle to the owner. The unique index on
// profiles.handle makes a taken handle a conflict.
func (r *Repository) ClaimHandle(ctx context.Context, ownerID, handle string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE profiles
		SET handle = $2, updated_at = now()
		WHERE owner_id = $1
	`, ownerID, handle)
	return err
}

// GetOwnerByHandle resolves a public handle to its active owner.
func (r *Repository) GetOwnerByHandle(ctx context.Context, handle string) (Owner, Profile, error) {
	var o Owner
	var p Profile
	err := r.pool.QueryRow(ctx, `
		SELECT o.id, o.email, o.status, o.created_at,
			p.owner_id, COALESCE(p.handle, ''), COALESCE(p.display_name, ''), COALESCE(p.bio, ''),
			COALESCE(p.theme, 'default'), COALESCE(p.avatar_url, ''), p.updated_at
		FROM profiles p
		JOIN owners o ON o.id = p.owner_id
		WHERE p.handle = $1
	`, handle).Scan(
		&o.ID, &o.Email, &o.Status, &o.CreatedAt,
		&p.OwnerID, &p.Handle, &p.DisplayName, &p.Bio, &p.Theme, &p.AvatarURL, &p.UpdatedAt,
	)
	if err != nil {
		return Owner{}, Profile{}, err
	}
	return o, p, nil
}

type Link struct {
	ID        string
	OwnerID   string
	Title     string
	URL       string
	Position  int
	CreatedAt time.Time
}

func (r *Repository) CountLinks(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM links WHERE owner_id = $1
	`, ownerID).Scan(&n)
	return n, err
}

func (r *Repository) CreateLink(ctx context.Context, l Link) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO links (id, owner_id, title, url, position)
		VALUES ($1, $2, $3, $4, (SELECT COALESCE(MAX(position), -1) + 1 FROM links WHERE owner_id = $2))
	`, id, l.OwnerID, l.Title, l.URL)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) UpdateLink(ctx context.Context, l Link) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE links
		SET title = $3, url = $4
		WHERE id = $1 AND owner_id = $2
	`, l.ID, l.OwnerID, l.Title, l.URL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) DeleteLink(ctx context.Context, ownerID, linkID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM links WHERE id = $1 AND owner_id = $2
	`, linkID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) ListLinks(ctx context.Context, ownerID string) ([]Link, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, title, url, position, created_at
		FROM links
		WHERE owner_id = $1
		ORDER BY position ASC, created_at ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.Title, &l.URL, &l.Position, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ReorderLinks rewrites positions to match the given id order. Ids not
// owned by the caller are ignored by the WHERE clause.
func (r *Repository) ReorderLinks(ctx context.Context, tx pgx.Tx, ownerID string, ids []string) error {
	for pos, id := range ids {
		if _, err := tx.Exec(ctx, `
			UPDATE links SET position = $3 WHERE id = $1 AND owner_id = $2
		`, id, ownerID, pos); err != nil {
			return err
		}
	}
	return nil
}

type Post struct {
	ID        string
	OwnerID   string
	Body      string
	CreatedAt time.Time
}

func (r *Repository) CreatePost(ctx context.Context, p Post) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO posts (id, owner_id, body)
		VALUES ($1, $2, $3)
	`, id, p.OwnerID, p.Body)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) DeletePost(ctx context.Context, ownerID, postID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM posts WHERE id = $1 AND owner_id = $2
	`, postID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) ListPosts(ctx context.Context, ownerID string, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, body, created_at
		FROM posts
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Body, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

type OwnerEntitlements struct {
	OwnerID        string
	Tier           string
	BookingEnabled bool
	MaxLinks       int
}

func (r *Repository) GetEntitlements(ctx context.Context, ownerID string) (OwnerEntitlements, bool, error) {
	var ent OwnerEntitlements
	err := r.pool.QueryRow(ctx, `
		SELECT owner_id, tier, booking_enabled, max_links
		FROM owner_entitlements
		WHERE owner_id = $1
	`, ownerID).Scan(&ent.OwnerID, &ent.Tier, &ent.BookingEnabled, &ent.MaxLinks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OwnerEntitlements{}, false, nil
		}
		return OwnerEntitlements{}, false, err
	}
	return ent, true, nil
}

func (r *Repository) UpsertEntitlements(ctx context.Context, tx pgx.Tx, ent OwnerEntitlements) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO owner_entitlements (owner_id, tier, booking_enabled, max_links)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id) DO UPDATE SET
			tier = EXCLUDED.tier,
			booking_enabled = EXCLUDED.booking_enabled,
			max_links = EXCLUDED.max_links,
			updated_at = now()
	`, ent.OwnerID, ent.Tier, ent.BookingEnabled, ent.MaxLinks)
	return err
}

type ProviderEvent struct {
	Provider        string
	ProviderEventID string
	EventType       string
	Payload         []byte
}

var ErrDuplicateProviderEvent = errors.New("duplicate provider event")

func (r *Repository) InsertProviderEvent(ctx context.Context, tx pgx.Tx, evt ProviderEvent) error {
	tag, err := tx.Exec(ctx, `
		INSERT INTO provider_events (provider, provider_event_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider, provider_event_id) DO NOTHING
	`, evt.Provider, evt.ProviderEventID, evt.EventType, evt.Payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateProviderEvent
	}
	return nil
}

func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
