package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/floret-storefront/pkg/db"
	"github.com/angelmondragon/floret-storefront/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DurableTier keeps records in postgres so a session survives the loss of
// the session tier. Rows are keyed by the token digest.
type DurableTier struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDurableTier(client *db.Client) (*DurableTier, error) {
	if client == nil || client.DB() == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &DurableTier{db: client.DB(), now: time.Now}, nil
}

// Save upserts the row for digest.
func (t *DurableTier) Save(ctx context.Context, digest string, rec Record, expiresAt time.Time) error {
	row := models.UserSession{
		TokenDigest: digest,
		UserID:      rec.UserID,
		Email:       rec.Email,
		Name:        rec.Name,
		SessionID:   rec.SessionID,
		LastUpdated: rec.LastUpdated.UTC(),
	}
	if !expiresAt.IsZero() {
		exp := expiresAt.UTC()
		row.ExpiresAt = &exp
	}
	return t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token_digest"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "email", "name", "session_id", "last_updated", "expires_at", "updated_at"}),
	}).Create(&row).Error
}

// Load returns nil without error when no live row exists for digest.
func (t *DurableTier) Load(ctx context.Context, digest string) (*Record, error) {
	var row models.UserSession
	err := t.db.WithContext(ctx).
		Where("token_digest = ?", digest).
		Where("expires_at IS NULL OR expires_at > ?", t.now().UTC()).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &Record{
		UserID:      row.UserID,
		Email:       row.Email,
		Name:        row.Name,
		SessionID:   row.SessionID,
		TokenDigest: row.TokenDigest,
		LastUpdated: row.LastUpdated,
	}, nil
}

func (t *DurableTier) Delete(ctx context.Context, digest string) error {
	return t.db.WithContext(ctx).Where("token_digest = ?", digest).Delete(&models.UserSession{}).Error
}

func (t *DurableTier) DeleteBySession(ctx context.Context, sessionID string) error {
	return t.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.UserSession{}).Error
}

// PurgeExpired removes rows whose expiry has passed and reports how many.
func (t *DurableTier) PurgeExpired(ctx context.Context) (int64, error) {
	res := t.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", t.now().UTC()).
		Delete(&models.UserSession{})
	return res.RowsAffected, res.Error
}
