package uistate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/rasconsole/internal/models"
	"github.com/charlesng35/rasconsole/pkg/crypto"
)

const (
	saltMetaName = "credential_salt"
	saltLength   = 16
)

// LoadSealer builds the password sealer for the state database, creating the per-database
// salt on first use. An empty passphrase disables encryption.
func LoadSealer(ctx context.Context, db *gorm.DB, passphrase string) (*crypto.Sealer, error) {
	if strings.TrimSpace(passphrase) == "" {
		return crypto.NewSealer("", nil)
	}
	if db == nil {
		return nil, errors.New("uistate: load sealer: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	salt, err := loadOrCreateSalt(ctx, db)
	if err != nil {
		return nil, err
	}
	return crypto.NewSealer(passphrase, salt)
}

func loadOrCreateSalt(ctx context.Context, db *gorm.DB) ([]byte, error) {
	var meta models.StateMeta
	err := db.WithContext(ctx).Take(&meta, "name = ?", saltMetaName).Error
	if err == nil {
		return checkSalt(meta.Value)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("uistate: load salt: %w", err)
	}

	salt, err := crypto.GenerateSalt(saltLength)
	if err != nil {
		return nil, fmt.Errorf("uistate: generate salt: %w", err)
	}
	meta = models.StateMeta{Name: saltMetaName, Value: salt}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&meta).Error; err != nil {
		return nil, fmt.Errorf("uistate: store salt: %w", err)
	}

	// another process may have won the insert race
	if err := db.WithContext(ctx).Take(&meta, "name = ?", saltMetaName).Error; err != nil {
		return nil, fmt.Errorf("uistate: reload salt: %w", err)
	}
	return checkSalt(meta.Value)
}

// checkSalt rejects a stored salt that is too short. Replacing it would silently change the
// key every sealed password was written with.
func checkSalt(salt []byte) ([]byte, error) {
	if len(salt) < saltLength {
		return nil, fmt.Errorf("uistate: stored credential salt is %d bytes, want at least %d", len(salt), saltLength)
	}
	return salt, nil
}
