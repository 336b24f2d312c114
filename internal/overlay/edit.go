package overlay

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/rasconsole/internal/uistate"
)

// MaskedPassword is shown in the password field when a password is on record. It is a
// display placeholder and is never stored.
const MaskedPassword = "••••••••"

// EditSession tracks one credential edit form.
type EditSession struct {
	key         uistate.CredentialKey
	admin       string
	field       string
	touched     bool
	hadPassword bool
}

// BeginEdit opens an edit session prefilled from the stored record.
func (o *Overlay) BeginEdit(ctx context.Context, connectionID int64, clusterUUID string) *EditSession {
	record := o.store.Credential(ctx, connectionID, clusterUUID)
	session := &EditSession{
		key:         uistate.CredentialKey{ConnectionID: connectionID, ClusterUUID: clusterUUID},
		admin:       record.Admin,
		hadPassword: record.Password != "",
	}
	if session.hadPassword {
		session.field = MaskedPassword
	}
	return session
}

// Key returns the record key being edited.
func (e *EditSession) Key() uistate.CredentialKey { return e.key }

// Admin returns the admin login currently in the form.
func (e *EditSession) Admin() string { return e.admin }

// PasswordField returns what the password input displays.
func (e *EditSession) PasswordField() string { return e.field }

// Touched reports whether the password input was edited.
func (e *EditSession) Touched() bool { return e.touched }

// SetAdmin updates the admin login.
func (e *EditSession) SetAdmin(admin string) { e.admin = admin }

// SetPassword records an edit of the password input.
func (e *EditSession) SetPassword(value string) {
	e.field = value
	e.touched = true
}

// ResolvePassword applies the save policy for the password input:
//  1. masked placeholder left alone: keep the stored password
//  2. new literal value: store it verbatim
//  3. emptied by the user: clear the stored password
//  4. empty and never touched: keep whatever was stored (nothing, in practice)
//
// The placeholder itself is never returned as a password.
func ResolvePassword(field string, touched bool, existing string) string {
	switch {
	case field == MaskedPassword:
		return existing
	case field != "":
		return field
	case touched:
		return ""
	default:
		return existing
	}
}

// Save resolves the form against the stored record and replaces it.
func (o *Overlay) Save(ctx context.Context, session *EditSession) (uistate.CredentialRecord, error) {
	if session == nil {
		return uistate.CredentialRecord{}, fmt.Errorf("overlay: save: nil edit session")
	}
	existing := o.store.Credential(ctx, session.key.ConnectionID, session.key.ClusterUUID)

	record := uistate.CredentialRecord{
		Admin:    strings.TrimSpace(session.admin),
		Password: ResolvePassword(session.field, session.touched, existing.Password),
	}
	if err := o.store.SetCredential(ctx, session.key.ConnectionID, session.key.ClusterUUID, record); err != nil {
		return uistate.CredentialRecord{}, err
	}

	o.log.Info("cluster credentials saved",
		zap.Int64("connection_id", session.key.ConnectionID),
		zap.String("cluster", session.key.ClusterUUID),
		zap.Bool("has_password", record.Password != ""))
	return record, nil
}

// SaveAndRefresh saves the record and only then runs refresh, so the dependent fetch is
// built from the new credentials.
func (o *Overlay) SaveAndRefresh(ctx context.Context, session *EditSession, refresh func(context.Context) error) (uistate.CredentialRecord, error) {
	record, err := o.Save(ctx, session)
	if err != nil {
		return record, err
	}
	if refresh != nil {
		if err := refresh(ctx); err != nil {
			return record, err
		}
	}
	return record, nil
}

// Clear removes the stored record.
func (o *Overlay) Clear(ctx context.Context, connectionID int64, clusterUUID string) error {
	if err := o.store.ClearCredential(ctx, connectionID, clusterUUID); err != nil {
		return err
	}
	o.log.Info("cluster credentials cleared",
		zap.Int64("connection_id", connectionID), zap.String("cluster", clusterUUID))
	return nil
}
