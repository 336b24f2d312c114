package models

import "testing"

func TestTableNames(t *testing.T) {
	if got := (UIStateEntry{}).TableName(); got != "ui_state_entries" {
		t.Fatalf("unexpected ui state table %q", got)
	}
	if got := (StateMeta{}).TableName(); got != "state_meta" {
		t.Fatalf("unexpected meta table %q", got)
	}
}
