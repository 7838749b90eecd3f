package storage

import (
	"errors"
	"fmt"
	"slices"
)

// FormKeys are the durable keys holding an in-progress entry, one per field.
var FormKeys = []string{
	"matchNumber",
	"scoutedTeamNumber",
	"allianceColor",
	"leaveValue",
	"leftCounter",
	"rightCounter",
	"leftBumpCounter",
	"rightBumpCounter",
	"accuracyValue",
	"estimateSizeAuto",
	"leaveValueTeleop",
	"accuracyValueTeleop",
	"cycles",
	"estimateSize",
}

var ErrUnknownField = errors.New("unknown form field")

// FormDraft lets an interrupted entry be resumed after a reload.
type FormDraft struct {
	store Store
}

func NewFormDraft(s Store) *FormDraft {
	return &FormDraft{store: s}
}

func (f *FormDraft) Save(field, value string) error {
	if !slices.Contains(FormKeys, field) {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return SetString(f.store, field, value)
}

func (f *FormDraft) Get(field, def string) string {
	return GetString(f.store, field, def)
}

// All returns every field that currently has a saved value.
func (f *FormDraft) All() map[string]string {
	fields := make(map[string]string)
	for _, key := range FormKeys {
		if v, ok, err := f.store.Get(key); err == nil && ok {
			fields[key] = v
		}
	}
	return fields
}

// Clear removes the draft after a successful save.
func (f *FormDraft) Clear() {
	for _, key := range FormKeys {
		Remove(f.store, key)
	}
}
