// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package alerting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// ErrAlertNotFound is returned when an alert ID does not exist in the store.
var ErrAlertNotFound = errors.New("alert not found")

// Key prefix for BadgerDB storage
const alertKeyPrefix = "alert:"

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	EntityID   string
	Severity   Severity
	Unresolved bool
	Limit      int
}

// BadgerAlertStore persists alerts in BadgerDB. Alerts are append-and-update
// only; resolution marks an alert rather than deleting it, so the audit
// trail survives.
type BadgerAlertStore struct {
	db *badger.DB
}

// NewBadgerAlertStore creates a BadgerDB-backed alert store.
func NewBadgerAlertStore(db *badger.DB) *BadgerAlertStore {
	return &BadgerAlertStore{db: db}
}

// Save persists an alert by ID.
func (s *BadgerAlertStore) Save(ctx context.Context, alert *Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(alertKeyPrefix+alert.ID), data)
	})
}

// Get retrieves an alert by ID.
func (s *BadgerAlertStore) Get(ctx context.Context, id string) (*Alert, error) {
	var alert Alert
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(alertKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrAlertNotFound
		}
		if err != nil {
			return fmt.Errorf("get alert: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &alert)
		})
	})
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// List returns alerts matching the filter, newest first.
func (s *BadgerAlertStore) List(ctx context.Context, filter ListFilter) ([]*Alert, error) {
	var alerts []*Alert
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(alertKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var alert Alert
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &alert)
			}); err != nil {
				return fmt.Errorf("decode alert: %w", err)
			}
			if filter.EntityID != "" && alert.EntityID != filter.EntityID {
				continue
			}
			if filter.Severity != "" && alert.Severity != filter.Severity {
				continue
			}
			if filter.Unresolved && alert.Resolved {
				continue
			}
			a := alert
			alerts = append(alerts, &a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
	if filter.Limit > 0 && len(alerts) > filter.Limit {
		alerts = alerts[:filter.Limit]
	}
	return alerts, nil
}

// Resolve marks an alert as handled by an operator. Resolving an already
// resolved alert is a no-op that preserves the original resolver.
func (s *BadgerAlertStore) Resolve(ctx context.Context, id, resolvedBy string) (*Alert, error) {
	alert, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Resolved {
		return alert, nil
	}

	now := time.Now().UTC()
	alert.Resolved = true
	alert.ResolvedBy = resolvedBy
	alert.ResolvedAt = &now

	if err := s.Save(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// CountUnresolved returns the number of unresolved alerts.
func (s *BadgerAlertStore) CountUnresolved(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(alertKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var alert Alert
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &alert)
			}); err != nil {
				return fmt.Errorf("decode alert: %w", err)
			}
			if !alert.Resolved {
				count++
			}
		}
		return nil
	})
	return count, err
}
