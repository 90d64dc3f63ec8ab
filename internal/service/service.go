// Package service implements the item catalog operations on top of a store.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/catalog-api/internal/model"
	"github.com/vyrodovalexey/catalog-api/internal/query"
	"github.com/vyrodovalexey/catalog-api/internal/store"
)

var itemsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "catalog_items_created_total",
		Help: "Total number of items created",
	},
)

// Service reads the collection from its store on every call; it keeps no
// item state between calls.
type Service struct {
	store  store.Store
	logger *zap.Logger
	ids    *IDGenerator

	// writeMu serializes Create when non-nil. Without it concurrent creations
	// race on the store snapshot and the last write wins.
	writeMu *sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithSerializedWrites makes creations on this Service run one at a time.
// It does not protect against other processes writing the same store.
func WithSerializedWrites() Option {
	return func(s *Service) {
		s.writeMu = &sync.Mutex{}
	}
}

// WithIDGenerator replaces the default clock-based id generator.
func WithIDGenerator(g *IDGenerator) Option {
	return func(s *Service) {
		s.ids = g
	}
}

// New creates a Service over the given store.
func New(s store.Store, logger *zap.Logger, opts ...Option) *Service {
	svc := &Service{
		store:  s,
		logger: logger,
		ids:    NewIDGenerator(nil),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// List filters and pages the collection.
func (s *Service) List(ctx context.Context, params query.Params) (query.Result, error) {
	items, err := s.store.Load(ctx)
	if err != nil {
		return query.Result{}, fmt.Errorf("list items: %w", err)
	}

	return query.List(items, params)
}

// Get returns the item whose id equals rawID parsed as an integer.
func (s *Service) Get(ctx context.Context, rawID string) (*model.Item, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil {
		return nil, model.ErrInvalidIDFormat
	}

	items, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}

	return nil, model.ErrItemNotFound
}

// Create validates candidate, assigns it a fresh id, appends it to the
// collection and writes the collection back. Any id in candidate is
// replaced. All other fields are stored verbatim.
func (s *Service) Create(ctx context.Context, candidate map[string]json.RawMessage) (*model.Item, error) {
	if err := validateCandidate(candidate); err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage, len(candidate))
	for k, v := range candidate {
		if k != model.FieldID {
			fields[k] = v
		}
	}
	item, err := model.ItemFromFields(fields)
	if err != nil {
		return nil, model.ErrNameRequired
	}

	if s.writeMu != nil {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
	}

	items, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	item.ID = s.ids.Next(maxID(items))
	items = append(items, item)

	if err := s.store.Save(ctx, items); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	itemsCreatedTotal.Inc()
	s.logger.Info("item created",
		zap.Int64("id", item.ID),
		zap.String("name", item.Name),
		zap.Int("collection_size", len(items)),
	)

	return &item, nil
}

// Stats returns the item count and the mean of all numeric prices.
func (s *Service) Stats(ctx context.Context) (model.Stats, error) {
	items, err := s.store.Load(ctx)
	if err != nil {
		return model.Stats{}, fmt.Errorf("stats: %w", err)
	}

	return Summarize(items), nil
}

// Summarize computes collection statistics. Items without a numeric price
// count toward Total but not toward AveragePrice.
func Summarize(items []model.Item) model.Stats {
	stats := model.Stats{Total: len(items)}

	var sum float64
	var priced int
	for i := range items {
		if price, ok := items[i].Price(); ok {
			sum += price
			priced++
		}
	}
	if priced > 0 {
		stats.AveragePrice = sum / float64(priced)
	}

	return stats
}

// validateCandidate requires a string name with non-whitespace content.
func validateCandidate(candidate map[string]json.RawMessage) error {
	raw, ok := candidate[model.FieldName]
	if !ok {
		return model.ErrNameRequired
	}

	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return model.ErrNameRequired
	}
	if strings.TrimSpace(name) == "" {
		return model.ErrNameRequired
	}

	return nil
}

func maxID(items []model.Item) int64 {
	var highest int64
	for i := range items {
		highest = max(highest, items[i].ID)
	}
	return highest
}
