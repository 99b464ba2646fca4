package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/storage"
	"github.com/Alturino/storefront/internal/validate"
)

var (
	ErrLineNotFound = fmt.Errorf("cart line %w", inErrors.ErrNotFound)
	errNotArray     = errors.New("stored cart is not an array")
)

// Store owns one session's cart. Every mutation rewrites the whole cart to
// storage and then notifies subscribers with the new snapshot.
type Store struct {
	mu          sync.RWMutex
	storage     storage.Storage
	lines       []Line
	subscribers map[int]func(response.Cart)
	nextSubID   int
}

// New rehydrates the cart from storage. Anything stored under the cart key
// that is not a JSON array of lines is removed and the cart starts empty.
func New(c context.Context, s storage.Storage) *Store {
	c, span := otel.Tracer.Start(c, "cart New")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "cart New").
		Str(log.KeyStorageKey, storage.KeyCart).
		Str(log.KeyProcess, "rehydrating cart").
		Logger()

	store := &Store{storage: s, lines: []Line{}, subscribers: map[int]func(response.Cart){}}

	logger.Debug().Msg("rehydrating cart")
	raw, err := s.Get(c, storage.KeyCart)
	if errors.Is(err, storage.ErrNotFound) {
		logger.Debug().Msg("no stored cart, starting empty")
		return store
	}
	if err != nil {
		err = fmt.Errorf("failed getting stored cart with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return store
	}

	lines, err := decodeLines(raw)
	if err != nil {
		err = fmt.Errorf("failed decoding stored cart with error=%w", err)
		otel.RecordError(err, span)
		logger.Warn().Err(err).Msg("discarding corrupted cart")
		if err := s.Remove(c, storage.KeyCart); err != nil {
			logger.Error().Err(err).Msgf("failed removing corrupted cart with error=%s", err.Error())
		}
		return store
	}
	store.lines = lines
	logger.Debug().Int(log.KeyCartItems, len(lines)).Msg("rehydrated cart")

	return store
}

func decodeLines(raw []byte) ([]Line, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errNotArray
	}
	lines := []Line{}
	if err := json.Unmarshal(trimmed, &lines); err != nil {
		return nil, err
	}
	return normalize(lines), nil
}

// normalize merges lines sharing a product id and drops lines without an id
// or a positive quantity, so a loaded cart holds the same invariants as one
// built through AddToCart.
func normalize(lines []Line) []Line {
	normalized := make([]Line, 0, len(lines))
	index := map[string]int{}
	for _, line := range lines {
		if line.Product.ID == "" || line.Quantity <= 0 {
			continue
		}
		if i, ok := index[line.Product.ID]; ok {
			normalized[i].Quantity = min(normalized[i].Quantity+min(line.Quantity, request.MaxQuantity), request.MaxQuantity)
			continue
		}
		line.Quantity = min(line.Quantity, request.MaxQuantity)
		index[line.Product.ID] = len(normalized)
		normalized = append(normalized, line)
	}
	return normalized
}

func errTooMany() error {
	return inErrors.Validation(fmt.Sprintf("A cart line can hold at most %d units.", request.MaxQuantity), nil)
}

func (s *Store) AddToCart(c context.Context, product request.Product, quantity int) error {
	c, span := otel.Tracer.Start(c, "Store AddToCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Store AddToCart").
		Str(log.KeyProductID, product.ID).
		Int(log.KeyQuantity, quantity).
		Str(log.KeyProcess, "validating item").
		Logger()

	logger.Trace().Msg("validating item")
	if err := validate.Struct(request.AddItem{Product: product, Quantity: quantity}); err != nil {
		err = fmt.Errorf("failed validating item with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("validated item")

	logger = logger.With().Str(log.KeyProcess, "adding item").Logger()
	logger.Trace().Msg("adding item")
	s.mu.Lock()
	merged := false
	if i := s.indexLocked(product.ID); i >= 0 {
		if s.lines[i].Quantity+quantity > request.MaxQuantity {
			s.mu.Unlock()
			err := fmt.Errorf("failed adding item with error=%w", errTooMany())
			otel.RecordError(err, span)
			logger.Error().Err(err).Int(log.KeyCartTotalItems, s.lines[i].Quantity).Msg(err.Error())
			return err
		}
		s.lines[i].Quantity += quantity
		merged = true
	}
	if !merged {
		s.lines = append(s.lines, Line{Product: product, Quantity: quantity})
	}
	snapshot := s.snapshotLocked()
	s.persistLocked(logger.WithContext(c))
	s.mu.Unlock()
	logger.Debug().Bool("merged", merged).Msg("added item")

	s.notify(snapshot)
	return nil
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero
// or less removes the line.
func (s *Store) UpdateQuantity(c context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveFromCart(c, productID)
	}

	c, span := otel.Tracer.Start(c, "Store UpdateQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Store UpdateQuantity").
		Str(log.KeyProductID, productID).
		Int(log.KeyQuantity, quantity).
		Str(log.KeyProcess, "updating quantity").
		Logger()

	if quantity > request.MaxQuantity {
		err := fmt.Errorf("failed updating quantity with error=%w", errTooMany())
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger.Trace().Msg("updating quantity")
	s.mu.Lock()
	i := s.indexLocked(productID)
	if i < 0 {
		s.mu.Unlock()
		err := fmt.Errorf("failed updating quantity with error=%w", ErrLineNotFound)
		otel.RecordError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
		return err
	}
	s.lines[i].Quantity = quantity
	snapshot := s.snapshotLocked()
	s.persistLocked(logger.WithContext(c))
	s.mu.Unlock()
	logger.Debug().Msg("updated quantity")

	s.notify(snapshot)
	return nil
}

// RemoveFromCart deletes the line of productID. Removing an absent line
// changes nothing and returns ErrLineNotFound.
func (s *Store) RemoveFromCart(c context.Context, productID string) error {
	c, span := otel.Tracer.Start(c, "Store RemoveFromCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Store RemoveFromCart").
		Str(log.KeyProductID, productID).
		Str(log.KeyProcess, "removing item").
		Logger()

	logger.Trace().Msg("removing item")
	s.mu.Lock()
	i := s.indexLocked(productID)
	if i < 0 {
		s.mu.Unlock()
		err := fmt.Errorf("failed removing item with error=%w", ErrLineNotFound)
		logger.Warn().Err(err).Msg("item not in cart, nothing removed")
		return err
	}
	s.lines = append(s.lines[:i:i], s.lines[i+1:]...)
	snapshot := s.snapshotLocked()
	s.persistLocked(logger.WithContext(c))
	s.mu.Unlock()
	logger.Debug().Msg("removed item")

	s.notify(snapshot)
	return nil
}

func (s *Store) ClearCart(c context.Context) error {
	c, span := otel.Tracer.Start(c, "Store ClearCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Store ClearCart").
		Str(log.KeyProcess, "clearing cart").
		Logger()

	logger.Trace().Msg("clearing cart")
	s.mu.Lock()
	s.lines = []Line{}
	snapshot := s.snapshotLocked()
	s.persistLocked(logger.WithContext(c))
	s.mu.Unlock()
	logger.Debug().Msg("cleared cart")

	s.notify(snapshot)
	return nil
}

// RemoveOrdered subtracts the ordered quantities from the cart, dropping
// lines that reach zero. Lines added or raised after the snapshot was taken
// stay in the cart.
func (s *Store) RemoveOrdered(c context.Context, ordered []response.CartItem) error {
	c, span := otel.Tracer.Start(c, "Store RemoveOrdered")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Store RemoveOrdered").
		Int(log.KeyCartItems, len(ordered)).
		Str(log.KeyProcess, "removing ordered items").
		Logger()

	logger.Trace().Msg("removing ordered items")
	s.mu.Lock()
	for _, item := range ordered {
		i := s.indexLocked(item.Product.ID)
		if i < 0 {
			continue
		}
		s.lines[i].Quantity -= item.Quantity
		if s.lines[i].Quantity <= 0 {
			s.lines = append(s.lines[:i:i], s.lines[i+1:]...)
		}
	}
	snapshot := s.snapshotLocked()
	s.persistLocked(logger.WithContext(c))
	s.mu.Unlock()
	logger.Debug().Int(log.KeyCartTotalItems, snapshot.TotalItems).Msg("removed ordered items")

	s.notify(snapshot)
	return nil
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Line{}, s.lines...)
}

func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalItems(s.lines)
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalPrice(s.lines)
}

func (s *Store) Snapshot() response.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive the cart after every mutation. The
// returned func unregisters it.
func (s *Store) Subscribe(fn func(response.Cart)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) indexLocked(productID string) int {
	for i, line := range s.lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() response.Cart {
	items := make([]response.CartItem, len(s.lines))
	for i, line := range s.lines {
		items[i] = response.CartItem{
			Product:   line.Product,
			Quantity:  line.Quantity,
			LineTotal: line.Total(),
		}
	}
	return response.Cart{
		Items:      items,
		TotalItems: totalItems(s.lines),
		TotalPrice: totalPrice(s.lines),
	}
}

// persistLocked writes the whole cart. Storage failures are logged and the
// in memory cart stays authoritative.
func (s *Store) persistLocked(c context.Context) {
	c, span := otel.Tracer.Start(c, "Store persist")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyStorageKey, storage.KeyCart).
		Str(log.KeyProcess, "persisting cart").
		Logger()

	logger.Trace().Msg("persisting cart")
	raw, err := json.Marshal(s.lines)
	if err != nil {
		err = fmt.Errorf("failed marshaling cart with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	if err = s.storage.Set(c, storage.KeyCart, raw); err != nil {
		err = fmt.Errorf("failed persisting cart with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Trace().Msg("persisted cart")
}

func (s *Store) notify(cart response.Cart) {
	s.mu.RLock()
	subscribers := make([]func(response.Cart), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.RUnlock()
	for _, fn := range subscribers {
		fn(cart)
	}
}
