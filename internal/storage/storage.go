package storage

import (
	"context"
	"errors"
)

const (
	KeyCart       = "cart"
	KeyUser       = "user"
	KeyAdminUser  = "adminUser"
	KeyAdminToken = "adminToken"
)

var ErrNotFound = errors.New("storage key not found")

// Storage is the durable key value store the cart and session state are
// saved to. Get returns ErrNotFound for keys that were never set or removed.
type Storage interface {
	Get(c context.Context, key string) ([]byte, error)
	Set(c context.Context, key string, value []byte) error
	Remove(c context.Context, key string) error
}
