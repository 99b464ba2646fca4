package registry

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartReq "github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/internal/metrics"
	"github.com/Alturino/storefront/internal/storage"
	"github.com/Alturino/storefront/order/pricing"
	"github.com/Alturino/storefront/storefront/internal/service"
	"github.com/Alturino/storefront/user/authenticator"
)

func newRegistry(idle time.Duration) (*Registry, *storage.Memory) {
	mem := storage.NewMemory()
	m := metrics.New("test")
	return New(mem, service.Dependencies{
		Authenticator: authenticator.NewLocal("secret", time.Hour),
		Pricing:       pricing.DefaultConfig(),
		Metrics:       m,
	}, idle), mem
}

func TestGetIsolatesAndReusesSessions(t *testing.T) {
	c := context.Background()
	r, _ := newRegistry(time.Minute)

	first := r.Get(c, "session-1")
	require.NoError(t, first.Cart.AddToCart(c, cartReq.Product{ID: "bowl-1", Price: decimal.NewFromInt(195)}, 1))

	assert.Same(t, first, r.Get(c, "session-1"))
	assert.Equal(t, 0, r.Get(c, "session-2").Cart.TotalItems())
	assert.Equal(t, 2, r.Len())
}

type slowStorage struct {
	*storage.Memory
	entered chan struct{}
	once    sync.Once
	release chan struct{}
}

func (s *slowStorage) Get(c context.Context, key string) ([]byte, error) {
	if strings.HasPrefix(key, "slow:") {
		s.once.Do(func() { close(s.entered) })
		<-s.release
	}
	return s.Memory.Get(c, key)
}

func TestGetDoesNotBlockOtherSessionsWhileRehydrating(t *testing.T) {
	c := context.Background()
	slow := &slowStorage{Memory: storage.NewMemory(), entered: make(chan struct{}), release: make(chan struct{})}
	r := New(slow, service.Dependencies{
		Authenticator: authenticator.NewLocal("secret", time.Hour),
		Pricing:       pricing.DefaultConfig(),
	}, time.Minute)

	const racers = 4
	got := make([]*service.Storefront, racers)
	wg := sync.WaitGroup{}
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = r.Get(c, "slow")
		}(i)
	}
	<-slow.entered

	done := make(chan struct{})
	go func() {
		r.Get(c, "fast")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("rehydrating one session blocked another session")
	}

	close(slow.release)
	wg.Wait()
	for i := 1; i < racers; i++ {
		assert.Same(t, got[0], got[i])
	}
	assert.Same(t, got[0], r.Get(c, "slow"))
	assert.Equal(t, 2, r.Len())
}

func TestEvictRehydratesFromStorage(t *testing.T) {
	c := context.Background()
	r, _ := newRegistry(time.Minute)
	now := time.Now()
	r.now = func() time.Time { return now }

	sf := r.Get(c, "session-1")
	require.NoError(t, sf.Cart.AddToCart(c, cartReq.Product{ID: "bowl-1", Price: decimal.NewFromInt(195)}, 2))
	r.Get(c, "session-2")

	now = now.Add(30 * time.Second)
	r.Get(c, "session-2")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, r.Evict(c))
	assert.Equal(t, 1, r.Len())

	rehydrated := r.Get(c, "session-1")
	assert.NotSame(t, sf, rehydrated)
	assert.Equal(t, 2, rehydrated.Cart.TotalItems())
}

func TestRunStopsOnCancel(t *testing.T) {
	r, _ := newRegistry(time.Nanosecond)
	c, cancel := context.WithCancel(context.Background())
	r.Get(c, "session-1")

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go r.Run(c, 5*time.Millisecond, wg)

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	wg.Wait()
}
