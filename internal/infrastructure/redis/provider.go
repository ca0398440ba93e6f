package redis

import (
	"fmt"
	"log/slog"

	"github.com/JoeShih716/go-blackjack-server/internal/config"
	pkgRedis "github.com/JoeShih716/go-blackjack-server/pkg/redis"
)

type DBName string

const (
	DBNameWallet DBName = "wallet"
	DBNameEvents DBName = "events"
)

// DBSupplier defines the interface for retrieving specific Redis DB clients
type DBSupplier interface {
	GetWallet() *pkgRedis.Client
	GetEvents() *pkgRedis.Client
	Close() error
}

var _ DBSupplier = (*Provider)(nil)

type Provider struct {
	databases map[DBName]*pkgRedis.Client
}

// NewProvider creates one client per configured database.
// Purposes sharing the same DB index share a client.
func NewProvider(cfg config.RedisConfig) (*Provider, error) {
	clients := make(map[DBName]*pkgRedis.Client)
	byIndex := make(map[int]*pkgRedis.Client)

	for name, index := range cfg.Databases {
		if client, ok := byIndex[index]; ok {
			clients[DBName(name)] = client
			continue
		}
		client, err := pkgRedis.NewClient(pkgRedis.Config{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       index,
		})
		if err != nil {
			// If one fails, close already created ones and return error
			for _, c := range byIndex {
				c.Close()
			}
			return nil, fmt.Errorf("failed to init redis db '%s': %w", name, err)
		}
		byIndex[index] = client
		clients[DBName(name)] = client
	}

	return &Provider{databases: clients}, nil
}

// Get 依用途取得 client，未設定時回傳 nil
func (p *Provider) Get(name DBName) *pkgRedis.Client {
	if client, ok := p.databases[name]; ok {
		return client
	}
	slog.Warn("Redis DB not found in config", "name", name)
	return nil
}

func (p *Provider) GetWallet() *pkgRedis.Client {
	return p.Get(DBNameWallet)
}

func (p *Provider) GetEvents() *pkgRedis.Client {
	return p.Get(DBNameEvents)
}

func (p *Provider) Close() error {
	seen := make(map[*pkgRedis.Client]bool)
	for _, client := range p.databases {
		if seen[client] {
			continue
		}
		seen[client] = true
		client.Close()
	}
	return nil
}
