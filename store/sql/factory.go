package sqlstore

import (
	"fmt"

	"github.com/goliatone/go-crm/core"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

// RepositoryFactory builds every SQL-backed store from one bun handle and
// exposes them through the core StoreProvider contract.
type RepositoryFactory struct {
	db *bun.DB

	workspaceStore    *WorkspaceStore
	memberStore       *MemberStore
	leadStore         *LeadStore
	endpointStore     *EndpointStore
	auditStore        *AuditStore
	statsStore        *StatsStore
	subscriptionStore *SubscriptionStore
	deliveryStore     *DeliveryStore
	rateLimitStore    *RateLimitStateStore
	ingestor          *Ingestor
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.workspaceStore != nil && f.leadStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) WorkspaceStore() core.WorkspaceStore {
	if f == nil {
		return nil
	}
	return f.workspaceStore
}

func (f *RepositoryFactory) MemberStore() core.MemberStore {
	if f == nil {
		return nil
	}
	return f.memberStore
}

func (f *RepositoryFactory) LeadStore() core.LeadStore {
	if f == nil {
		return nil
	}
	return f.leadStore
}

func (f *RepositoryFactory) EndpointStore() core.EndpointStore {
	if f == nil {
		return nil
	}
	return f.endpointStore
}

func (f *RepositoryFactory) AuditSink() core.AuditSink {
	if f == nil {
		return nil
	}
	return f.auditStore
}

func (f *RepositoryFactory) StatsStore() core.StatsStore {
	if f == nil {
		return nil
	}
	return f.statsStore
}

func (f *RepositoryFactory) SubscriptionStore() core.SubscriptionStore {
	if f == nil {
		return nil
	}
	return f.subscriptionStore
}

func (f *RepositoryFactory) LeadIngestor() core.LeadIngestor {
	if f == nil {
		return nil
	}
	return f.ingestor
}

func (f *RepositoryFactory) DeliveryStore() *DeliveryStore {
	if f == nil {
		return nil
	}
	return f.deliveryStore
}

func (f *RepositoryFactory) RateLimitStateStore() *RateLimitStateStore {
	if f == nil {
		return nil
	}
	return f.rateLimitStore
}

func (f *RepositoryFactory) StatsWriter() core.StatsWriter {
	if f == nil {
		return nil
	}
	return f.statsStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	workspaceStore, err := NewWorkspaceStore(f.db)
	if err != nil {
		return err
	}
	f.workspaceStore = workspaceStore

	memberStore, err := NewMemberStore(f.db)
	if err != nil {
		return err
	}
	f.memberStore = memberStore

	leadStore, err := NewLeadStore(f.db)
	if err != nil {
		return err
	}
	f.leadStore = leadStore

	endpointStore, err := NewEndpointStore(f.db)
	if err != nil {
		return err
	}
	f.endpointStore = endpointStore

	auditStore, err := NewAuditStore(f.db)
	if err != nil {
		return err
	}
	f.auditStore = auditStore

	statsStore, err := NewStatsStore(f.db)
	if err != nil {
		return err
	}
	f.statsStore = statsStore

	subscriptionStore, err := NewSubscriptionStore(f.db)
	if err != nil {
		return err
	}
	f.subscriptionStore = subscriptionStore

	deliveryStore, err := NewDeliveryStore(f.db)
	if err != nil {
		return err
	}
	f.deliveryStore = deliveryStore

	rateLimitStore, err := NewRateLimitStateStore(f.db)
	if err != nil {
		return err
	}
	f.rateLimitStore = rateLimitStore

	ingestor, err := NewIngestor(f.db)
	if err != nil {
		return err
	}
	f.ingestor = ingestor

	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
