package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiprobe/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Param is a named query parameter, e.g. Param{"@email", "a@b.c"}.
type Param struct {
	Name  string
	Value interface{}
}

// documentContainer is the slice of a Cosmos container the store needs.
type documentContainer interface {
	Query(ctx context.Context, query string, params []Param) ([]map[string]interface{}, error)
	Delete(ctx context.Context, partitionKey interface{}, id string) error
	Upsert(ctx context.Context, partitionKey interface{}, doc []byte) error
}

type containerOpener func(name string) (documentContainer, error)

// Cosmos runs cleanup against a Cosmos DB SQL API database. Queries run on
// the configured container; CleanTestData and ExecuteNonQuery name theirs.
type Cosmos struct {
	open        containerOpener
	defaultName string
	pkField     string
	log         *zap.Logger

	mu         sync.Mutex
	containers map[string]documentContainer
}

// OpenCosmos connects with a key credential and reads the default container
// to verify access.
func OpenCosmos(ctx context.Context, cfg config.CosmosConfig, logger *zap.Logger) (*Cosmos, error) {
	cred, err := azcosmos.NewKeyCredential(cfg.Key)
	if err != nil {
		return nil, &DatabaseError{Backend: config.DBCosmos, Op: "connect", Err: err}
	}
	client, err := azcosmos.NewClientWithKey(cfg.Host, cred, nil)
	if err != nil {
		return nil, &DatabaseError{Backend: config.DBCosmos, Op: "connect", Err: err}
	}

	open := func(name string) (documentContainer, error) {
		c, err := client.NewContainer(cfg.Database, name)
		if err != nil {
			return nil, err
		}
		return &azureContainer{client: c}, nil
	}

	if cfg.Container != "" {
		c, err := client.NewContainer(cfg.Database, cfg.Container)
		if err != nil {
			return nil, &DatabaseError{Backend: config.DBCosmos, Op: "connect", Err: err}
		}
		if _, err := c.Read(ctx, nil); err != nil {
			return nil, &DatabaseError{Backend: config.DBCosmos, Op: "ping", Err: err}
		}
	}
	return newCosmos(open, cfg, logger), nil
}

func newCosmos(open containerOpener, cfg config.CosmosConfig, logger *zap.Logger) *Cosmos {
	pk := cfg.PartitionKeyField
	if pk == "" {
		pk = "id"
	}
	return &Cosmos{
		open:        open,
		defaultName: cfg.Container,
		pkField:     pk,
		log:         logger.Named("store").With(zap.String("backend", config.DBCosmos)),
		containers:  make(map[string]documentContainer),
	}
}

func (s *Cosmos) container(name string) (documentContainer, error) {
	if err := validateIdentifier(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.containers[name]; ok {
		return c, nil
	}
	c, err := s.open(name)
	if err != nil {
		return nil, err
	}
	s.containers[name] = c
	return c, nil
}

// ExecuteQuery runs query on the default container. Args must be Param values.
func (s *Cosmos) ExecuteQuery(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	params := make([]Param, 0, len(args))
	for _, a := range args {
		p, ok := a.(Param)
		if !ok {
			return nil, &DatabaseError{Backend: config.DBCosmos, Op: "query", Err: fmt.Errorf("argument %v is not a store.Param", a)}
		}
		params = append(params, p)
	}
	c, err := s.container(s.defaultName)
	if err != nil {
		return nil, &DatabaseError{Backend: config.DBCosmos, Op: "query", Err: err}
	}
	items, err := c.Query(ctx, query, params)
	if err != nil {
		return nil, &DatabaseError{Backend: config.DBCosmos, Op: "query", Err: err}
	}
	return items, nil
}

// ExecuteNonQuery upserts each document of args into the container named by
// query. Documents are maps or raw JSON.
func (s *Cosmos) ExecuteNonQuery(ctx context.Context, query string, args ...interface{}) (int64, error) {
	c, err := s.container(query)
	if err != nil {
		return 0, &DatabaseError{Backend: config.DBCosmos, Op: "upsert", Err: err}
	}
	var n int64
	for _, a := range args {
		doc, raw, err := document(a)
		if err != nil {
			return n, &DatabaseError{Backend: config.DBCosmos, Op: "upsert", Err: err}
		}
		if err := c.Upsert(ctx, doc[s.pkField], raw); err != nil {
			return n, &DatabaseError{Backend: config.DBCosmos, Op: "upsert", Err: err}
		}
		n++
	}
	return n, nil
}

// CleanTestData selects the matching items and deletes them one by one. A
// failed delete is logged and the remaining items are still deleted.
func (s *Cosmos) CleanTestData(ctx context.Context, container, where string) (int64, error) {
	c, err := s.container(container)
	if err != nil {
		return 0, &DatabaseError{Backend: config.DBCosmos, Op: "cleanup", Err: err}
	}
	items, err := c.Query(ctx, "SELECT * FROM c WHERE "+where, nil)
	if err != nil {
		return 0, &DatabaseError{Backend: config.DBCosmos, Op: "cleanup", Err: err}
	}

	var n int64
	for _, item := range items {
		id, _ := item["id"].(string)
		if id == "" {
			s.log.Warn("Skipping item without id", zap.String("container", container))
			continue
		}
		if err := c.Delete(ctx, item[s.pkField], id); err != nil {
			s.log.Error("Failed to delete item", zap.String("container", container), zap.String("id", id), zap.Error(err))
			continue
		}
		n++
	}
	s.log.Info("Cleaned test data", zap.String("container", container), zap.String("where", where), zap.Int64("deleted", n))
	return n, nil
}

func (s *Cosmos) Close() error { return nil }

func document(v interface{}) (map[string]interface{}, []byte, error) {
	var raw []byte
	switch d := v.(type) {
	case []byte:
		raw = d
	case string:
		raw = []byte(d)
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return nil, nil, err
		}
		raw = b
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("document is not a JSON object: %w", err)
	}
	return doc, raw, nil
}

func partitionKey(v interface{}) azcosmos.PartitionKey {
	switch k := v.(type) {
	case string:
		return azcosmos.NewPartitionKeyString(k)
	case float64:
		return azcosmos.NewPartitionKeyNumber(k)
	case bool:
		return azcosmos.NewPartitionKeyBool(k)
	default:
		return azcosmos.NullPartitionKey
	}
}

// azureContainer adapts the SDK container client.
type azureContainer struct {
	client *azcosmos.ContainerClient
}

func (a *azureContainer) Query(ctx context.Context, query string, params []Param) ([]map[string]interface{}, error) {
	opts := &azcosmos.QueryOptions{}
	for _, p := range params {
		opts.QueryParameters = append(opts.QueryParameters, azcosmos.QueryParameter{Name: p.Name, Value: p.Value})
	}
	pager := a.client.NewQueryItemsPager(query, azcosmos.NewPartitionKey(), opts)

	var out []map[string]interface{}
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var item map[string]interface{}
			if err := json.Unmarshal(raw, &item); err != nil {
				return nil, err
			}
			out = append(out, item)
		}
	}
	return out, nil
}

func (a *azureContainer) Delete(ctx context.Context, pk interface{}, id string) error {
	_, err := a.client.DeleteItem(ctx, partitionKey(pk), id, nil)
	return err
}

func (a *azureContainer) Upsert(ctx context.Context, pk interface{}, doc []byte) error {
	_, err := a.client.UpsertItem(ctx, partitionKey(pk), doc, nil)
	return err
}
