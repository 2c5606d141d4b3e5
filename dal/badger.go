package dal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/demariano/php-suite-sub002/utils/logger"
	"github.com/dgraph-io/badger/v4"
)

// BadgerOptions configures the embedded store
type BadgerOptions struct {
	// Path to the database directory. If empty, uses in-memory mode.
	Path     string
	InMemory bool
}

// BadgerClient is an embedded, single-process implementation of
// DatabaseClientInterface. Global secondary indexes are maintained as ordered
// index entries written in the same transaction as the item.
type BadgerClient struct {
	db     *badger.DB
	logger logger.Logger

	mu     sync.RWMutex
	tables map[string]*tableDef
}

type keyDef struct {
	Partition string `json:"partition"`
	Sort      string `json:"sort,omitempty"`
}

type indexDef struct {
	Name string `json:"name"`
	Key  keyDef `json:"key"`
}

type tableDef struct {
	Name      string              `json:"name"`
	Key       keyDef              `json:"key"`
	Indexes   map[string]indexDef `json:"indexes"`
	CreatedAt time.Time           `json:"createdAt"`
}

// NewBadgerClient opens the embedded store and loads previously created tables
func NewBadgerClient(opts BadgerOptions, log logger.Logger) (*BadgerClient, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).WithLogger(&badgerLogger{log: log})
	if opts.Path == "" || opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	client := &BadgerClient{
		db:     db,
		logger: log,
		tables: make(map[string]*tableDef),
	}
	if err := client.loadTables(); err != nil {
		db.Close()
		return nil, err
	}

	log.Infof("Badger store opened (in-memory: %v)", opts.Path == "" || opts.InMemory)
	return client, nil
}

// Close closes the underlying database
func (b *BadgerClient) Close() error {
	return b.db.Close()
}

func (b *BadgerClient) loadTables() error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = joinKey(tableSpace, nil)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var def tableDef
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &def)
			}); err != nil {
				return fmt.Errorf("load table definition: %w", err)
			}
			b.tables[def.Name] = &def
		}
		return nil
	})
}

func (b *BadgerClient) table(name string) (*tableDef, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	def, ok := b.tables[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: Table: " + name + " not found")}
	}
	return def, nil
}

func (t *tableDef) itemKey(item Item) ([]byte, error) {
	pk, err := keyPart(t.Key.Partition, item)
	if err != nil {
		return nil, err
	}
	var sk []byte
	if t.Key.Sort != "" {
		if sk, err = keyPart(t.Key.Sort, item); err != nil {
			return nil, err
		}
	}
	return joinKey(itemSpace, []byte(t.Name), pk, sk), nil
}

// indexEntryKey returns false when the item does not project into the index
func (t *tableDef) indexEntryKey(idx indexDef, item Item) ([]byte, bool, error) {
	ipk, ok := StringAttr(item, idx.Key.Partition)
	if !ok {
		return nil, false, nil
	}
	var isk string
	if idx.Key.Sort != "" {
		if isk, ok = StringAttr(item, idx.Key.Sort); !ok {
			return nil, false, nil
		}
	}
	for _, v := range []string{ipk, isk} {
		if bytes.IndexByte([]byte(v), keySep) >= 0 {
			return nil, false, validationException("index key attribute contains a NUL byte")
		}
	}

	pk, err := keyPart(t.Key.Partition, item)
	if err != nil {
		return nil, false, err
	}
	var sk []byte
	if t.Key.Sort != "" {
		if sk, err = keyPart(t.Key.Sort, item); err != nil {
			return nil, false, err
		}
	}
	return joinKey(indexSpace, []byte(t.Name), []byte(idx.Name), []byte(ipk), []byte(isk), pk, sk), true, nil
}

// scope describes the ordered key space a query walks
type scope struct {
	table  *tableDef
	index  *indexDef
	prefix []byte
}

func (t *tableDef) scope(indexName, partitionValue string) (*scope, error) {
	if bytes.IndexByte([]byte(partitionValue), keySep) >= 0 {
		return nil, validationException("partition value contains a NUL byte")
	}
	if indexName == "" {
		return &scope{table: t, prefix: joinKey(itemSpace, []byte(t.Name), []byte(partitionValue), nil)}, nil
	}
	idx, ok := t.Indexes[indexName]
	if !ok {
		return nil, validationException("The table does not have the specified index: " + indexName)
	}
	return &scope{
		table:  t,
		index:  &idx,
		prefix: joinKey(indexSpace, []byte(t.Name), []byte(idx.Name), []byte(partitionValue), nil),
	}, nil
}

func (s *scope) keyAttributes() []string {
	attrs := []string{s.table.Key.Partition, s.table.Key.Sort}
	if s.index != nil {
		attrs = append(attrs, s.index.Key.Partition, s.index.Key.Sort)
	}
	return attrs
}

func (s *scope) sortKeyName() string {
	if s.index != nil {
		return s.index.Key.Sort
	}
	return s.table.Key.Sort
}

// encode positions an exclusive start key within the scope
func (s *scope) encode(start Item) ([]byte, error) {
	if s.index == nil {
		return s.table.itemKey(start)
	}
	key, ok, err := s.table.indexEntryKey(*s.index, start)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, validationException("The provided starting key is invalid")
	}
	return key, nil
}

// sortValue extracts the scope's sort key from an entry key
func (s *scope) sortValue(key []byte) string {
	rest := key[len(s.prefix):]
	if s.index == nil {
		return string(rest)
	}
	parts := splitKey(rest)
	return string(parts[0])
}

// GetItem retrieves an item by its full primary key; a missing item yields nil, nil
func (b *BadgerClient) GetItem(ctx context.Context, tableName string, key Item, projection []string) (Item, error) {
	def, err := b.table(tableName)
	if err != nil {
		return nil, wrapStoreError("get", err)
	}
	k, err := def.itemKey(key)
	if err != nil {
		return nil, wrapStoreError("get", err)
	}

	var item Item
	err = b.db.View(func(txn *badger.Txn) error {
		item, err = getItem(txn, k)
		return err
	})
	if err != nil {
		return nil, wrapStoreError("get", err)
	}
	if item == nil {
		return nil, nil
	}
	return projectItem(item, projection), nil
}

func getItem(txn *badger.Txn, key []byte) (Item, error) {
	entry, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var item Item
	err = entry.Value(func(val []byte) error {
		item, err = deserializeItem(val)
		return err
	})
	return item, err
}

// PutItem writes the item and its index entries in one transaction
func (b *BadgerClient) PutItem(ctx context.Context, tableName string, item Item, cond *PutCondition) error {
	def, err := b.table(tableName)
	if err != nil {
		return wrapStoreError("put", err)
	}
	key, err := def.itemKey(item)
	if err != nil {
		return wrapStoreError("put", err)
	}
	data, err := serializeItem(item)
	if err != nil {
		return wrapStoreError("put", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		old, err := getItem(txn, key)
		if err != nil {
			return err
		}

		if cond != nil {
			_, exists := old[cond.Attribute]
			if cond.Exists != exists {
				return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
			}
		}

		if old != nil {
			if err := def.deleteIndexEntries(txn, old); err != nil {
				return err
			}
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		for _, idx := range def.Indexes {
			entryKey, ok, err := def.indexEntryKey(idx, item)
			if err != nil {
				return err
			}
			if ok {
				if err := txn.Set(entryKey, key); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return wrapStoreError("put", err)
}

func (t *tableDef) deleteIndexEntries(txn *badger.Txn, item Item) error {
	for _, idx := range t.Indexes {
		entryKey, ok, err := t.indexEntryKey(idx, item)
		if err != nil {
			return err
		}
		if ok {
			if err := txn.Delete(entryKey); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteItem removes the item and its index entries; deleting a missing item is not an error
func (b *BadgerClient) DeleteItem(ctx context.Context, tableName string, key Item) error {
	def, err := b.table(tableName)
	if err != nil {
		return wrapStoreError("delete", err)
	}
	k, err := def.itemKey(key)
	if err != nil {
		return wrapStoreError("delete", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		old, err := getItem(txn, k)
		if err != nil || old == nil {
			return err
		}
		if err := def.deleteIndexEntries(txn, old); err != nil {
			return err
		}
		return txn.Delete(k)
	})
	return wrapStoreError("delete", err)
}

// Query walks one partition of the table or an index in sort key order.
// Limit counts items that satisfied the key condition, before filtering.
func (b *BadgerClient) Query(ctx context.Context, in *QueryInput) (*QueryOutput, error) {
	def, err := b.table(in.TableName)
	if err != nil {
		return nil, wrapStoreError("query", err)
	}
	sc, err := def.scope(in.IndexName, in.Key.PartitionValue)
	if err != nil {
		return nil, wrapStoreError("query", err)
	}
	if in.Key.SortOp != SortNone && in.Key.SortKey != sc.sortKeyName() {
		return nil, wrapStoreError("query", validationException("Query key condition not supported"))
	}

	var start []byte
	if len(in.ExclusiveStartKey) > 0 {
		if start, err = sc.encode(in.ExclusiveStartKey); err != nil {
			return nil, wrapStoreError("query", err)
		}
	}

	out := &QueryOutput{}
	err = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = !in.Forward
		opts.Prefix = sc.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		switch {
		case start != nil:
			it.Seek(start)
			if it.Valid() && bytes.Equal(it.Item().Key(), start) {
				it.Next()
			}
		case in.Forward:
			it.Seek(sc.prefix)
		default:
			end := make([]byte, len(sc.prefix), len(sc.prefix)+1)
			copy(end, sc.prefix)
			it.Seek(append(end, 0xFF))
		}

		var evaluated int32
		for ; it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			entry := it.Item()
			if !matchesSortCondition(in.Key, sc.sortValue(entry.Key())) {
				continue
			}

			item, err := b.loadEntry(txn, sc, entry)
			if err != nil {
				return err
			}
			if item == nil {
				continue
			}

			evaluated++
			if matchesAll(in.Filters, item) {
				out.Items = append(out.Items, projectItem(item, in.Projection))
			}

			if in.Limit > 0 && evaluated >= in.Limit {
				out.LastEvaluatedKey = KeyOf(item, sc.keyAttributes()...)
				break
			}
		}
		out.ScannedCount = evaluated
		return nil
	})
	if err != nil {
		return nil, wrapStoreError("query", err)
	}

	out.Count = int32(len(out.Items))
	return out, nil
}

func (b *BadgerClient) loadEntry(txn *badger.Txn, sc *scope, entry *badger.Item) (Item, error) {
	if sc.index == nil {
		var item Item
		err := entry.Value(func(val []byte) error {
			var err error
			item, err = deserializeItem(val)
			return err
		})
		return item, err
	}

	tableKey, err := entry.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return getItem(txn, tableKey)
}

// CreateTable registers a table and its global secondary indexes
func (b *BadgerClient) CreateTable(ctx context.Context, input *dynamodb.CreateTableInput) error {
	if input == nil || input.TableName == nil {
		return validationException("table name is required")
	}

	def := &tableDef{
		Name:      *input.TableName,
		Key:       keyDefFromSchema(input.KeySchema),
		Indexes:   make(map[string]indexDef),
		CreatedAt: time.Now().UTC(),
	}
	if def.Key.Partition == "" {
		return validationException("table key schema requires a HASH key")
	}
	for _, gsi := range input.GlobalSecondaryIndexes {
		name := aws.ToString(gsi.IndexName)
		def.Indexes[name] = indexDef{Name: name, Key: keyDefFromSchema(gsi.KeySchema)}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.tables[def.Name]; exists {
		return &types.ResourceInUseException{Message: aws.String("Table already exists: " + def.Name)}
	}

	data, err := json.Marshal(def)
	if err != nil {
		return err
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(joinKey(tableSpace, []byte(def.Name)), data)
	}); err != nil {
		return err
	}

	b.tables[def.Name] = def
	b.logger.Infof("Created table %s with %d index(es)", def.Name, len(def.Indexes))
	return nil
}

func keyDefFromSchema(schema []types.KeySchemaElement) keyDef {
	var k keyDef
	for _, e := range schema {
		switch e.KeyType {
		case types.KeyTypeHash:
			k.Partition = aws.ToString(e.AttributeName)
		case types.KeyTypeRange:
			k.Sort = aws.ToString(e.AttributeName)
		}
	}
	return k
}

func keySchemaFromDef(k keyDef) []types.KeySchemaElement {
	schema := []types.KeySchemaElement{{AttributeName: aws.String(k.Partition), KeyType: types.KeyTypeHash}}
	if k.Sort != "" {
		schema = append(schema, types.KeySchemaElement{AttributeName: aws.String(k.Sort), KeyType: types.KeyTypeRange})
	}
	return schema
}

// DescribeTable reports an ACTIVE table with its indexes
func (b *BadgerClient) DescribeTable(ctx context.Context, tableName string) (*dynamodb.DescribeTableOutput, error) {
	def, err := b.table(tableName)
	if err != nil {
		return nil, err
	}

	desc := &types.TableDescription{
		TableName:        aws.String(def.Name),
		TableStatus:      types.TableStatusActive,
		KeySchema:        keySchemaFromDef(def.Key),
		CreationDateTime: aws.Time(def.CreatedAt),
	}
	for _, idx := range def.Indexes {
		desc.GlobalSecondaryIndexes = append(desc.GlobalSecondaryIndexes, types.GlobalSecondaryIndexDescription{
			IndexName:   aws.String(idx.Name),
			IndexStatus: types.IndexStatusActive,
			KeySchema:   keySchemaFromDef(idx.Key),
		})
	}
	return &dynamodb.DescribeTableOutput{Table: desc}, nil
}

// DeleteTable drops a table with all its items and index entries
func (b *BadgerClient) DeleteTable(ctx context.Context, input *dynamodb.DeleteTableInput) error {
	if input == nil || input.TableName == nil {
		return validationException("table name is required")
	}
	name := *input.TableName
	if _, err := b.table(name); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.db.DropPrefix(
		joinKey(itemSpace, []byte(name), nil),
		joinKey(indexSpace, []byte(name), nil),
	); err != nil {
		return err
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(joinKey(tableSpace, []byte(name)))
	}); err != nil {
		return err
	}
	delete(b.tables, name)
	return nil
}

// badgerLogger routes badger's internal logging to the application logger
type badgerLogger struct {
	log logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{})   { l.log.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { l.log.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { l.log.Debugf(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { l.log.Debugf(format, args...) }
