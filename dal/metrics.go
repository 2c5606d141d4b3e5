package dal

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/demariano/php-suite-sub002/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors for store operations
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	items      *prometheus.CounterVec
}

// NewMetrics creates the store collectors and registers them with reg
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "operations_total",
				Help:      "Total number of store operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "operation_duration_seconds",
				Help:      "Store operation latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "query_items_total",
				Help:      "Items returned and evaluated by queries per index",
			},
			[]string{"index", "kind"},
		),
	}

	for _, c := range []prometheus.Collector{m.operations, m.duration, m.items} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.operations.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case models.IsConditionalFailure(err):
		return "conditional_failed"
	default:
		return "error"
	}
}

// InstrumentedClient decorates a DatabaseClientInterface with metrics
type InstrumentedClient struct {
	next    DatabaseClientInterface
	metrics *Metrics
}

func NewInstrumentedClient(next DatabaseClientInterface, metrics *Metrics) *InstrumentedClient {
	return &InstrumentedClient{next: next, metrics: metrics}
}

// Unwrap returns the decorated client
func (c *InstrumentedClient) Unwrap() DatabaseClientInterface {
	return c.next
}

func (c *InstrumentedClient) GetItem(ctx context.Context, tableName string, key Item, projection []string) (Item, error) {
	start := time.Now()
	item, err := c.next.GetItem(ctx, tableName, key, projection)
	c.metrics.observe("get", start, err)
	return item, err
}

func (c *InstrumentedClient) PutItem(ctx context.Context, tableName string, item Item, cond *PutCondition) error {
	start := time.Now()
	err := c.next.PutItem(ctx, tableName, item, cond)
	c.metrics.observe("put", start, err)
	return err
}

func (c *InstrumentedClient) DeleteItem(ctx context.Context, tableName string, key Item) error {
	start := time.Now()
	err := c.next.DeleteItem(ctx, tableName, key)
	c.metrics.observe("delete", start, err)
	return err
}

func (c *InstrumentedClient) Query(ctx context.Context, input *QueryInput) (*QueryOutput, error) {
	start := time.Now()
	out, err := c.next.Query(ctx, input)
	c.metrics.observe("query", start, err)
	if err == nil {
		index := input.IndexName
		if index == "" {
			index = "table"
		}
		c.metrics.items.WithLabelValues(index, "returned").Add(float64(out.Count))
		c.metrics.items.WithLabelValues(index, "evaluated").Add(float64(out.ScannedCount))
	}
	return out, err
}

func (c *InstrumentedClient) CreateTable(ctx context.Context, input *dynamodb.CreateTableInput) error {
	start := time.Now()
	err := c.next.CreateTable(ctx, input)
	c.metrics.observe("create_table", start, err)
	return err
}

func (c *InstrumentedClient) DescribeTable(ctx context.Context, tableName string) (*dynamodb.DescribeTableOutput, error) {
	start := time.Now()
	out, err := c.next.DescribeTable(ctx, tableName)
	c.metrics.observe("describe_table", start, err)
	return out, err
}

func (c *InstrumentedClient) DeleteTable(ctx context.Context, input *dynamodb.DeleteTableInput) error {
	start := time.Now()
	err := c.next.DeleteTable(ctx, input)
	c.metrics.observe("delete_table", start, err)
	return err
}
