package dal

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/demariano/php-suite-sub002/models"
	"github.com/demariano/php-suite-sub002/utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const testTable = "test_catalog"

func testLogger() logger.Logger {
	return logger.NewLoggerWithOutput("error", "json", io.Discard)
}

func testTableInput(name string) *dynamodb.CreateTableInput {
	key := func(pk, sk string) []types.KeySchemaElement {
		return []types.KeySchemaElement{
			{AttributeName: aws.String(pk), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(sk), KeyType: types.KeyTypeRange},
		}
	}
	return &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		KeySchema: key("PK", "SK"),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{IndexName: aws.String("GSI1"), KeySchema: key("GSI1PK", "GSI1SK"), Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll}},
		},
		BillingMode: types.BillingModePayPerRequest,
	}
}

// BadgerTestSuite exercises the embedded store
type BadgerTestSuite struct {
	suite.Suite
	ctx    context.Context
	client *BadgerClient
}

func (suite *BadgerTestSuite) SetupTest() {
	suite.ctx = context.Background()
	client, err := NewBadgerClient(BadgerOptions{InMemory: true}, testLogger())
	suite.Require().NoError(err)
	suite.client = client
	suite.Require().NoError(client.CreateTable(suite.ctx, testTableInput(testTable)))
}

func (suite *BadgerTestSuite) TearDownTest() {
	suite.client.Close()
}

func TestBadgerTestSuite(t *testing.T) {
	suite.Run(t, new(BadgerTestSuite))
}

func record(id, status, name string) Item {
	item := Item{
		"PK":     S("THING"),
		"SK":     S(id),
		"id":     S(id),
		"name":   S(name),
		"status": S(status),
		"price":  &types.AttributeValueMemberN{Value: fmt.Sprint(len(name))},
		"tags":   &types.AttributeValueMemberL{Value: []types.AttributeValue{S("x")}},
	}
	if status != "DELETED" {
		item["GSI1PK"] = S("THING#" + status)
		item["GSI1SK"] = S(name)
	}
	return item
}

func (suite *BadgerTestSuite) put(items ...Item) {
	for _, item := range items {
		suite.Require().NoError(suite.client.PutItem(suite.ctx, testTable, item, nil))
	}
}

func statusQuery(status string) *QueryInput {
	return &QueryInput{
		TableName: testTable,
		IndexName: "GSI1",
		Key:       KeyCondition{PartitionKey: "GSI1PK", PartitionValue: "THING#" + status, SortKey: "GSI1SK"},
		Forward:   true,
	}
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		v, _ := StringAttr(item, "id")
		out = append(out, v)
	}
	return out
}

func (suite *BadgerTestSuite) TestGetItemRoundTrip() {
	in := record("t-1", "ACTIVE", "alpha")
	in["meta"] = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{"k": S("v")}}
	in["flag"] = &types.AttributeValueMemberBOOL{Value: true}
	suite.put(in)

	out, err := suite.client.GetItem(suite.ctx, testTable, Item{"PK": S("THING"), "SK": S("t-1")}, nil)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), in, out)

	projected, err := suite.client.GetItem(suite.ctx, testTable, Item{"PK": S("THING"), "SK": S("t-1")}, []string{"name"})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), Item{"name": S("alpha")}, projected)

	missing, err := suite.client.GetItem(suite.ctx, testTable, Item{"PK": S("THING"), "SK": S("nope")}, nil)
	suite.Require().NoError(err)
	assert.Nil(suite.T(), missing)
}

func (suite *BadgerTestSuite) TestQueryIndexOrderAndDirection() {
	suite.put(record("t-1", "ACTIVE", "charlie"), record("t-2", "ACTIVE", "alpha"), record("t-3", "ACTIVE", "bravo"), record("t-4", "INACTIVE", "delta"))

	out, err := suite.client.Query(suite.ctx, statusQuery("ACTIVE"))
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{"t-2", "t-3", "t-1"}, ids(out.Items))
	assert.Nil(suite.T(), out.LastEvaluatedKey)

	q := statusQuery("ACTIVE")
	q.Forward = false
	out, err = suite.client.Query(suite.ctx, q)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{"t-1", "t-3", "t-2"}, ids(out.Items))
}

func (suite *BadgerTestSuite) TestQueryLimitAndExclusiveStart() {
	suite.put(record("t-1", "ACTIVE", "a"), record("t-2", "ACTIVE", "b"), record("t-3", "ACTIVE", "c"))

	q := statusQuery("ACTIVE")
	q.Limit = 2
	out, err := suite.client.Query(suite.ctx, q)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{"t-1", "t-2"}, ids(out.Items))
	assert.Equal(suite.T(), Item{"PK": S("THING"), "SK": S("t-2"), "GSI1PK": S("THING#ACTIVE"), "GSI1SK": S("b")}, out.LastEvaluatedKey)

	q.ExclusiveStartKey = out.LastEvaluatedKey
	out, err = suite.client.Query(suite.ctx, q)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{"t-3"}, ids(out.Items))
	assert.Nil(suite.T(), out.LastEvaluatedKey)

	q.Forward = false
	q.Limit = 0
	q.ExclusiveStartKey = Item{"PK": S("THING"), "SK": S("t-2"), "GSI1PK": S("THING#ACTIVE"), "GSI1SK": S("b")}
	out, err = suite.client.Query(suite.ctx, q)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{"t-1"}, ids(out.Items))
}

func (suite *BadgerTestSuite) TestQueryLimitCountsItemsBeforeFilter() {
	suite.put(record("t-1", "ACTIVE", "a"), record("t-2", "ACTIVE", "bb"), record("t-3", "ACTIVE", "cc"))

	q := statusQuery("ACTIVE")
	q.Limit = 2
	q.Filters = []Predicate{{Op: OpContains, Attribute: "name", Values: []string{"c"}}}
	out, err := suite.client.Query(suite.ctx, q)
	suite.Require().NoError(err)
	assert.Empty(suite.T(), out.Items)
	assert.Equal(suite.T(), int32(2), out.ScannedCount)
	assert.NotNil(suite.T(), out.LastEvaluatedKey)
}

func (suite *BadgerTestSuite) TestQueryFiltersAndProjection() {
	suite.put(record("t-1", "ACTIVE", "alpha"), record("t-2", "ACTIVE", "beta"), record("t-3", "ACTIVE", "gamma"))

	tests := []struct {
		name    string
		filters []Predicate
		want    []string
	}{
		{"contains", []Predicate{{Op: OpContains, Attribute: "name", Values: []string{"mm"}}}, []string{"t-3"}},
		{"in", []Predicate{{Op: OpIn, Attribute: "id", Values: []string{"t-1", "t-3"}}}, []string{"t-1", "t-3"}},
		{"not equal", []Predicate{{Op: OpNotEqual, Attribute: "id", Values: []string{"t-2"}}}, []string{"t-1", "t-3"}},
		{"number range", []Predicate{{Op: OpBetween, Attribute: "price", Values: []string{"4", "5"}}}, []string{"t-1", "t-2", "t-3"}},
		{"number ge", []Predicate{{Op: OpGreaterOrEqual, Attribute: "price", Values: []string{"5"}}}, []string{"t-1", "t-3"}},
		{"missing attribute", []Predicate{{Op: OpEqual, Attribute: "color", Values: []string{"red"}}}, []string{}},
		{"list contains", []Predicate{{Op: OpContains, Attribute: "tags", Values: []string{"x"}}}, []string{"t-1", "t-2", "t-3"}},
		{"conjunction", []Predicate{
			{Op: OpContains, Attribute: "name", Values: []string{"a"}},
			{Op: OpLessOrEqual, Attribute: "name", Values: []string{"beta"}},
		}, []string{"t-1", "t-2"}},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			q := statusQuery("ACTIVE")
			q.Filters = tt.filters
			out, err := suite.client.Query(suite.ctx, q)
			suite.Require().NoError(err)
			assert.Equal(suite.T(), tt.want, ids(out.Items))
		})
	}

	q := statusQuery("ACTIVE")
	q.Projection = []string{"id"}
	out, err := suite.client.Query(suite.ctx, q)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), Item{"id": S("t-1")}, out.Items[0])
}

func (suite *BadgerTestSuite) TestQuerySortConditions() {
	suite.put(record("t-1", "ACTIVE", "2024-01-01"), record("t-2", "ACTIVE", "2024-02-01"), record("t-3", "ACTIVE", "2024-03-01"))

	tests := []struct {
		name string
		op   SortOperator
		vals []string
		want []string
	}{
		{"between", SortBetween, []string{"2024-01-15", "2024-03-01"}, []string{"t-2", "t-3"}},
		{"ge", SortGreaterOrEqual, []string{"2024-02-01"}, []string{"t-2", "t-3"}},
		{"le", SortLessOrEqual, []string{"2024-01-31"}, []string{"t-1"}},
		{"begins with", SortBeginsWith, []string{"2024-02"}, []string{"t-2"}},
		{"equal", SortEqual, []string{"2024-03-01"}, []string{"t-3"}},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			q := statusQuery("ACTIVE")
			q.Key.SortOp = tt.op
			q.Key.SortValues = tt.vals
			out, err := suite.client.Query(suite.ctx, q)
			suite.Require().NoError(err)
			assert.Equal(suite.T(), tt.want, ids(out.Items))
		})
	}
}

func (suite *BadgerTestSuite) TestQueryBaseTable() {
	suite.put(record("t-2", "ACTIVE", "b"), record("t-1", "DELETED", "a"))

	out, err := suite.client.Query(suite.ctx, &QueryInput{
		TableName: testTable,
		Key:       KeyCondition{PartitionKey: "PK", PartitionValue: "THING", SortKey: "SK"},
		Forward:   true,
	})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{"t-1", "t-2"}, ids(out.Items))
}

func (suite *BadgerTestSuite) TestPutReplacesIndexEntries() {
	suite.put(record("t-1", "ACTIVE", "a"))
	suite.put(record("t-1", "INACTIVE", "a"))

	active, err := suite.client.Query(suite.ctx, statusQuery("ACTIVE"))
	suite.Require().NoError(err)
	assert.Empty(suite.T(), active.Items)

	inactive, err := suite.client.Query(suite.ctx, statusQuery("INACTIVE"))
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{"t-1"}, ids(inactive.Items))

	suite.put(record("t-1", "DELETED", "a"))
	inactive, err = suite.client.Query(suite.ctx, statusQuery("INACTIVE"))
	suite.Require().NoError(err)
	assert.Empty(suite.T(), inactive.Items, "items without index keys leave the index")
}

func (suite *BadgerTestSuite) TestConditionalPut() {
	item := record("t-1", "ACTIVE", "a")

	err := suite.client.PutItem(suite.ctx, testTable, item, MustExist("PK"))
	assert.True(suite.T(), models.IsConditionalFailure(err))

	suite.Require().NoError(suite.client.PutItem(suite.ctx, testTable, item, MustNotExist("PK")))

	err = suite.client.PutItem(suite.ctx, testTable, item, MustNotExist("PK"))
	assert.True(suite.T(), models.IsConditionalFailure(err))
	assert.ErrorIs(suite.T(), err, models.ErrStore)

	assert.NoError(suite.T(), suite.client.PutItem(suite.ctx, testTable, item, MustExist("PK")))
}

func (suite *BadgerTestSuite) TestDeleteItem() {
	suite.put(record("t-1", "ACTIVE", "a"))
	key := Item{"PK": S("THING"), "SK": S("t-1")}

	suite.Require().NoError(suite.client.DeleteItem(suite.ctx, testTable, key))
	suite.Require().NoError(suite.client.DeleteItem(suite.ctx, testTable, key))

	item, err := suite.client.GetItem(suite.ctx, testTable, key, nil)
	suite.Require().NoError(err)
	assert.Nil(suite.T(), item)

	out, err := suite.client.Query(suite.ctx, statusQuery("ACTIVE"))
	suite.Require().NoError(err)
	assert.Empty(suite.T(), out.Items)
}

func (suite *BadgerTestSuite) TestInvalidRequests() {
	err := suite.client.PutItem(suite.ctx, testTable, Item{"PK": S("THING")}, nil)
	assert.ErrorIs(suite.T(), err, models.ErrStore)

	_, err = suite.client.Query(suite.ctx, &QueryInput{TableName: testTable, IndexName: "GSI9", Key: KeyCondition{PartitionKey: "X", PartitionValue: "y"}})
	assert.ErrorIs(suite.T(), err, models.ErrStore)

	_, err = suite.client.GetItem(suite.ctx, "missing_table", Item{"PK": S("a"), "SK": S("b")}, nil)
	assert.True(suite.T(), IsTableNotFound(err))
}

func (suite *BadgerTestSuite) TestTableLifecycle() {
	err := suite.client.CreateTable(suite.ctx, testTableInput(testTable))
	assert.True(suite.T(), IsResourceInUse(err))

	desc, err := suite.client.DescribeTable(suite.ctx, testTable)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), types.TableStatusActive, desc.Table.TableStatus)
	suite.Require().Len(desc.Table.GlobalSecondaryIndexes, 1)
	assert.Equal(suite.T(), "GSI1", aws.ToString(desc.Table.GlobalSecondaryIndexes[0].IndexName))

	suite.Require().NoError(suite.client.CreateTable(suite.ctx, testTableInput(testTable+"_archive")))
	suite.put(record("t-1", "ACTIVE", "a"))
	suite.Require().NoError(suite.client.DeleteTable(suite.ctx, &dynamodb.DeleteTableInput{TableName: aws.String(testTable)}))

	_, err = suite.client.DescribeTable(suite.ctx, testTable)
	assert.True(suite.T(), IsTableNotFound(err))
	_, err = suite.client.DescribeTable(suite.ctx, testTable+"_archive")
	assert.NoError(suite.T(), err)

	suite.Require().NoError(suite.client.CreateTable(suite.ctx, testTableInput(testTable)))
	out, err := suite.client.Query(suite.ctx, statusQuery("ACTIVE"))
	suite.Require().NoError(err)
	assert.Empty(suite.T(), out.Items)
}

func (suite *BadgerTestSuite) TestQueryHonoursCancelledContext() {
	suite.put(record("t-1", "ACTIVE", "a"))
	ctx, cancel := context.WithCancel(suite.ctx)
	cancel()

	_, err := suite.client.Query(ctx, statusQuery("ACTIVE"))
	assert.ErrorIs(suite.T(), err, context.Canceled)
}
