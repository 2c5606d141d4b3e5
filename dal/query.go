package dal

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// SortOperator is the comparison applied to the sort key of a query
type SortOperator int

const (
	SortNone SortOperator = iota
	SortEqual
	SortBeginsWith
	SortBetween
	SortGreaterOrEqual
	SortLessOrEqual
)

// KeyCondition selects one partition and optionally a sort key range
type KeyCondition struct {
	PartitionKey   string
	PartitionValue string
	SortKey        string
	SortOp         SortOperator
	SortValues     []string
}

// PredicateOp is the operator of a filter predicate
type PredicateOp int

const (
	OpContains PredicateOp = iota
	OpIn
	OpEqual
	OpNotEqual
	OpBetween
	OpGreaterOrEqual
	OpLessOrEqual
)

// Predicate is one filter fragment; all predicates of a query are ANDed
type Predicate struct {
	Op        PredicateOp
	Attribute string
	Values    []string
}

// QueryInput is a store-agnostic query. An empty IndexName targets the base table.
type QueryInput struct {
	TableName         string
	IndexName         string
	Key               KeyCondition
	Filters           []Predicate
	Projection        []string
	Forward           bool
	Limit             int32
	ExclusiveStartKey Item
}

// QueryOutput mirrors the store's query response
type QueryOutput struct {
	Items            []Item
	LastEvaluatedKey Item
	Count            int32
	ScannedCount     int32
}

// S builds a string attribute value
func S(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

// StringAttr returns the string value of attribute name, if it is a string
func StringAttr(item Item, name string) (string, bool) {
	av, ok := item[name]
	if !ok {
		return "", false
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return s.Value, true
}

// KeyOf copies the named key attributes out of item. It returns nil if any is missing.
func KeyOf(item Item, attributes ...string) Item {
	key := make(Item, len(attributes))
	for _, name := range attributes {
		if name == "" {
			continue
		}
		av, ok := item[name]
		if !ok {
			return nil
		}
		key[name] = av
	}
	return key
}
