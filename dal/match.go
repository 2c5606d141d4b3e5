package dal

import (
	"math/big"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// matchesSortCondition evaluates a key condition's sort part against sk
func matchesSortCondition(k KeyCondition, sk string) bool {
	switch k.SortOp {
	case SortNone:
		return true
	case SortEqual:
		return sk == k.SortValues[0]
	case SortBeginsWith:
		return strings.HasPrefix(sk, k.SortValues[0])
	case SortBetween:
		return sk >= k.SortValues[0] && sk <= k.SortValues[1]
	case SortGreaterOrEqual:
		return sk >= k.SortValues[0]
	case SortLessOrEqual:
		return sk <= k.SortValues[0]
	default:
		return false
	}
}

func matchesAll(preds []Predicate, item Item) bool {
	for _, p := range preds {
		if !matchesPredicate(p, item) {
			return false
		}
	}
	return true
}

// matchesPredicate follows DynamoDB semantics: comparisons against a missing
// attribute are false, except <> which is true.
func matchesPredicate(p Predicate, item Item) bool {
	av, ok := item[p.Attribute]
	if !ok {
		return p.Op == OpNotEqual
	}

	switch p.Op {
	case OpContains:
		return containsValue(av, p.Values[0])
	case OpIn:
		for _, v := range p.Values {
			if compareScalar(av, v) == 0 {
				return true
			}
		}
		return false
	case OpEqual:
		return compareScalar(av, p.Values[0]) == 0
	case OpNotEqual:
		return compareScalar(av, p.Values[0]) != 0
	case OpBetween:
		lo, hi := compareScalar(av, p.Values[0]), compareScalar(av, p.Values[1])
		return lo != incomparable && hi != incomparable && lo >= 0 && hi <= 0
	case OpGreaterOrEqual:
		c := compareScalar(av, p.Values[0])
		return c != incomparable && c >= 0
	case OpLessOrEqual:
		c := compareScalar(av, p.Values[0])
		return c != incomparable && c <= 0
	default:
		return false
	}
}

const incomparable = 2

// compareScalar compares a string or number attribute with a literal
func compareScalar(av types.AttributeValue, literal string) int {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return strings.Compare(v.Value, literal)
	case *types.AttributeValueMemberN:
		a, okA := new(big.Rat).SetString(v.Value)
		b, okB := new(big.Rat).SetString(literal)
		if !okA || !okB {
			return incomparable
		}
		return a.Cmp(b)
	default:
		return incomparable
	}
}

func containsValue(av types.AttributeValue, needle string) bool {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return strings.Contains(v.Value, needle)
	case *types.AttributeValueMemberSS:
		for _, s := range v.Value {
			if s == needle {
				return true
			}
		}
	case *types.AttributeValueMemberL:
		for _, inner := range v.Value {
			if s, ok := inner.(*types.AttributeValueMemberS); ok && s.Value == needle {
				return true
			}
		}
	}
	return false
}

// projectItem keeps only the named top-level attributes
func projectItem(item Item, projection []string) Item {
	if len(projection) == 0 {
		return item
	}
	out := make(Item, len(projection))
	for _, name := range projection {
		if av, ok := item[name]; ok {
			out[name] = av
		}
	}
	return out
}
