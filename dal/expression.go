package dal

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
)

// buildQueryExpression compiles a QueryInput into placeholder-bound expressions
func buildQueryExpression(in *QueryInput) (expression.Expression, error) {
	keyCond, err := buildKeyCondition(in.Key)
	if err != nil {
		return expression.Expression{}, err
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCond)

	if filter, ok, err := buildFilter(in.Filters); err != nil {
		return expression.Expression{}, err
	} else if ok {
		builder = builder.WithFilter(filter)
	}

	if proj, ok := buildProjection(in.Projection); ok {
		builder = builder.WithProjection(proj)
	}

	return builder.Build()
}

func buildKeyCondition(k KeyCondition) (expression.KeyConditionBuilder, error) {
	if k.PartitionKey == "" {
		return expression.KeyConditionBuilder{}, fmt.Errorf("partition key is required")
	}
	cond := expression.Key(k.PartitionKey).Equal(expression.Value(k.PartitionValue))

	if k.SortOp == SortNone {
		return cond, nil
	}
	if k.SortKey == "" {
		return expression.KeyConditionBuilder{}, fmt.Errorf("sort condition without sort key")
	}

	want := 1
	if k.SortOp == SortBetween {
		want = 2
	}
	if len(k.SortValues) != want {
		return expression.KeyConditionBuilder{}, fmt.Errorf("sort condition expects %d values, got %d", want, len(k.SortValues))
	}

	sk := expression.Key(k.SortKey)
	var skCond expression.KeyConditionBuilder
	switch k.SortOp {
	case SortEqual:
		skCond = sk.Equal(expression.Value(k.SortValues[0]))
	case SortBeginsWith:
		skCond = sk.BeginsWith(k.SortValues[0])
	case SortBetween:
		skCond = sk.Between(expression.Value(k.SortValues[0]), expression.Value(k.SortValues[1]))
	case SortGreaterOrEqual:
		skCond = sk.GreaterThanEqual(expression.Value(k.SortValues[0]))
	case SortLessOrEqual:
		skCond = sk.LessThanEqual(expression.Value(k.SortValues[0]))
	default:
		return expression.KeyConditionBuilder{}, fmt.Errorf("unsupported sort operator %d", k.SortOp)
	}

	return expression.KeyAnd(cond, skCond), nil
}

func buildFilter(preds []Predicate) (expression.ConditionBuilder, bool, error) {
	conds := make([]expression.ConditionBuilder, 0, len(preds))
	for _, p := range preds {
		c, err := buildPredicate(p)
		if err != nil {
			return expression.ConditionBuilder{}, false, err
		}
		conds = append(conds, c)
	}

	switch len(conds) {
	case 0:
		return expression.ConditionBuilder{}, false, nil
	case 1:
		return conds[0], true, nil
	default:
		return expression.And(conds[0], conds[1], conds[2:]...), true, nil
	}
}

func buildPredicate(p Predicate) (expression.ConditionBuilder, error) {
	name := expression.Name(p.Attribute)

	need := func(n int) error {
		if len(p.Values) < n {
			return fmt.Errorf("predicate on %s expects %d value(s), got %d", p.Attribute, n, len(p.Values))
		}
		return nil
	}

	switch p.Op {
	case OpContains:
		if err := need(1); err != nil {
			return expression.ConditionBuilder{}, err
		}
		return name.Contains(p.Values[0]), nil
	case OpIn:
		if err := need(1); err != nil {
			return expression.ConditionBuilder{}, err
		}
		if len(p.Values) == 1 {
			return name.Equal(expression.Value(p.Values[0])), nil
		}
		others := make([]expression.OperandBuilder, 0, len(p.Values)-1)
		for _, v := range p.Values[1:] {
			others = append(others, expression.Value(v))
		}
		return name.In(expression.Value(p.Values[0]), others...), nil
	case OpEqual:
		if err := need(1); err != nil {
			return expression.ConditionBuilder{}, err
		}
		return name.Equal(expression.Value(p.Values[0])), nil
	case OpNotEqual:
		if err := need(1); err != nil {
			return expression.ConditionBuilder{}, err
		}
		return name.NotEqual(expression.Value(p.Values[0])), nil
	case OpBetween:
		if err := need(2); err != nil {
			return expression.ConditionBuilder{}, err
		}
		return name.Between(expression.Value(p.Values[0]), expression.Value(p.Values[1])), nil
	case OpGreaterOrEqual:
		if err := need(1); err != nil {
			return expression.ConditionBuilder{}, err
		}
		return name.GreaterThanEqual(expression.Value(p.Values[0])), nil
	case OpLessOrEqual:
		if err := need(1); err != nil {
			return expression.ConditionBuilder{}, err
		}
		return name.LessThanEqual(expression.Value(p.Values[0])), nil
	default:
		return expression.ConditionBuilder{}, fmt.Errorf("unsupported predicate operator %d", p.Op)
	}
}

func buildProjection(fields []string) (expression.ProjectionBuilder, bool) {
	if len(fields) == 0 {
		return expression.ProjectionBuilder{}, false
	}
	names := make([]expression.NameBuilder, 0, len(fields)-1)
	for _, f := range fields[1:] {
		names = append(names, expression.Name(f))
	}
	return expression.NamesList(expression.Name(fields[0]), names...), true
}

func buildPutCondition(cond *PutCondition) (expression.Expression, error) {
	var c expression.ConditionBuilder
	if cond.Exists {
		c = expression.AttributeExists(expression.Name(cond.Attribute))
	} else {
		c = expression.AttributeNotExists(expression.Name(cond.Attribute))
	}
	return expression.NewBuilder().WithCondition(c).Build()
}
