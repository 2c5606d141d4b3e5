package repository

import (
	"context"

	"github.com/demariano/php-suite-sub002/dal"
	"github.com/demariano/php-suite-sub002/models"
)

// pageResult is one page of raw records with its boundary cursors
type pageResult struct {
	Items []dal.Item
	Next  string
	Prev  string
}

// paginator executes planned queries with look-ahead: it collects limit+1
// matching records so that a filtered round never shortens a page and the
// presence of a further page is known without an extra call.
type paginator struct {
	db        dal.DatabaseClientInterface
	cursors   *CursorCodec
	batchSize int32
}

func (p *paginator) page(ctx context.Context, schema *Schema, q *plannedQuery, limit int, dir models.Direction, cursorPointer string) (*pageResult, error) {
	scope := cursorScope{
		Entity:         schema.Type,
		Index:          q.Index.Name,
		KeyAttributes:  schema.keyAttributes(q.Index),
		PartitionKey:   q.Input.Key.PartitionKey,
		PartitionValue: q.Input.Key.PartitionValue,
	}
	start := p.cursors.Decode(cursorPointer, scope)
	if start != nil && !withinKeyCondition(start, q.Input.Key) {
		start = nil
	}
	backward := dir == models.DirectionPrev && start != nil

	input := *q.Input
	if backward {
		input.Forward = !input.Forward
	}
	items, more, err := p.collect(ctx, &input, start, limit)
	if err != nil {
		return nil, err
	}

	res := &pageResult{Items: items}
	if len(items) == 0 {
		return res, nil
	}
	if backward {
		reverse(items)
	}
	first, last := items[0], items[len(items)-1]

	switch {
	case backward:
		if more {
			if res.Prev, err = p.cursors.Encode(scope, first); err != nil {
				return nil, err
			}
		}
		if res.Next, err = p.cursors.Encode(scope, last); err != nil {
			return nil, err
		}
	default:
		if more {
			if res.Next, err = p.cursors.Encode(scope, last); err != nil {
				return nil, err
			}
		}
		if start != nil {
			if res.Prev, err = p.cursors.Encode(scope, first); err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}

// collect reads until limit+1 records matched or the partition is exhausted.
// It returns at most limit records and whether more exist.
func (p *paginator) collect(ctx context.Context, input *dal.QueryInput, start dal.Item, limit int) ([]dal.Item, bool, error) {
	want := limit + 1
	items := make([]dal.Item, 0, want)
	input.ExclusiveStartKey = start

	for len(items) < want {
		input.Limit = int32(want - len(items))
		if len(input.Filters) > 0 && input.Limit < p.batchSize {
			input.Limit = p.batchSize
		}
		out, err := p.db.Query(ctx, input)
		if err != nil {
			return nil, false, err
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	if len(items) > limit {
		return items[:limit], true, nil
	}
	return items, false, nil
}

// all drains every matching record of a query
func (p *paginator) all(ctx context.Context, input *dal.QueryInput) ([]dal.Item, error) {
	var items []dal.Item
	in := *input
	for {
		if in.Limit == 0 {
			in.Limit = p.batchSize
		}
		out, err := p.db.Query(ctx, &in)
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// withinKeyCondition rejects continuation keys outside the sort key range
func withinKeyCondition(key dal.Item, cond dal.KeyCondition) bool {
	if cond.SortOp == dal.SortNone {
		return true
	}
	v, ok := dal.StringAttr(key, cond.SortKey)
	if !ok {
		return false
	}
	switch cond.SortOp {
	case dal.SortBetween:
		return v >= cond.SortValues[0] && v <= cond.SortValues[1]
	case dal.SortGreaterOrEqual:
		return v >= cond.SortValues[0]
	case dal.SortLessOrEqual:
		return v <= cond.SortValues[0]
	case dal.SortEqual:
		return v == cond.SortValues[0]
	case dal.SortBeginsWith:
		return len(v) >= len(cond.SortValues[0]) && v[:len(cond.SortValues[0])] == cond.SortValues[0]
	}
	return false
}

func reverse(items []dal.Item) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
