package dal

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const keySep = 0x00

var (
	itemSpace  = []byte("i")
	indexSpace = []byte("x")
	tableSpace = []byte("t")
)

// storedValue is a gob-encodable attribute value
type storedValue struct {
	Type  string
	Value any
}

func init() {
	gob.Register(map[string]storedValue{})
	gob.Register([]storedValue{})
	gob.Register([]string{})
	gob.Register([][]byte{})
}

func serializeItem(item Item) ([]byte, error) {
	stored := make(map[string]storedValue, len(item))
	for k, v := range item {
		sv, err := toStored(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		stored[k] = sv
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(stored); err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	return buf.Bytes(), nil
}

func deserializeItem(data []byte) (Item, error) {
	var stored map[string]storedValue
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&stored); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}

	item := make(Item, len(stored))
	for k, v := range stored {
		av, err := fromStored(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		item[k] = av
	}
	return item, nil
}

func toStored(av types.AttributeValue) (storedValue, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return storedValue{Type: "S", Value: v.Value}, nil
	case *types.AttributeValueMemberN:
		return storedValue{Type: "N", Value: v.Value}, nil
	case *types.AttributeValueMemberB:
		return storedValue{Type: "B", Value: v.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return storedValue{Type: "BOOL", Value: v.Value}, nil
	case *types.AttributeValueMemberNULL:
		return storedValue{Type: "NULL", Value: v.Value}, nil
	case *types.AttributeValueMemberSS:
		return storedValue{Type: "SS", Value: v.Value}, nil
	case *types.AttributeValueMemberNS:
		return storedValue{Type: "NS", Value: v.Value}, nil
	case *types.AttributeValueMemberBS:
		return storedValue{Type: "BS", Value: v.Value}, nil
	case *types.AttributeValueMemberM:
		m := make(map[string]storedValue, len(v.Value))
		for k, inner := range v.Value {
			sv, err := toStored(inner)
			if err != nil {
				return storedValue{}, err
			}
			m[k] = sv
		}
		return storedValue{Type: "M", Value: m}, nil
	case *types.AttributeValueMemberL:
		l := make([]storedValue, len(v.Value))
		for i, inner := range v.Value {
			sv, err := toStored(inner)
			if err != nil {
				return storedValue{}, err
			}
			l[i] = sv
		}
		return storedValue{Type: "L", Value: l}, nil
	default:
		return storedValue{}, fmt.Errorf("unsupported attribute value type %T", av)
	}
}

func fromStored(sv storedValue) (types.AttributeValue, error) {
	switch sv.Type {
	case "S":
		return &types.AttributeValueMemberS{Value: sv.Value.(string)}, nil
	case "N":
		return &types.AttributeValueMemberN{Value: sv.Value.(string)}, nil
	case "B":
		return &types.AttributeValueMemberB{Value: sv.Value.([]byte)}, nil
	case "BOOL":
		return &types.AttributeValueMemberBOOL{Value: sv.Value.(bool)}, nil
	case "NULL":
		return &types.AttributeValueMemberNULL{Value: sv.Value.(bool)}, nil
	case "SS":
		return &types.AttributeValueMemberSS{Value: sv.Value.([]string)}, nil
	case "NS":
		return &types.AttributeValueMemberNS{Value: sv.Value.([]string)}, nil
	case "BS":
		return &types.AttributeValueMemberBS{Value: sv.Value.([][]byte)}, nil
	case "M":
		src, _ := sv.Value.(map[string]storedValue)
		m := make(map[string]types.AttributeValue, len(src))
		for k, inner := range src {
			av, err := fromStored(inner)
			if err != nil {
				return nil, err
			}
			m[k] = av
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case "L":
		src, _ := sv.Value.([]storedValue)
		l := make([]types.AttributeValue, len(src))
		for i, inner := range src {
			av, err := fromStored(inner)
			if err != nil {
				return nil, err
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	default:
		return nil, fmt.Errorf("unsupported stored type %q", sv.Type)
	}
}

// joinKey concatenates parts with the key separator
func joinKey(parts ...[]byte) []byte {
	var buf bytes.Buffer
	for i, p := range parts {
		if i > 0 {
			buf.WriteByte(keySep)
		}
		buf.Write(p)
	}
	return buf.Bytes()
}

// keyPart validates a key component; the separator byte may not appear in it
func keyPart(attr string, item Item) ([]byte, error) {
	v, ok := StringAttr(item, attr)
	if !ok {
		return nil, validationException(fmt.Sprintf("key attribute %s is missing or not a string", attr))
	}
	if bytes.IndexByte([]byte(v), keySep) >= 0 {
		return nil, validationException(fmt.Sprintf("key attribute %s contains a NUL byte", attr))
	}
	return []byte(v), nil
}

func splitKey(b []byte) [][]byte {
	return bytes.Split(b, []byte{keySep})
}
