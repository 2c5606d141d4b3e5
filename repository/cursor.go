package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/demariano/php-suite-sub002/dal"
	"github.com/demariano/php-suite-sub002/utils/logger"
	"github.com/golang-jwt/jwt/v5"
)

const cursorVersion = 1

var errCursorDecode = errors.New("invalid cursor")

// cursorClaims is the tagged cursor format: it pins the entity type and the
// index a continuation key was produced against.
type cursorClaims struct {
	Version int               `json:"v"`
	Entity  string            `json:"e"`
	Index   string            `json:"i"`
	Key     map[string]string `json:"k"`
	jwt.RegisteredClaims
}

// cursorScope is what a decoded cursor must agree with to be accepted
type cursorScope struct {
	Entity         string
	Index          string
	KeyAttributes  []string
	PartitionKey   string
	PartitionValue string
}

// CursorCodec signs and verifies opaque pagination cursors
type CursorCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger logger.Logger
}

// NewCursorCodec creates a codec signing with HS256. A zero ttl issues cursors that never expire.
func NewCursorCodec(secret string, ttl time.Duration, log logger.Logger) *CursorCodec {
	return &CursorCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		logger: log,
	}
}

// Encode serializes a continuation key. Only string key attributes are supported.
func (c *CursorCodec) Encode(scope cursorScope, key dal.Item) (string, error) {
	values := make(map[string]string, len(scope.KeyAttributes))
	for _, attr := range scope.KeyAttributes {
		v, ok := dal.StringAttr(key, attr)
		if !ok {
			return "", fmt.Errorf("cursor key attribute %q missing", attr)
		}
		values[attr] = v
	}

	now := c.now()
	claims := cursorClaims{
		Version: cursorVersion,
		Entity:  scope.Entity,
		Index:   scope.Index,
		Key:     values,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode returns the continuation key carried by token, or nil when token is
// empty or cannot be trusted for scope. A bad cursor is never an error.
func (c *CursorCodec) Decode(token string, scope cursorScope) dal.Item {
	if token == "" {
		return nil
	}
	key, err := c.decode(token, scope)
	if err != nil {
		c.logger.Warnf("Ignoring cursor for %s/%s: %v", scope.Entity, scope.Index, err)
		return nil
	}
	return key
}

func (c *CursorCodec) decode(token string, scope cursorScope) (dal.Item, error) {
	claims := &cursorClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errCursorDecode, err)
	}

	switch {
	case claims.Version != cursorVersion:
		return nil, fmt.Errorf("%w: unsupported version %d", errCursorDecode, claims.Version)
	case claims.Entity != scope.Entity:
		return nil, fmt.Errorf("%w: issued for entity %q", errCursorDecode, claims.Entity)
	case claims.Index != scope.Index:
		return nil, fmt.Errorf("%w: issued for index %q", errCursorDecode, claims.Index)
	case len(claims.Key) != len(scope.KeyAttributes):
		return nil, fmt.Errorf("%w: unexpected key shape", errCursorDecode)
	}

	key := make(dal.Item, len(scope.KeyAttributes))
	for _, attr := range scope.KeyAttributes {
		v, ok := claims.Key[attr]
		if !ok {
			return nil, fmt.Errorf("%w: key attribute %q missing", errCursorDecode, attr)
		}
		key[attr] = dal.S(v)
	}
	if claims.Key[scope.PartitionKey] != scope.PartitionValue {
		return nil, fmt.Errorf("%w: cursor belongs to another partition", errCursorDecode)
	}
	return key, nil
}
