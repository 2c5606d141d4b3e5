package repository

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/demariano/php-suite-sub002/dal"
	"github.com/demariano/php-suite-sub002/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, entityType string) *Schema {
	t.Helper()
	schemas, err := LoadSchemas()
	require.NoError(t, err)
	s, ok := schemas[entityType]
	require.True(t, ok)
	return s
}

func userCodec(t *testing.T) *entityCodec[*models.User] {
	return newEntityCodec(mustSchema(t, "USER"), func() *models.User { return &models.User{} })
}

func attr(t *testing.T, item dal.Item, name string) string {
	t.Helper()
	v, ok := dal.StringAttr(item, name)
	require.True(t, ok, "attribute %s missing", name)
	return v
}

func sampleUser() *models.User {
	return &models.User{
		Base: models.Base{
			ID:           "u-1",
			Status:       "ACTIVE",
			Metadata:     map[string]string{"team": "blue"},
			ActivityLogs: []string{"created"},
			CreatedBy:    "admin",
			DateCreated:  "2024-03-01T10:00:00.000Z",
			ModifiedBy:   "admin",
			ModifiedDate: "2024-03-01T10:00:00.000Z",
		},
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      "ADMIN",
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := userCodec(t)
	in := sampleUser()

	item, err := codec.encode(in)
	require.NoError(t, err)

	out, err := codec.decode(item)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	again, err := codec.encode(out)
	require.NoError(t, err)
	assert.Equal(t, item, again)
}

func TestCodecRoundTripProduct(t *testing.T) {
	codec := newEntityCodec(mustSchema(t, "PRODUCT"), func() *models.Product { return &models.Product{} })
	in := &models.Product{
		Base: models.Base{
			ID:           "p-1",
			Status:       "DRAFT",
			Metadata:     map[string]string{},
			ActivityLogs: []string{},
			DateCreated:  "2024-03-01T10:00:00.000Z",
		},
		Name:     "Lamp",
		Price:    19.99,
		Currency: "EUR",
	}

	item, err := codec.encode(in)
	require.NoError(t, err)
	out, err := codec.decode(item)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCodecComputesIndexKeys(t *testing.T) {
	item, err := userCodec(t).encode(sampleUser())
	require.NoError(t, err)

	assert.Equal(t, "USER", attr(t, item, "PK"))
	assert.Equal(t, "u-1", attr(t, item, "SK"))
	assert.Equal(t, "USER#ACTIVE", attr(t, item, "GSI1PK"))
	assert.Equal(t, "ada@example.com", attr(t, item, "GSI1SK"))
	assert.Equal(t, "USER#NAME#ada@example.com", attr(t, item, "GSI2PK"))
	assert.Equal(t, "2024-03-01T10:00:00.000Z", attr(t, item, "GSI3SK"))
	assert.Equal(t, "USER#ALL", attr(t, item, "GSI4PK"))
	assert.Equal(t, "USER#ADMIN#ACTIVE", attr(t, item, "GSI5PK"))
}

func TestCodecRecomputesKeysAfterMutation(t *testing.T) {
	codec := userCodec(t)
	user := sampleUser()

	user.Status = "INACTIVE"
	user.Role = "USER"
	user.Email = "countess@example.com"
	item, err := codec.encode(user)
	require.NoError(t, err)

	assert.Equal(t, "USER#INACTIVE", attr(t, item, "GSI1PK"))
	assert.Equal(t, "countess@example.com", attr(t, item, "GSI1SK"))
	assert.Equal(t, "USER#NAME#countess@example.com", attr(t, item, "GSI2PK"))
	assert.Equal(t, "USER#USER#INACTIVE", attr(t, item, "GSI5PK"))
}

func TestCodecDeletedStatusLeavesActiveIndexes(t *testing.T) {
	user := sampleUser()
	user.Status = "DELETED"
	item, err := userCodec(t).encode(user)
	require.NoError(t, err)

	assert.Equal(t, "USER#DELETED", attr(t, item, "GSI1PK"))
	for _, a := range []string{"GSI2PK", "GSI2SK", "GSI3PK", "GSI3SK", "GSI4PK", "GSI4SK"} {
		assert.NotContains(t, item, a)
	}
}

func TestCodecSkipsIndexWithMissingSource(t *testing.T) {
	user := sampleUser()
	user.Role = ""
	item, err := userCodec(t).encode(user)
	require.NoError(t, err)

	assert.NotContains(t, item, "GSI5PK")
	assert.NotContains(t, item, "GSI5SK")
	assert.Contains(t, item, "GSI1PK")
}

func TestCodecRejectsMissingID(t *testing.T) {
	user := sampleUser()
	user.ID = ""
	_, err := userCodec(t).encode(user)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCodecDecodeDefaultsMissingFields(t *testing.T) {
	item := dal.Item{
		"PK":       dal.S("USER"),
		"SK":       dal.S("u-2"),
		"id":       dal.S("u-2"),
		"email":    dal.S("grace@example.com"),
		"metadata": &types.AttributeValueMemberNULL{Value: true},
	}

	user, err := userCodec(t).decode(item)
	require.NoError(t, err)
	assert.Equal(t, "u-2", user.ID)
	assert.Equal(t, "", user.Role)
	assert.Equal(t, "", user.Status)
	assert.NotNil(t, user.Metadata)
	assert.Empty(t, user.Metadata)
	assert.Empty(t, user.ActivityLogs)

	assert.IsType(t, &types.AttributeValueMemberNULL{}, item["metadata"], "decode must not mutate the stored record")
}

func TestCodecIgnoresCallerSuppliedKeys(t *testing.T) {
	codec := userCodec(t)
	item, err := codec.encode(sampleUser())
	require.NoError(t, err)

	decoded, err := codec.decode(item)
	require.NoError(t, err)
	decoded.Status = "PENDING"

	updated, err := codec.encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, "USER#PENDING", attr(t, updated, "GSI1PK"))
	assert.Equal(t, "USER#ADMIN#PENDING", attr(t, updated, "GSI5PK"))
}
