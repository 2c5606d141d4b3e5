package infrastructure

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTable(t *testing.T) {
	input, err := GetTable(SchemaKey, "dev_catalog")
	require.NoError(t, err)

	assert.Equal(t, "dev_catalog", aws.ToString(input.TableName))
	assert.Equal(t, types.BillingModePayPerRequest, input.BillingMode)
	assert.Nil(t, input.ProvisionedThroughput)
	require.Len(t, input.KeySchema, 2)
	assert.Equal(t, "PK", aws.ToString(input.KeySchema[0].AttributeName))
	assert.Equal(t, types.KeyTypeHash, input.KeySchema[0].KeyType)
	assert.Equal(t, "SK", aws.ToString(input.KeySchema[1].AttributeName))
	assert.Len(t, input.GlobalSecondaryIndexes, 5)
	assert.Len(t, input.AttributeDefinitions, 12)
}

func TestGetTableUnknownKey(t *testing.T) {
	input, err := GetTable("missing", "dev_missing")
	assert.Error(t, err)
	assert.Nil(t, input)
}

func TestIndexNames(t *testing.T) {
	assert.Equal(t, []string{"GSI1", "GSI2", "GSI3", "GSI4", "GSI5"}, IndexNames(SchemaKey))
}
