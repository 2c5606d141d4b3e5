package dal

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/demariano/php-suite-sub002/models"
	"github.com/dgraph-io/badger/v4"
)

var retryableCodes = map[string]bool{
	"ProvisionedThroughputExceededException": true,
	"ThrottlingException":                    true,
	"RequestLimitExceeded":                   true,
	"InternalServerError":                    true,
	"ServiceUnavailable":                     true,
	"TransactionConflictException":           true,
}

// wrapStoreError classifies a backend failure into a models.StoreError
func wrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}

	var se *models.StoreError
	if errors.As(err, &se) {
		return err
	}

	se = &models.StoreError{Op: op, Err: err}

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		se.Code = "ConditionalCheckFailedException"
		se.Conditional = true
		return se
	}

	if errors.Is(err, badger.ErrConflict) {
		se.Code = "TransactionConflictException"
		se.Retryable = true
		return se
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		se.Code = apiErr.ErrorCode()
		se.Retryable = retryableCodes[se.Code]
		se.Conditional = se.Code == "ConditionalCheckFailedException"
	}

	return se
}

// IsTableNotFound reports whether err indicates a missing table
func IsTableNotFound(err error) bool {
	return hasErrorCode(err, "ResourceNotFoundException")
}

// IsResourceInUse reports whether err indicates the table already exists or is busy
func IsResourceInUse(err error) bool {
	return hasErrorCode(err, "ResourceInUseException")
}

func hasErrorCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}

func validationException(message string) error {
	return &smithy.GenericAPIError{Code: "ValidationException", Message: message, Fault: smithy.FaultClient}
}
