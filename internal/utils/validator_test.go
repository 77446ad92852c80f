// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validatedPayload struct {
	Address string `validate:"required,eth_address"`
	Content string `validate:"omitempty,content_id"`
	Name    string `validate:"omitempty,max=8"`
}

const testCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func TestValidateStruct(t *testing.T) {
	valid := validatedPayload{
		Address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		Content: testCID,
	}
	assert.NoError(t, ValidateStruct(&valid))

	withURI := valid
	withURI.Content = "ipfs://" + testCID
	assert.NoError(t, ValidateStruct(&withURI))
}

func TestValidateStructFailures(t *testing.T) {
	cases := []struct {
		name    string
		payload validatedPayload
		tag     string
	}{
		{"missing address", validatedPayload{}, "required"},
		{"bad address", validatedPayload{Address: "0x123"}, "eth_address"},
		{"bad cid", validatedPayload{
			Address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			Content: "not-a-cid",
		}, "content_id"},
		{"name too long", validatedPayload{
			Address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			Name:    "this name is too long",
		}, "max"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStruct(&tc.payload)
			require.Error(t, err)

			errs := GetValidationErrors(err)
			require.Len(t, errs, 1)
			assert.Equal(t, tc.tag, errs[0].Tag)
			assert.NotEmpty(t, errs[0].Message)
		})
	}
}

func TestGetValidationErrorsNonValidation(t *testing.T) {
	assert.Empty(t, GetValidationErrors(assert.AnError))
	assert.Empty(t, GetValidationErrors(nil))
}
