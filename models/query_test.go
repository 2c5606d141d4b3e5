package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageLimitUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    PageLimit
		wantErr bool
	}{
		{"number", `{"limit":5}`, 5, false},
		{"numeric string", `{"limit":"2"}`, 2, false},
		{"padded string", `{"limit":" 7 "}`, 7, false},
		{"missing", `{}`, 0, false},
		{"word", `{"limit":"two"}`, 0, true},
		{"fraction", `{"limit":2.5}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req FilterPageRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Limit)
		})
	}
}
