package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moveBody struct {
	TaskID string  `json:"task_id" validate:"required"`
	Delta  float64 `json:"delta"   validate:"gte=-100,lte=100"`
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr error
		want    moveBody
	}{
		{name: "valid", body: `{"task_id":"t1","delta":-5}`, want: moveBody{TaskID: "t1", Delta: -5}},
		{name: "empty", body: ``, wantErr: ErrEmptyBody},
		{name: "malformed", body: `{"task_id":`},
		{name: "unknown field", body: `{"task_id":"t1","bogus":true}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var got moveBody
			err := DecodeJSON(req, &got)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.want != (moveBody{}):
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			default:
				assert.Error(t, err)
			}
		})
	}
}

type selfValidating struct {
	ok bool
}

var errSelf = errors.New("self validation failed")

func (s selfValidating) Validate() error {
	if !s.ok {
		return errSelf
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateRequest(&moveBody{TaskID: "t1", Delta: 10}))
	assert.Error(t, ValidateRequest(&moveBody{Delta: 10}))
	assert.Error(t, ValidateRequest(&moveBody{TaskID: "t1", Delta: 101}))

	assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
	assert.ErrorIs(t, ValidateRequest(selfValidating{}), errSelf)
}
