package csvio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	A string
	B string
	C string
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []row
		wantErr bool
	}{
		{
			name:  "ragged rows",
			input: "a,b,c\n1,2\n3,4,5,6,7\n",
			want:  []row{{A: "1", B: "2"}, {A: "3", B: "4", C: "5"}},
		},
		{
			name:  "header only",
			input: "a,b,c\n",
			want:  nil,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []row
			header, err := Decode(strings.NewReader(tt.input), &got, 3)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, header)
			assert.Equal(t, tt.want, got)
		})
	}
}
