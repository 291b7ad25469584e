package labelstore

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/teclab/internal/labels"
)

func TestMaskBlob(t *testing.T) {
	t.Parallel()
	// 3x5 is not a multiple of eight cells, so the last byte is partial
	mask := testMask(3, 5, [2]int{0, 0}, [2]int{1, 3}, [2]int{2, 4})

	blob, err := encodeMask(mask)
	require.NoError(t, err)
	got, err := decodeMask(blob)
	require.NoError(t, err)
	if diff := cmp.Diff(mask, got); diff != "" {
		t.Fatalf("mask mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeMask_Ragged(t *testing.T) {
	t.Parallel()
	for name, mask := range map[string]labels.Mask{
		"short row": {{true, false, true}, {true, false}},
		"long row":  {{true, false}, {false, true, true}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := encodeMask(mask)
			assert.ErrorIs(t, err, labels.ErrShapeMismatch)
		})
	}
}

func TestDecodeMask_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		blob    []byte
		wantErr string
	}{
		{"empty", nil, "empty mask blob"},
		{"not gzip", []byte("not valid gzip"), "failed to create gzip reader"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeMask(tt.blob)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
