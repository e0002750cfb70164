package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSetParsesAllTemplates(t *testing.T) {
	set, err := NewSet()
	require.NoError(t, err)

	names := set.Names()
	for _, want := range []string{
		"endomorphism/map.wgsl",
		"endomorphism/copy.wgsl",
		"endomorphism/arithmetic.wgsl",
		"endomorphism/activation.wgsl",
		"endomorphism/batchnorm.wgsl",
		"matrix/concat.wgsl",
		"matrix/transpose.wgsl",
		"matrix/gemm_1.wgsl",
		"matrix/gemm.wgsl",
		"pool/aggregate.wgsl",
		"pool/conv.wgsl",
		"pool/conv_kernel_1.wgsl",
		"pool/conv_kernel_3.wgsl",
	} {
		assert.Contains(t, names, want)
	}
}

func TestRenderMap(t *testing.T) {
	set, err := NewSet()
	require.NoError(t, err)

	source, err := set.Render("endomorphism/map.wgsl", Context{
		"input":   []string{"x"},
		"output":  []string{"y"},
		"op_type": "cos",
	})
	require.NoError(t, err)
	assert.Contains(t, source, "b_y[gidx] = cos(b_x[gidx]);")
	assert.Contains(t, source, "@compute")
}

func TestRenderUnknownTemplate(t *testing.T) {
	set, err := NewSet()
	require.NoError(t, err)

	_, err = set.Render("endomorphism/nope.wgsl", Context{})
	assert.Error(t, err)
}

func TestRenderFailsOnMissingContextKey(t *testing.T) {
	set, err := NewSet()
	require.NoError(t, err)

	_, err = set.Render("endomorphism/map.wgsl", Context{
		"input":  []string{"x"},
		"output": []string{"y"},
		// op_type deliberately absent
	})
	assert.Error(t, err)
}
