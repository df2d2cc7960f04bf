// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/novel-engine/internal/output"
	"github.com/pdiddy/novel-engine/pkg/types"
)

func answers(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestAskLength(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"number", "1500\n", 1500},
		{"padded", "  800  \n", 800},
		{"empty takes default", "\n", 2000},
		{"closed input takes default", "", 2000},
		{"no trailing newline", "1200", 1200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := output.NewPrinterWithWriters(&out, &out, false)

			got, err := askLength(answers(tt.input), p, 2000)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Desired length in words [2000]")
		})
	}
}

func TestAskLength_NotANumber(t *testing.T) {
	p := output.NewPrinterWithWriters(&bytes.Buffer{}, &bytes.Buffer{}, false)
	_, err := askLength(answers("long\n"), p, 2000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConfig))
}

func TestAskModel(t *testing.T) {
	reg := types.DefaultRegistry()

	var out bytes.Buffer
	p := output.NewPrinterWithWriters(&out, &out, false)
	got, err := askModel(answers("Llama3.1-8B\n"), p, reg, types.DefaultModel)
	require.NoError(t, err)
	assert.Equal(t, "Llama3.1-8B", got, "validation happens when the request is built")

	for _, id := range reg.IDs() {
		assert.Contains(t, out.String(), string(id))
	}

	got, err = askModel(answers("\n"), p, reg, types.DefaultModel)
	require.NoError(t, err)
	assert.Equal(t, string(types.DefaultModel), got)
}

func TestAskThenValidate(t *testing.T) {
	reg := types.DefaultRegistry()
	p := output.NewPrinterWithWriters(&bytes.Buffer{}, &bytes.Buffer{}, false)
	in := answers("1000\nnot-a-model\n")

	length, err := askLength(in, p, 2000)
	require.NoError(t, err)
	model, err := askModel(in, p, reg, types.DefaultModel)
	require.NoError(t, err)

	_, err = types.NewGenerationRequest(length, model, reg, "Write the story.")
	assert.True(t, errors.Is(err, types.ErrConfig))
}
