// SPDX-License-Identifier: Apache-2.0

package service_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cchexcode/qop/pkg/service"
)

func TestPromptWithDiffAutoConfirm(t *testing.T) {
	ok, err := service.PromptWithDiff(strings.NewReader(""), &bytes.Buffer{}, "apply?", true, func() {})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPromptWithDiffYes(t *testing.T) {
	var out bytes.Buffer
	ok, err := service.PromptWithDiff(strings.NewReader("y\n"), &out, "apply?", false, func() {})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPromptWithDiffNo(t *testing.T) {
	var out bytes.Buffer
	ok, err := service.PromptWithDiff(strings.NewReader("n\n"), &out, "apply?", false, func() {})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPromptWithDiffEmptyLineCancels(t *testing.T) {
	var out bytes.Buffer
	ok, err := service.PromptWithDiff(strings.NewReader("\n"), &out, "apply?", false, func() {})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPromptWithDiffRendersThenReprompts(t *testing.T) {
	var out bytes.Buffer
	rendered := 0

	ok, err := service.PromptWithDiff(strings.NewReader("d\ny\n"), &out, "apply?", false, func() {
		rendered++
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, rendered)
}

func TestPromptWithDiffUnrecognizedThenEOFCancels(t *testing.T) {
	var out bytes.Buffer
	ok, err := service.PromptWithDiff(strings.NewReader("maybe"), &out, "apply?", false, func() {})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, out.String(), `please answer`)
}
