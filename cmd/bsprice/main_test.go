package main

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/vadiminshakov/bsprice/internal/domain"
	"github.com/vadiminshakov/bsprice/internal/prompt"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedMsg  string
	}{
		{name: "success", err: nil, expectedCode: 0, expectedMsg: ""},
		{
			name:         "parse error",
			err:          &prompt.ParseError{Field: "spot", Text: "abc"},
			expectedCode: 1,
			expectedMsg:  `Error: spot: "abc" is not a number`,
		},
		{
			name:         "wrapped parse error",
			err:          errors.Wrap(&prompt.ParseError{Field: "rate", Text: "x"}, "read rate"),
			expectedCode: 1,
			expectedMsg:  `Error: rate: "x" is not a number`,
		},
		{
			name:         "invalid input",
			err:          domain.NewInputError("volatility", 0, "must be greater than zero before expiry"),
			expectedCode: 1,
			expectedMsg:  "Error: " + domain.NewInputError("volatility", 0, "must be greater than zero before expiry").Error(),
		},
		{
			name:         "unexpected eof",
			err:          errors.Wrap(io.ErrUnexpectedEOF, "read spot"),
			expectedCode: 1,
			expectedMsg:  "Error: read spot: unexpected EOF",
		},
		{name: "form aborted", err: huh.ErrUserAborted, expectedCode: 130, expectedMsg: ""},
		{name: "wrapped abort", err: fmt.Errorf("tui: %w", huh.ErrUserAborted), expectedCode: 130, expectedMsg: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := exitCode(tt.err)
			assert.Equal(t, tt.expectedCode, code)
			assert.Equal(t, tt.expectedMsg, msg)
		})
	}
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	code := reportError(&buf, domain.NewInputError("spot", -1, "must be greater than zero"))
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, buf.String(), "spot")
	assert.Contains(t, buf.String(), "must be greater than zero")

	buf.Reset()
	assert.Equal(t, exitAborted, reportError(&buf, huh.ErrUserAborted))
	assert.Empty(t, buf.String())
}
