// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package moderation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bureau-foundation/warden/messaging"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"nil", nil, FailureNone},
		{"forbidden",
			&messaging.MatrixError{Code: messaging.ErrCodeForbidden, StatusCode: 403},
			FailurePermissionDenied},
		{"not found",
			&messaging.MatrixError{Code: messaging.ErrCodeNotFound, StatusCode: 404},
			FailureNotFound},
		{"rate limited",
			&messaging.MatrixError{Code: messaging.ErrCodeLimitExceeded, StatusCode: 429},
			FailureRemoteUnavailable},
		{"server error",
			&messaging.MatrixError{Code: messaging.ErrCodeUnknown, StatusCode: 502},
			FailureRemoteUnavailable},
		{"other client error",
			&messaging.MatrixError{Code: messaging.ErrCodeInvalidParam, StatusCode: 400},
			FailurePermissionDenied},
		{"transport failure", errors.New("connection refused"), FailureRemoteUnavailable},
		{"wrapped matrix error",
			fmt.Errorf("kicking @x: %w",
				&messaging.MatrixError{Code: messaging.ErrCodeForbidden, StatusCode: 403}),
			FailurePermissionDenied},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.want {
				t.Errorf("Classify = %v, want %v", got, test.want)
			}
		})
	}
}
