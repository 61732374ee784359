// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"github.com/pkg/errors"
)

// ErrConfig is the cause of every error reporting an invalid model
// configuration: bad connectivity parameters, mismatched sizes,
// out-of-range indices, or inconsistent timing.  Test with errors.Is.
var ErrConfig = errors.New("spike: configuration error")

// configErrorf returns ErrConfig wrapped with a formatted message.
func configErrorf(format string, args ...any) error {
	return errors.Wrapf(ErrConfig, format, args...)
}
