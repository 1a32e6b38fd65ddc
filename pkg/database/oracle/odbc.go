//go:build odbc || windows

package oracle

import (
	"errors"

	"github.com/alexbrainman/odbc"
)

func init() {
	nativeCode = func(err error) int {
		var oe *odbc.Error
		if errors.As(err, &oe) && len(oe.Diag) > 0 {
			return oe.Diag[0].NativeError
		}
		return 0
	}
}
