package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/AngelCh415/lead-attribution/internal/utils"
)

// DefaultRetry: 3 intentos, backoff exponencial + jitter desde 100ms.
var DefaultRetry = utils.NewBackoff(100*time.Millisecond, 2)

func getJSONWithRetry(ctx context.Context, c HTTPClient, b utils.Backoff, r request, dst any) error {
	return b.Do(ctx, func(int) error {
		err := doJSON(ctx, c, r, dst)
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return utils.Permanent(err)
		}
		if errors.Is(err, ErrEmptyURL) {
			return utils.Permanent(err)
		}
		return err
	})
}
