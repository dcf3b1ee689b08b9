package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Pager son los parámetros de paginación de un adapter.
type Pager struct {
	Size     int
	MaxPages int
	Delay    time.Duration
}

func (p Pager) withDefaults() Pager {
	if p.Size <= 0 {
		p.Size = 100
	}
	if p.MaxPages <= 0 {
		p.MaxPages = 200
	}
	return p
}

type pageReq struct {
	Index  int
	Offset int
	Limit  int
	Cursor string
}

type page[T any] struct {
	Items []T
	Next  string
	Last  bool // el protocolo de cursor indicó que no hay más
}

type fetchPage[T any] func(ctx context.Context, req pageReq) (page[T], error)

// collect recorre las páginas en orden estricto hasta recibir una página corta.
// Ante un error devuelve lo acumulado hasta ese punto junto con el error.
// key, si no es nil, deduplica por id conservando la primera aparición.
func collect[T any](ctx context.Context, p Pager, log *slog.Logger, obs Observer, source string, fetch fetchPage[T], key func(T) string) ([]T, int, error) {
	p = p.withDefaults()
	seen := make(map[string]struct{})
	var out []T
	req := pageReq{Limit: p.Size}
	pages := 0
	for pages < p.MaxPages {
		if pages > 0 && p.Delay > 0 {
			select {
			case <-ctx.Done():
				return out, pages, ctx.Err()
			case <-time.After(p.Delay):
			}
		}
		pg, err := fetch(ctx, req)
		if err != nil {
			log.Warn("page fetch failed",
				slog.String("source", source),
				slog.Int("page", req.Index),
				slog.Int("accumulated", len(out)),
				slog.String("err", err.Error()))
			obs.FetchFailed(source)
			return out, pages, fmt.Errorf("%s page %d: %w", source, req.Index, err)
		}
		pages++
		obs.PageFetched(source)
		for _, it := range pg.Items {
			if key != nil {
				k := key(it)
				if k != "" {
					if _, dup := seen[k]; dup {
						continue
					}
					seen[k] = struct{}{}
				}
			}
			out = append(out, it)
		}
		if len(pg.Items) < p.Size || pg.Last {
			return out, pages, nil
		}
		req.Index++
		req.Offset += len(pg.Items)
		req.Cursor = pg.Next
	}
	log.Warn("max pages reached", slog.String("source", source), slog.Int("pages", pages))
	return out, pages, nil
}
