package services

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
)

// connection is one page of a GraphQL cursor connection.
type connection struct {
	edges       []edge
	hasNextPage bool
}

type edge struct {
	cursor string
	node   map[string]any
}

// Paginate walks the connection at path until pageInfo.hasNextPage is
// false, yielding every edge node in response order.
//
// The sequence is lazy and single-use: each page is requested only once
// the previous page has been consumed, with after set to the last edge's
// cursor. The first failure is yielded once and ends the sequence;
// entities already yielded are not taken back.
func Paginate(
	ctx context.Context,
	client driven.GraphQLClient,
	path []string,
	query string,
	pageSize int,
) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		var after string
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			variables := map[string]any{"first": pageSize}
			if after != "" {
				variables["after"] = after
			}

			data, err := client.Execute(ctx, query, variables)
			if err != nil {
				yield(nil, err)
				return
			}

			conn, err := locateConnection(data, path)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, e := range conn.edges {
				if !yield(e.node, nil) {
					return
				}
			}

			if !conn.hasNextPage {
				return
			}
			if len(conn.edges) == 0 {
				yield(nil, fmt.Errorf("%w: %s reports a next page but returned no edges",
					domain.ErrConnectionNotFound, strings.Join(path, ".")))
				return
			}

			next := conn.edges[len(conn.edges)-1].cursor
			if next == "" {
				yield(nil, fmt.Errorf("%w: %s edge has no cursor",
					domain.ErrConnectionNotFound, strings.Join(path, ".")))
				return
			}
			after = next
		}
	}
}

// locateConnection finds and decodes the connection at path.
func locateConnection(data map[string]any, path []string) (*connection, error) {
	raw, ok := lookupPath(data, path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrConnectionNotFound, strings.Join(path, "."))
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an object", domain.ErrConnectionNotFound, strings.Join(path, "."))
	}

	conn := &connection{}
	if info, ok := obj["pageInfo"].(map[string]any); ok {
		conn.hasNextPage, _ = info["hasNextPage"].(bool)
	}

	edges, err := decodeEdges(obj["edges"])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", strings.Join(path, "."), err)
	}
	conn.edges = edges
	return conn, nil
}

// decodeEdges converts a raw edges array. A missing array is empty.
func decodeEdges(raw any) ([]edge, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: edges is not an array", domain.ErrMalformedEntity)
	}

	edges := make([]edge, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: edge %d is not an object", domain.ErrMalformedEntity, i)
		}
		node, ok := obj["node"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: edge %d has no node", domain.ErrMalformedEntity, i)
		}
		cursor, _ := obj["cursor"].(string)
		edges = append(edges, edge{cursor: cursor, node: node})
	}
	return edges, nil
}

// lookupPath walks nested objects. A null leaf counts as present.
func lookupPath(data map[string]any, path []string) (any, bool) {
	var cur any = data
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// FetchOnce runs query a single time and returns the response data.
// There is no pagination and no retry.
func FetchOnce(
	ctx context.Context,
	client driven.GraphQLClient,
	query string,
	variables map[string]any,
) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return client.Execute(ctx, query, variables)
}
