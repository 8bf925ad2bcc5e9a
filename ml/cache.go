package ml

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedPredictor memoizes successful predictions. Predict is a pure
// function of the request, so a hit is always identical to a recompute.
type CachedPredictor struct {
	next  YieldPredictor
	cache *lru.Cache[Request, Result]
}

// NewCachedPredictor wraps next with an LRU of the given size. A size of
// zero or less returns next unchanged.
func NewCachedPredictor(next YieldPredictor, size int) (YieldPredictor, error) {
	if size <= 0 {
		return next, nil
	}
	cache, err := lru.New[Request, Result](size)
	if err != nil {
		return nil, err
	}
	return &CachedPredictor{next: next, cache: cache}, nil
}

func (c *CachedPredictor) Predict(req Request) (Result, error) {
	key := req.Normalize()
	if result, ok := c.cache.Get(key); ok {
		return result, nil
	}
	result, err := c.next.Predict(key)
	if err != nil {
		return Result{}, err
	}
	c.cache.Add(key, result)
	return result, nil
}

func (c *CachedPredictor) Len() int {
	return c.cache.Len()
}
