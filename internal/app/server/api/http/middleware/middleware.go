package middleware

import "github.com/danielgtaylor/huma/v2"

// Container accumulates middleware for one handler's route group.
type Container struct {
	middlewares huma.Middlewares
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Add(mw func(huma.Context, func(huma.Context))) {
	c.middlewares = append(c.middlewares, mw)
}

// GetAllAndClear hands out the accumulated chain and resets the container
// for the next handler.
func (c *Container) GetAllAndClear() huma.Middlewares {
	out := c.middlewares
	c.middlewares = nil
	return out
}
