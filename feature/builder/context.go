package builder

import (
	"context"
	"fmt"

	"fixture-builder/core/namer"

	"gorm.io/gorm"
)

// Context is handed to the population routine. It writes records through
// the builder's store and registers custom names for them.
type Context struct {
	ctx   context.Context
	store Store
	names *namer.Namer
}

func newContext(ctx context.Context, store Store, names *namer.Namer) *Context {
	return &Context{ctx: ctx, store: store, names: names}
}

// DB returns the connection bound to the build's context.
func (c *Context) DB() *gorm.DB {
	return c.store.DB().WithContext(c.ctx)
}

// Create inserts a GORM model.
func (c *Context) Create(model any) error {
	return c.store.Create(c.ctx, model)
}

// Insert writes row into table.
func (c *Context) Insert(table string, row map[string]any) error {
	return c.store.Insert(c.ctx, table, row)
}

// Exec runs a raw statement.
func (c *Context) Exec(statement string) error {
	return c.store.Exec(c.ctx, statement)
}

// Name gives every object the fixture name name. Objects are GORM models,
// which must already have a primary key, or namer.Ref values.
func (c *Context) Name(name string, objects ...any) error {
	refs := make([]namer.Ref, 0, len(objects))
	for _, obj := range objects {
		ref, err := c.ref(obj)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}
	return c.names.Name(name, refs...)
}

// NameWith names every record of table with fn.
func (c *Context) NameWith(table string, fn namer.NameFunc) {
	c.names.NameWith(table, fn)
}

func (c *Context) ref(obj any) (namer.Ref, error) {
	switch v := obj.(type) {
	case namer.Ref:
		return v, nil
	case *namer.Ref:
		if v == nil {
			return namer.Ref{}, nil
		}
		return *v, nil
	}

	table, id, err := c.store.Identify(obj)
	if err != nil {
		return namer.Ref{}, fmt.Errorf("cannot name %T: %w", obj, err)
	}
	return namer.NewRef(table, id), nil
}
