// Package flog provides a set of context helpers for zerolog.
package flog

import (
	"context"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RunIDField is the field key run ids are logged under.
const RunIDField = "run"

type idKey struct{}

// IDFromCtx returns the unique run id associated to the context if any.
func IDFromCtx(ctx context.Context) (id xid.ID, ok bool) {
	id, ok = ctx.Value(idKey{}).(xid.ID)
	return
}

// CtxWithID adds the given xid.ID to the context, together with a copy of the
// global logger carrying the id as a field.
func CtxWithID(ctx context.Context, id xid.ID) context.Context {
	ctx = context.WithValue(ctx, idKey{}, id)
	l := log.Logger.With().Str(RunIDField, id.String()).Logger()
	return l.WithContext(ctx)
}

// FromCtx gets the logger of the context, falling back to the global logger
// when none was attached.
func FromCtx(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}
