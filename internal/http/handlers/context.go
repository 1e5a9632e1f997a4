package handlers

import (
	"context"

	"github.com/faysalsarker-dev/piercing-cms/internal/resources"
)

func withDefinition(ctx context.Context, def resources.Definition) context.Context {
	return context.WithValue(ctx, defKey{}, def)
}

func definitionFrom(ctx context.Context) resources.Definition {
	def, _ := ctx.Value(defKey{}).(resources.Definition)
	return def
}
