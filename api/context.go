package api

import (
	"context"

	"github.com/rpupo63/portfolio-admin-backend/models"
)

type keyType string

const operatorKey keyType = "operator"

// ctxWithOperator adds the authenticated operator to the context
func ctxWithOperator(ctx context.Context, operator models.Operator) context.Context {
	return context.WithValue(ctx, operatorKey, operator)
}

// ctxGetOperator retrieves the authenticated operator from the context
func ctxGetOperator(ctx context.Context) (models.Operator, bool) {
	operator, ok := ctx.Value(operatorKey).(models.Operator)
	return operator, ok
}
